package store

import (
	"context"
	"errors"
	"sync"

	"github.com/Scalingo/sclng-commit-explorer/model"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultCommitsPerPage = 10
	firstCommitsPage      = 1
)

// API is the subset of the github service used by the store
type API interface {
	FetchUserRepos(ctx context.Context, username string) ([]model.GithubRepository, error)
	FetchRepoCommits(ctx context.Context, username string, repository string, perPage int, page int) ([]model.GithubCommit, error)
	FetchCommitDetails(ctx context.Context, username string, repository string, sha string) (*model.GithubCommitDetails, error)
}

// FavouritesObserver is notified after each favourites mutation with a copy of the whole collection
type FavouritesObserver interface {
	FavouritesChanged(favourites model.FavouriteCommits)
}

type FavouritesObserverFunc func(favourites model.FavouriteCommits)

func (f FavouritesObserverFunc) FavouritesChanged(favourites model.FavouriteCommits) {
	f(favourites)
}

type Option func(s *Store)

// WithCommitsPerPage set the page size used to load commits
func WithCommitsPerPage(perPage int) Option {
	return func(s *Store) {
		if perPage > 0 {
			s.commitsPerPage = perPage
		}
	}
}

// WithFavourites set the initial favourites, usually restored from storage
func WithFavourites(favourites model.FavouriteCommits) Option {
	return func(s *Store) {
		if favourites != nil {
			s.favouriteCommits = favourites.Clone()
		}
	}
}

func WithFavouritesObserver(observer FavouritesObserver) Option {
	return func(s *Store) {
		s.observers = append(s.observers, observer)
	}
}

// Store holds the state shown by the views: repositories, commits, pagination, favourites and request status
// loading and errorMessage are shared by all operations, the last operation to finish wins
// the mutex only protects the fields, it does not serialize the operations
type Store struct {
	api API

	mutex            sync.RWMutex
	repos            []model.GithubRepository
	commits          []model.GithubCommit
	favouriteCommits model.FavouriteCommits
	loading          bool
	errorMessage     *string
	commitsPage      int
	commitsPerPage   int
	hasMoreCommits   bool

	// held from the favourites mutation until observers are notified, so they see changes in order
	notifyMutex sync.Mutex
	observers   []FavouritesObserver
}

func New(api API, opts ...Option) *Store {
	s := &Store{
		api:              api,
		repos:            []model.GithubRepository{},
		commits:          []model.GithubCommit{},
		favouriteCommits: model.FavouriteCommits{},
		commitsPage:      firstCommitsPage,
		commitsPerPage:   DefaultCommitsPerPage,
		hasMoreCommits:   true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// begin mark the store as busy and clear the last error
// it must always be followed by a call to end
func (s *Store) begin() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loading = true
	s.errorMessage = nil
}

// end release the busy flag and keep the error message if any
func (s *Store) end(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loading = false

	if err != nil {
		message := err.Error()
		s.errorMessage = &message
	}
}

// LoadRepos replace the repositories with the ones of username
// on failure the repositories are kept and the error is exposed in the state
func (s *Store) LoadRepos(ctx context.Context, username string) {
	var err error

	s.begin()
	defer func() { s.end(err) }()

	repos, err := s.api.FetchUserRepos(ctx, username)

	if err != nil {
		log.WithError(err).WithField("username", username).Warning("unable to load repositories")
		return
	}

	s.mutex.Lock()
	s.repos = repos
	s.mutex.Unlock()
}

// LoadCommits load the first page of commits, or the next one when loadMore is true
// when the last page was already loaded, a load more call does nothing
func (s *Store) LoadCommits(ctx context.Context, username string, repository string, loadMore bool) {
	s.mutex.Lock()

	if !loadMore {
		s.commits = []model.GithubCommit{}
		s.commitsPage = firstCommitsPage
		s.hasMoreCommits = true
	}

	if !s.hasMoreCommits {
		s.mutex.Unlock()
		log.WithFields(log.Fields{
			"username":   username,
			"repository": repository,
		}).Debug("no more commits to load. skipped")
		return
	}

	s.loading = true
	s.errorMessage = nil
	perPage, page := s.commitsPerPage, s.commitsPage
	s.mutex.Unlock()

	var err error
	defer func() { s.end(err) }()

	commits, err := s.api.FetchRepoCommits(ctx, username, repository, perPage, page)

	// an empty page after the first one only means there is nothing more to load
	if loadMore && page > firstCommitsPage && errors.Is(err, model.ErrEmptyResult) {
		err = nil

		s.mutex.Lock()
		s.hasMoreCommits = false
		s.mutex.Unlock()
		return
	}

	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"username":   username,
			"repository": repository,
			"page":       page,
		}).Warning("unable to load commits")
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if loadMore {
		s.commits = append(append([]model.GithubCommit{}, s.commits...), commits...)
	} else {
		s.commits = commits
	}

	s.commitsPage++

	if len(commits) < perPage {
		s.hasMoreCommits = false
	}
}

// LoadCommitDetails return the details of a commit, or nil on failure
// the result is not kept in the state
func (s *Store) LoadCommitDetails(ctx context.Context, username string, repository string, sha string) *model.GithubCommitDetails {
	var err error

	s.begin()
	defer func() { s.end(err) }()

	details, err := s.api.FetchCommitDetails(ctx, username, repository, sha)

	if err != nil {
		log.WithError(err).WithField("sha", sha).Warning("unable to load commit details")
		return nil
	}

	return details
}

// AddFavourite add commit to the favourites of repoKey, unless a commit with the same sha is already there
func (s *Store) AddFavourite(commit model.GithubCommit, repoKey string) {
	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()

	s.mutex.Lock()

	favourites := s.favouriteCommits[repoKey]

	for _, c := range favourites {
		if c.SHA == commit.SHA {
			s.mutex.Unlock()
			return
		}
	}

	// always build a new slice, views may still hold the previous one
	updated := make([]model.GithubCommit, 0, len(favourites)+1)
	updated = append(updated, favourites...)
	s.favouriteCommits[repoKey] = append(updated, commit)

	snapshot := s.favouriteCommits.Clone()
	s.mutex.Unlock()

	s.notify(snapshot)
}

// RemoveFavourite remove the commit matching sha from the favourites of repoKey
func (s *Store) RemoveFavourite(sha string, repoKey string) {
	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()

	s.mutex.Lock()

	favourites := s.favouriteCommits[repoKey]
	updated := make([]model.GithubCommit, 0, len(favourites))

	for _, c := range favourites {
		if c.SHA != sha {
			updated = append(updated, c)
		}
	}

	s.favouriteCommits[repoKey] = updated

	snapshot := s.favouriteCommits.Clone()
	s.mutex.Unlock()

	s.notify(snapshot)
}

// GetFavourites return the favourites of repoKey, an empty list if there is none
func (s *Store) GetFavourites(repoKey string) []model.GithubCommit {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	favourites, found := s.favouriteCommits[repoKey]

	if !found {
		return []model.GithubCommit{}
	}

	return append([]model.GithubCommit{}, favourites...)
}

// IsFavourite check if sha is part of the favourites of repoKey
func (s *Store) IsFavourite(sha string, repoKey string) bool {
	for _, c := range s.GetFavourites(repoKey) {
		if c.SHA == sha {
			return true
		}
	}

	return false
}

func (s *Store) notify(favourites model.FavouriteCommits) {
	for _, observer := range s.observers {
		observer.FavouritesChanged(favourites)
	}
}

// State return a copy of the whole state
func (s *Store) State() model.State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state := model.State{
		Repos:            append([]model.GithubRepository{}, s.repos...),
		Commits:          append([]model.GithubCommit{}, s.commits...),
		FavouriteCommits: s.favouriteCommits.Clone(),
		Loading:          s.loading,
		CommitsPage:      s.commitsPage,
		CommitsPerPage:   s.commitsPerPage,
		HasMoreCommits:   s.hasMoreCommits,
	}

	if s.errorMessage != nil {
		message := *s.errorMessage
		state.ErrorMessage = &message
	}

	return state
}

func (s *Store) Loading() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.loading
}

func (s *Store) ErrorMessage() *string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.errorMessage == nil {
		return nil
	}

	message := *s.errorMessage
	return &message
}
