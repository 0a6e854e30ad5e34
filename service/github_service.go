package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Scalingo/sclng-commit-explorer/config"
	"github.com/Scalingo/sclng-commit-explorer/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

const (
	DefaultCommitsPerPage = 10
	DefaultCommitsPage    = 1
)

type GithubService interface {
	FetchUserRepos(ctx context.Context, username string) ([]model.GithubRepository, error)
	FetchRepoCommits(ctx context.Context, username string, repository string, perPage int, page int) ([]model.GithubCommit, error)
	FetchCommitDetails(ctx context.Context, username string, repository string, sha string) (*model.GithubCommitDetails, error)
	FetchCommitsDetails(ctx context.Context, username string, repository string, shas []string) ([]model.GithubCommitDetails, error)

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// the client is created outside to easily use a mocked http client in tests
// each call to github consume one token of the rate limiter
// unauthenticated = 60 calls per hour, authenticated = 5000 calls per hour
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

// FetchUserRepos list the public repositories of a user
// a user without any public repository is reported as a not found error
func (s githubService) FetchUserRepos(ctx context.Context, username string) ([]model.GithubRepository, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: http.StatusForbidden})
	}

	log.WithField("username", username).Info("fetch public repositories from github")

	repos, _, err := s.githubClient.Repositories.ListByUser(ctx, username, nil)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	if len(repos) == 0 {
		log.WithField("username", username).Debug("user without public repositories")
		return nil, model.NewEmptyResultError(model.MessageNoRepositories)
	}

	repositories := make([]model.GithubRepository, 0, len(repos))

	for _, r := range repos {
		repositories = append(repositories, toRepository(r))
	}

	return repositories, nil
}

// FetchRepoCommits load a single page of commits
// an empty page is reported as a not found error wrapping model.ErrEmptyResult
func (s githubService) FetchRepoCommits(ctx context.Context, username string, repository string, perPage int, page int) ([]model.GithubCommit, error) {
	if perPage <= 0 {
		perPage = DefaultCommitsPerPage
	}

	if page <= 0 {
		page = DefaultCommitsPage
	}

	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: http.StatusForbidden})
	}

	log.WithFields(log.Fields{
		"username":   username,
		"repository": repository,
		"perPage":    perPage,
		"page":       page,
	}).Info("fetch commits page from github")

	commits, _, err := s.githubClient.Repositories.ListCommits(
		ctx,
		username,
		repository,
		&github.CommitsListOptions{
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		},
	)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	if len(commits) == 0 {
		return nil, model.NewEmptyResultError(model.MessageNoCommits)
	}

	result := make([]model.GithubCommit, 0, len(commits))

	for _, c := range commits {
		result = append(result, toCommit(c))
	}

	return result, nil
}

// FetchCommitDetails get a single commit with changed files and stats
func (s githubService) FetchCommitDetails(ctx context.Context, username string, repository string, sha string) (*model.GithubCommitDetails, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: http.StatusForbidden})
	}

	return s.fetchCommitDetails(ctx, username, repository, sha)
}

// FetchCommitsDetails load the details of several commits using goroutines
// results keep the order of shas, the first failing sha (in that order) is returned as error
func (s githubService) FetchCommitsDetails(ctx context.Context, username string, repository string, shas []string) ([]model.GithubCommitDetails, error) {
	if len(shas) == 0 {
		return []model.GithubCommitDetails{}, nil
	}

	// consume all tokens at once to avoid loading only a part of the commits
	if !s.githubRateLimiter.AllowN(time.Now(), len(shas)) {
		log.WithField("commitsToLoad", len(shas)).Warning("not enought requests in rate limiter to load all commits details")
		return nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: http.StatusForbidden})
	}

	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)

	details := make([]model.GithubCommitDetails, len(shas))
	failures := make([]error, len(shas))

	for i, sha := range shas {
		swg.Add()

		go func(index int, sha string) {
			defer swg.Done()

			// each goroutine only writes its own index
			detail, err := s.fetchCommitDetails(ctx, username, repository, sha)

			if err != nil {
				failures[index] = err
				return
			}

			details[index] = *detail
		}(i, sha)
	}

	log.Debug("waiting for all threads for loading commits details to be finished")
	swg.Wait()

	for _, err := range failures {
		if err != nil {
			return nil, err
		}
	}

	return details, nil
}

// note: we are not checking the rate limit in this function, because done by the callers
func (s githubService) fetchCommitDetails(ctx context.Context, username string, repository string, sha string) (*model.GithubCommitDetails, error) {
	log.WithFields(log.Fields{
		"username":   username,
		"repository": repository,
		"sha":        sha,
	}).Debug("fetch commit details from github")

	commit, _, err := s.githubClient.Repositories.GetCommit(ctx, username, repository, sha, nil)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	details := toCommitDetails(commit)
	return &details, nil
}

// HandleRequestErrors manage errors including github rate limit errors at the same location
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	failure := model.HTTPFailure{}

	var (
		rateLimitErr  *github.RateLimitError
		abuseLimitErr *github.AbuseRateLimitError
		responseErr   *github.ErrorResponse
	)

	switch {
	case errors.As(err, &rateLimitErr):
		// drain the whole burst, tokens may go below zero until the limit reset
		s.githubRateLimiter.ReserveN(time.Now(), s.githubRateLimiter.Burst())
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")

		failure.StatusCode = http.StatusForbidden // github may also answer 429
		failure.BodyMessage = rateLimitErr.Message

	case errors.As(err, &abuseLimitErr):
		log.Warning("the Github secondary rate limit has been reached")

		failure.StatusCode = http.StatusForbidden
		failure.BodyMessage = abuseLimitErr.Message

	case errors.As(err, &responseErr):
		log.WithError(err).Error("error catched when fetching data from github")

		failure.StatusCode = statusCode(responseErr.Response, 0)
		failure.BodyMessage = responseErr.Message

	default:
		log.WithError(err).Error("unable to reach github")
	}

	apiErr := model.ClassifyHTTPError(failure)
	apiErr.Cause = err
	return apiErr
}
