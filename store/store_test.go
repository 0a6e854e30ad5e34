package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/Scalingo/sclng-commit-explorer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) FetchUserRepos(ctx context.Context, username string) ([]model.GithubRepository, error) {
	args := m.Called(ctx, username)
	repos, _ := args.Get(0).([]model.GithubRepository)
	return repos, args.Error(1)
}

func (m *mockAPI) FetchRepoCommits(ctx context.Context, username string, repository string, perPage int, page int) ([]model.GithubCommit, error) {
	args := m.Called(ctx, username, repository, perPage, page)
	commits, _ := args.Get(0).([]model.GithubCommit)
	return commits, args.Error(1)
}

func (m *mockAPI) FetchCommitDetails(ctx context.Context, username string, repository string, sha string) (*model.GithubCommitDetails, error) {
	args := m.Called(ctx, username, repository, sha)
	details, _ := args.Get(0).(*model.GithubCommitDetails)
	return details, args.Error(1)
}

func fakeCommits(count int, offset int) []model.GithubCommit {
	commits := make([]model.GithubCommit, 0, count)

	for i := 0; i < count; i++ {
		sha := fmt.Sprintf("sha%d", offset+i)
		commits = append(commits, model.GithubCommit{
			SHA: sha,
			Commit: model.GithubCommitInfo{
				Author:  model.GithubCommitAuthor{Name: "octocat", Email: "octocat@github.com", Date: "2025-01-01T00:00:00Z"},
				Message: "commit " + sha,
			},
			HTMLURL: "https://github.com/octocat/repo1/commit/" + sha,
		})
	}

	return commits
}

var fakeRepos = []model.GithubRepository{
	{
		ID:            1,
		Name:          "repo1",
		FullName:      "octocat/repo1",
		HTMLURL:       "https://github.com/octocat/repo1",
		Owner:         model.GithubUser{Login: "octocat", ID: 1},
		DefaultBranch: "main",
	},
}

func TestNew(t *testing.T) {
	s := New(&mockAPI{})
	state := s.State()

	assert.Empty(t, state.Repos)
	assert.Empty(t, state.Commits)
	assert.Empty(t, state.FavouriteCommits)
	assert.False(t, state.Loading)
	assert.Nil(t, state.ErrorMessage)
	assert.Equal(t, 1, state.CommitsPage)
	assert.Equal(t, 10, state.CommitsPerPage)
	assert.True(t, state.HasMoreCommits)

	assert.Equal(t, 25, New(&mockAPI{}, WithCommitsPerPage(25)).State().CommitsPerPage)
	assert.Equal(t, 10, New(&mockAPI{}, WithCommitsPerPage(0)).State().CommitsPerPage)
}

func TestLoadRepos(t *testing.T) {
	tests := []struct {
		name            string
		repos           []model.GithubRepository
		err             error
		expectedRepos   []model.GithubRepository
		expectedMessage *string
	}{
		{
			name:          "Loads repositories successfully",
			repos:         fakeRepos,
			expectedRepos: fakeRepos,
		},
		{
			name:            "User without public repositories",
			err:             model.NewEmptyResultError(model.MessageNoRepositories),
			expectedRepos:   []model.GithubRepository{},
			expectedMessage: func() *string { m := model.MessageNoRepositories; return &m }(),
		},
		{
			name:            "User not found",
			err:             model.ClassifyHTTPError(model.HTTPFailure{StatusCode: 404}),
			expectedRepos:   []model.GithubRepository{},
			expectedMessage: func() *string { m := "User or repository not found."; return &m }(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			api.On("FetchUserRepos", mock.Anything, "octocat").Return(tt.repos, tt.err).Once()

			s := New(api)
			s.LoadRepos(context.Background(), "octocat")
			state := s.State()

			assert.Equal(t, tt.expectedRepos, state.Repos)
			assert.Equal(t, tt.expectedMessage, state.ErrorMessage)
			assert.False(t, state.Loading)
			api.AssertExpectations(t)
		})
	}
}

func TestLoadReposKeepPreviousOnFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchUserRepos", mock.Anything, "octocat").Return(fakeRepos, nil).Once()
	api.On("FetchUserRepos", mock.Anything, "baduser").Return(nil, fmt.Errorf("API fail")).Once()

	s := New(api)
	s.LoadRepos(context.Background(), "octocat")
	s.LoadRepos(context.Background(), "baduser")

	assert.Equal(t, fakeRepos, s.State().Repos)
	require.NotNil(t, s.ErrorMessage())
	assert.Equal(t, "API fail", *s.ErrorMessage())
	assert.False(t, s.Loading())

	// a successful load clears the previous error
	api.On("FetchUserRepos", mock.Anything, "octocat").Return(fakeRepos, nil).Once()
	s.LoadRepos(context.Background(), "octocat")
	assert.Nil(t, s.ErrorMessage())
}

func TestLoadReposLoadingDuringRequest(t *testing.T) {
	api := &mockAPI{}
	s := New(api)

	api.On("FetchUserRepos", mock.Anything, "octocat").Run(func(_ mock.Arguments) {
		assert.True(t, s.Loading())
	}).Return(fakeRepos, nil).Once()

	s.LoadRepos(context.Background(), "octocat")
	assert.False(t, s.Loading())
}

func TestLoadCommitsSinglePage(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 1).Return(fakeCommits(1, 0), nil).Once()

	s := New(api)
	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	state := s.State()

	assert.Len(t, state.Commits, 1)
	assert.False(t, state.HasMoreCommits)
	assert.Equal(t, 2, state.CommitsPage)
	assert.Nil(t, state.ErrorMessage)
	assert.False(t, state.Loading)
	api.AssertExpectations(t)
}

// TestLoadCommitsPagination loads a repository with exactly two full pages
func TestLoadCommitsPagination(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 3, 1).Return(fakeCommits(3, 0), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 3, 2).Return(fakeCommits(3, 3), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 3, 3).Return(nil, model.NewEmptyResultError(model.MessageNoCommits)).Once()

	s := New(api, WithCommitsPerPage(3))

	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	assert.True(t, s.State().HasMoreCommits)
	assert.Equal(t, 2, s.State().CommitsPage)

	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	assert.True(t, s.State().HasMoreCommits)
	assert.Len(t, s.State().Commits, 6)

	// third page is empty: end of data, not an error
	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	state := s.State()
	assert.False(t, state.HasMoreCommits)
	assert.Nil(t, state.ErrorMessage)
	assert.Len(t, state.Commits, 6)
	assert.Equal(t, 3, state.CommitsPage)

	// latch is closed, next load more must not call the api
	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	api.AssertNumberOfCalls(t, "FetchRepoCommits", 3)

	for i, c := range s.State().Commits {
		assert.Equal(t, fmt.Sprintf("sha%d", i), c.SHA)
	}
}

func TestLoadCommitsShortPageStopsPagination(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 1).Return(fakeCommits(10, 0), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 2).Return(fakeCommits(4, 10), nil).Once()

	s := New(api)
	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	assert.False(t, s.State().HasMoreCommits)

	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	s.LoadCommits(context.Background(), "octocat", "repo1", true)

	assert.Len(t, s.State().Commits, 14)
	api.AssertNumberOfCalls(t, "FetchRepoCommits", 2)
	api.AssertExpectations(t)
}

func TestLoadCommitsFreshLoadResetsCursor(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 1).Return(fakeCommits(2, 0), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo2", 10, 1).Return(fakeCommits(10, 100), nil).Once()

	s := New(api)
	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	assert.False(t, s.State().HasMoreCommits)

	s.LoadCommits(context.Background(), "octocat", "repo2", false)
	state := s.State()

	assert.True(t, state.HasMoreCommits)
	assert.Equal(t, 2, state.CommitsPage)
	assert.Equal(t, fakeCommits(10, 100), state.Commits)
}

func TestLoadCommitsEmptyFirstPage(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 1).Return(fakeCommits(5, 0), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "empty", 10, 1).Return(nil, model.NewEmptyResultError(model.MessageNoCommits)).Once()

	s := New(api)
	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	s.LoadCommits(context.Background(), "octocat", "empty", false)
	state := s.State()

	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "No commits found for this repository.", *state.ErrorMessage)
	assert.Empty(t, state.Commits)
	assert.Equal(t, 1, state.CommitsPage)
	assert.True(t, state.HasMoreCommits)
	assert.False(t, state.Loading)
}

func TestLoadCommitsLoadMoreFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 1).Return(fakeCommits(10, 0), nil).Once()
	api.On("FetchRepoCommits", mock.Anything, "octocat", "repo1", 10, 2).Return(nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: 403})).Once()

	s := New(api)
	s.LoadCommits(context.Background(), "octocat", "repo1", false)
	s.LoadCommits(context.Background(), "octocat", "repo1", true)
	state := s.State()

	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", *state.ErrorMessage)
	assert.Len(t, state.Commits, 10)
	assert.Equal(t, 2, state.CommitsPage)
	assert.True(t, state.HasMoreCommits)
	assert.False(t, state.Loading)
}

func TestLoadCommitsLoadMoreOnFirstPage(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchRepoCommits", mock.Anything, "octocat", "empty", 10, 1).Return(nil, model.NewEmptyResultError(model.MessageNoCommits)).Twice()

	s := New(api)

	// load more without any fresh load before
	s.LoadCommits(context.Background(), "octocat", "empty", true)
	state := s.State()

	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "No commits found for this repository.", *state.ErrorMessage)
	assert.True(t, state.HasMoreCommits)

	// load more after a failed fresh load
	s.LoadCommits(context.Background(), "octocat", "empty", true)
	state = s.State()

	require.NotNil(t, state.ErrorMessage)
	assert.True(t, state.HasMoreCommits)
	assert.Equal(t, 1, state.CommitsPage)
	assert.False(t, state.Loading)

	api.AssertNumberOfCalls(t, "FetchRepoCommits", 2)
}

func TestLoadCommitDetails(t *testing.T) {
	details := &model.GithubCommitDetails{
		GithubCommit: fakeCommits(1, 0)[0],
		Files:        []model.GithubCommitFile{},
		Stats:        model.GithubCommitStats{},
	}

	api := &mockAPI{}
	api.On("FetchCommitDetails", mock.Anything, "octocat", "repo1", "sha0").Return(details, nil).Once()
	api.On("FetchCommitDetails", mock.Anything, "octocat", "repo1", "unknown").Return(nil, model.ClassifyHTTPError(model.HTTPFailure{StatusCode: 404})).Once()

	s := New(api)

	assert.Equal(t, details, s.LoadCommitDetails(context.Background(), "octocat", "repo1", "sha0"))
	assert.Nil(t, s.ErrorMessage())
	assert.False(t, s.Loading())

	assert.Nil(t, s.LoadCommitDetails(context.Background(), "octocat", "repo1", "unknown"))
	require.NotNil(t, s.ErrorMessage())
	assert.Equal(t, "User or repository not found.", *s.ErrorMessage())
	assert.False(t, s.Loading())

	// details are not kept in the state
	assert.Empty(t, s.State().Commits)
}

func TestFavourites(t *testing.T) {
	var notifications []model.FavouriteCommits

	s := New(&mockAPI{}, WithFavouritesObserver(FavouritesObserverFunc(func(favourites model.FavouriteCommits) {
		notifications = append(notifications, favourites)
	})))

	commit := fakeCommits(1, 0)[0]
	repoKey := model.RepoKey("octocat", "repo1")

	assert.Equal(t, []model.GithubCommit{}, s.GetFavourites(repoKey))

	s.AddFavourite(commit, repoKey)
	assert.Equal(t, []model.GithubCommit{commit}, s.GetFavourites(repoKey))
	assert.True(t, s.IsFavourite(commit.SHA, repoKey))

	// same commit twice is a no-op
	s.AddFavourite(commit, repoKey)
	assert.Len(t, s.GetFavourites(repoKey), 1)

	// favourites are scoped per repository
	assert.Empty(t, s.GetFavourites(model.RepoKey("octocat", "repo2")))
	assert.False(t, s.IsFavourite(commit.SHA, model.RepoKey("octocat", "repo2")))

	s.RemoveFavourite("nonexistent", repoKey)
	assert.Equal(t, []model.GithubCommit{commit}, s.GetFavourites(repoKey))

	s.RemoveFavourite(commit.SHA, repoKey)
	assert.Len(t, s.GetFavourites(repoKey), 0)

	require.Len(t, notifications, 3)
	assert.Equal(t, model.FavouriteCommits{repoKey: {commit}}, notifications[0])
	assert.Equal(t, model.FavouriteCommits{repoKey: {commit}}, notifications[1])
	assert.Equal(t, model.FavouriteCommits{repoKey: {}}, notifications[2])
}

func TestFavouritesAreNotMutatedInPlace(t *testing.T) {
	commits := fakeCommits(3, 0)
	repoKey := model.RepoKey("octocat", "repo1")

	s := New(&mockAPI{})
	s.AddFavourite(commits[0], repoKey)
	s.AddFavourite(commits[1], repoKey)

	before := s.GetFavourites(repoKey)

	s.AddFavourite(commits[2], repoKey)
	assert.Len(t, before, 2)
	assert.Len(t, s.GetFavourites(repoKey), 3)

	s.RemoveFavourite(commits[0].SHA, repoKey)
	assert.Equal(t, commits[:2], before)
	assert.Equal(t, commits[1:], s.GetFavourites(repoKey))
}

func TestGetFavouritesIsACopy(t *testing.T) {
	var notifications int

	repoKey := model.RepoKey("octocat", "repo1")
	s := New(&mockAPI{}, WithFavouritesObserver(FavouritesObserverFunc(func(_ model.FavouriteCommits) {
		notifications++
	})))
	s.AddFavourite(fakeCommits(1, 0)[0], repoKey)

	favourites := s.GetFavourites(repoKey)
	favourites[0].SHA = "changed"

	assert.True(t, s.IsFavourite("sha0", repoKey))
	assert.False(t, s.IsFavourite("changed", repoKey))
	assert.Equal(t, 1, notifications)
}

func TestWithFavourites(t *testing.T) {
	repoKey := model.RepoKey("octocat", "repo1")
	restored := model.FavouriteCommits{repoKey: fakeCommits(2, 0)}

	s := New(&mockAPI{}, WithFavourites(restored))
	s.AddFavourite(fakeCommits(1, 5)[0], repoKey)

	assert.Len(t, s.GetFavourites(repoKey), 3)
	assert.Len(t, restored[repoKey], 2)
}

func TestStateIsACopy(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchUserRepos", mock.Anything, "octocat").Return(fakeRepos, nil).Once()

	s := New(api)
	s.LoadRepos(context.Background(), "octocat")

	state := s.State()
	state.Repos[0].Name = "changed"
	state.FavouriteCommits["octocat/repo1"] = fakeCommits(1, 0)

	assert.Equal(t, "repo1", s.State().Repos[0].Name)
	assert.Empty(t, s.State().FavouriteCommits)
}
