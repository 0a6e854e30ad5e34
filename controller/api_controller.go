package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Scalingo/sclng-commit-explorer/config"
	"github.com/Scalingo/sclng-commit-explorer/model"
	"github.com/Scalingo/sclng-commit-explorer/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CommitsDetailsFetcher load several commits details at once, without touching the store status
type CommitsDetailsFetcher interface {
	FetchCommitsDetails(ctx context.Context, username string, repository string, shas []string) ([]model.GithubCommitDetails, error)
}

type APIController interface {
	GetState(ctx *gin.Context)
	GetRepositories(ctx *gin.Context)
	GetCommits(ctx *gin.Context)
	GetCommitDetails(ctx *gin.Context)
	GetFavourites(ctx *gin.Context)
	GetFavouritesDetails(ctx *gin.Context)
	AddFavourite(ctx *gin.Context)
	RemoveFavourite(ctx *gin.Context)
}

type apiController struct {
	store   *store.Store
	fetcher CommitsDetailsFetcher
	config  config.Config
}

func NewAPIController(config config.Config, store *store.Store, fetcher CommitsDetailsFetcher) APIController {
	return apiController{
		store:   store,
		fetcher: fetcher,
		config:  config,
	}
}

// CommitsPage is the answer of the commits endpoint
type CommitsPage struct {
	Commits        []model.GithubCommit `json:"commits"`
	CommitsPage    int                  `json:"commitsPage"`
	CommitsPerPage int                  `json:"commitsPerPage"`
	HasMoreCommits bool                 `json:"hasMoreCommits"`
}

var errOperationInProgress = model.ResponseError{
	Code:    "OPERATION_IN_PROGRESS",
	Message: "another request is already loading data. wait for it to finish and try again",
}

var errCommitDetailsUnavailable = model.ResponseError{
	Code:    "REQUEST_FAILED",
	Message: model.MessageUnknown,
}

// the store status is global, refuse a new load while one is running
func (s apiController) rejectWhenLoading(c *gin.Context) bool {
	if s.store.Loading() {
		c.JSON(http.StatusConflict, errOperationInProgress)
		return true
	}

	return false
}

// respondError write the last error of the store, return false when there is none
func (s apiController) respondError(c *gin.Context) bool {
	message := s.store.ErrorMessage()

	if message == nil {
		return false
	}

	c.JSON(http.StatusBadGateway, model.ResponseError{
		Code:    "REQUEST_FAILED",
		Message: *message,
	})

	return true
}

func (s apiController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.State())
}

func (s apiController) GetRepositories(c *gin.Context) {
	if s.rejectWhenLoading(c) {
		return
	}

	s.store.LoadRepos(c.Request.Context(), c.Param("username"))

	if s.respondError(c) {
		return
	}

	c.JSON(http.StatusOK, s.store.State().Repos)
}

func (s apiController) GetCommits(c *gin.Context) {
	loadMore := false

	if value := c.Query("loadMore"); value != "" {
		parsed, err := strconv.ParseBool(value)

		if err != nil {
			c.JSON(http.StatusBadRequest, model.ResponseError{
				Code:    "INVALID_PARAMETER",
				Message: "loadMore must be a boolean",
			})
			return
		}

		loadMore = parsed
	}

	if s.rejectWhenLoading(c) {
		return
	}

	s.store.LoadCommits(c.Request.Context(), c.Param("username"), c.Param("repo"), loadMore)

	if s.respondError(c) {
		return
	}

	state := s.store.State()

	c.JSON(http.StatusOK, CommitsPage{
		Commits:        state.Commits,
		CommitsPage:    state.CommitsPage,
		CommitsPerPage: state.CommitsPerPage,
		HasMoreCommits: state.HasMoreCommits,
	})
}

func (s apiController) GetCommitDetails(c *gin.Context) {
	if s.rejectWhenLoading(c) {
		return
	}

	details := s.store.LoadCommitDetails(c.Request.Context(), c.Param("username"), c.Param("repo"), c.Param("sha"))

	if details == nil {
		// the shared error may already be cleared by another operation
		if !s.respondError(c) {
			c.JSON(http.StatusBadGateway, errCommitDetailsUnavailable)
		}
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s apiController) GetFavourites(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetFavourites(model.RepoKey(c.Param("username"), c.Param("repo"))))
}

// GetFavouritesDetails load the details of all favourites of a repository in parallel
func (s apiController) GetFavouritesDetails(c *gin.Context) {
	username, repo := c.Param("username"), c.Param("repo")
	favourites := s.store.GetFavourites(model.RepoKey(username, repo))

	shas := make([]string, 0, len(favourites))
	for _, f := range favourites {
		shas = append(shas, f.SHA)
	}

	details, err := s.fetcher.FetchCommitsDetails(c.Request.Context(), username, repo, shas)

	if err != nil {
		log.WithError(err).WithField("repoKey", model.RepoKey(username, repo)).Warning("unable to load favourites details")
		c.JSON(http.StatusBadGateway, model.NewResponseError(err))
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s apiController) AddFavourite(c *gin.Context) {
	var commit model.GithubCommit

	if err := c.ShouldBindJSON(&commit); err != nil || commit.SHA == "" {
		c.JSON(http.StatusBadRequest, model.ResponseError{
			Code:    "INVALID_COMMIT",
			Message: "body must be a commit with a sha",
		})
		return
	}

	repoKey := model.RepoKey(c.Param("username"), c.Param("repo"))
	s.store.AddFavourite(commit, repoKey)

	c.JSON(http.StatusOK, s.store.GetFavourites(repoKey))
}

func (s apiController) RemoveFavourite(c *gin.Context) {
	repoKey := model.RepoKey(c.Param("username"), c.Param("repo"))
	s.store.RemoveFavourite(c.Param("sha"), repoKey)

	c.JSON(http.StatusOK, s.store.GetFavourites(repoKey))
}

// RegisterRoutes define all routes handled by the controller
func RegisterRoutes(router gin.IRouter, controller APIController) {
	api := router.Group("")
	{
		api.GET("/state", controller.GetState)

		api.GET("/repos/:username", controller.GetRepositories)
		api.GET("/repos/:username/:repo/commits", controller.GetCommits)
		api.GET("/repos/:username/:repo/commits/:sha", controller.GetCommitDetails)

		api.GET("/favourites/:username/:repo", controller.GetFavourites)
		api.GET("/favourites/:username/:repo/details", controller.GetFavouritesDetails)
		api.POST("/favourites/:username/:repo", controller.AddFavourite)
		api.DELETE("/favourites/:username/:repo/:sha", controller.RemoveFavourite)
	}
}
