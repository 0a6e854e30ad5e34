package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Scalingo/sclng-commit-explorer/config"
	"github.com/Scalingo/sclng-commit-explorer/controller"
	"github.com/Scalingo/sclng-commit-explorer/logger"
	"github.com/Scalingo/sclng-commit-explorer/persistence"
	"github.com/Scalingo/sclng-commit-explorer/service"
	"github.com/Scalingo/sclng-commit-explorer/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// used when github rate limits can't be loaded at startup
const unauthenticatedRateLimit = 60

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("unable to load configuration")
	}

	// configure logger
	logger.Setup(cfg.Logs)

	// setup github client
	// we do here and pass the client to Github service to easily improve tests with mock client
	githubClient := github.NewClient(nil)

	if cfg.Github.Token != "" {
		log.Debug("will setup github client with authorization token")
		githubClient = githubClient.WithAuthToken(cfg.Github.Token)
	}

	rateLimiter := setupRateLimiter(githubClient)

	// restore favourites saved by a previous run
	storage, err := persistence.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Storage.Backend).Fatal("unable to open favourites storage")
	}

	adapter := persistence.NewAdapter(storage)

	// setup handlers and services
	githubService := service.NewGithubService(*cfg, githubClient, rateLimiter)
	githubStore := store.New(
		githubService,
		store.WithCommitsPerPage(cfg.Github.CommitsPerPage),
		store.WithFavourites(adapter.Restore()),
		store.WithFavouritesObserver(adapter),
	)
	apiController := controller.NewAPIController(*cfg, githubStore, githubService)

	// setup server and define all routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &http.Server{
		Addr:    ":" + cfg.API.ListenPort,
		Handler: router,
	}

	router.Use(
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "DELETE"},
			AllowHeaders: []string{"Content-Type, Content-Length, Accept-Encoding, Host, accept, Origin, Cache-Control, X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}),
	)

	controller.RegisterRoutes(router, apiController)

	// start with configuration
	go func() {
		log.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
		}
	}()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// favourites are written on each change, closing only release the storage
	if err := storage.Close(); err != nil {
		log.WithError(err).Error("unable to close favourites storage")
	}

	log.Info("Application stopped gracefully !")
}

// setupRateLimiter create a local rate limiter matching the current github rate limits
// consume X tokens according to the number of remaining tokens
// this help us to have a right rate limiter even if external requests are made
func setupRateLimiter(githubClient *github.Client) *rate.Limiter {
	log.Debug("loading current rate limit from github")

	rateLimits, _, err := githubClient.RateLimit.Get(context.Background())
	if err != nil || rateLimits.GetCore() == nil {
		log.WithError(err).Warning("unable to load current github rate limits. using unauthenticated limits")
		return rate.NewLimiter(rate.Every(time.Hour/unauthenticatedRateLimit), unauthenticatedRateLimit)
	}

	core := rateLimits.GetCore()

	log.WithFields(log.Fields{
		"totalAvailable":    core.Limit,
		"remainingRequests": core.Remaining,
	}).Debug("will setup local rate limiter with rate limits infos from github")

	rateLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(max(core.Limit, 1))), core.Limit)
	rateLimiter.ReserveN(time.Now(), core.Limit-core.Remaining)

	return rateLimiter
}
