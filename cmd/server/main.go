package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sujalbistaa/shadowspace/internal/config"
	"github.com/sujalbistaa/shadowspace/internal/db"
	"github.com/sujalbistaa/shadowspace/internal/feed"
	routes "github.com/sujalbistaa/shadowspace/internal/http"
	"github.com/sujalbistaa/shadowspace/internal/identity"
	applog "github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/models"
	"github.com/sujalbistaa/shadowspace/internal/post"
	"github.com/sujalbistaa/shadowspace/internal/stream"
	"github.com/sujalbistaa/shadowspace/internal/vote"
	"github.com/sujalbistaa/shadowspace/internal/ws"
)

const feedCacheTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Init(applog.Config{})
		applog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	applog.Init(applog.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})
	logg := applog.WithComponent("server")

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize database")
	}

	logg.Info().Msg("running database migrations")
	if err := database.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{}); err != nil {
		logg.Fatal().Err(err).Msg("failed to run migrations")
	}

	broker := stream.NewBroker()
	broker.Start()
	defer broker.Stop()

	hub := ws.NewHub()
	go hub.Run()
	feedSub := broker.Subscribe()
	defer feedSub.Cancel()
	go hub.Relay(feedSub)

	posts := post.NewService(database)
	env := &routes.Env{
		Identity: identity.NewService(database, cfg.JWTSecret),
		Posts:    posts,
		Ledger:   vote.NewLedger(database),
		Broker:   broker,
		Feed:     posts,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache := feed.NewCache(posts, rdb, feedCacheTTL)
		env.Feed = cache
		env.Cache = cache
		logg.Info().Str("addr", cfg.RedisAddr).Msg("feed cache enabled")
	}

	router := gin.New()
	stopJanitor := routes.SetupRoutes(router, env, hub, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		AdminToken: cfg.AdminToken,
	})
	defer stopJanitor()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logg.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-quit
	logg.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logg.Info().Msg("server exiting")
}
