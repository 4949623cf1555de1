package main

import (
	"context"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/cache"
	"github.com/emberdate/ember-backend/internal/config"
	"github.com/emberdate/ember-backend/internal/db"
	"github.com/emberdate/ember-backend/internal/handlers"
	"github.com/emberdate/ember-backend/internal/logger"
	"github.com/emberdate/ember-backend/internal/server"
	"github.com/emberdate/ember-backend/internal/service/chat"
	"github.com/emberdate/ember-backend/internal/service/discovery"
	"github.com/emberdate/ember-backend/internal/service/match"
	"github.com/emberdate/ember-backend/internal/ws"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject shared dependencies into app context
	hub := ws.NewHub()
	appCtx := app.New(database, redisCache, log, hub)

	matchSvc := match.NewService(appCtx)
	discoverySvc := discovery.NewService(appCtx, matchSvc)
	chatSvc := chat.NewService(appCtx)

	registrars := []server.Registrar{
		handlers.NewProfileHandler(appCtx),
		handlers.NewDiscoveryHandler(appCtx, discoverySvc),
		handlers.NewChatHandler(appCtx, chatSvc, matchSvc),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
