package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/cache"
	"github.com/emberdate/ember-backend/internal/ws"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Hub, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Hub        *ws.Hub
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, hub *ws.Hub) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Hub:        hub,
	}
}
