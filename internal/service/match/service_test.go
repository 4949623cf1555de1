package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/cache"
	"github.com/emberdate/ember-backend/internal/config"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/service/match"
	"github.com/emberdate/ember-backend/internal/ws"
)

func setupService(t *testing.T) (*match.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Match{}, &db.Channel{}, &db.Message{}))

	users := []db.User{
		{ID: 1, Username: "alice", Email: "alice@test.com", PasswordHash: "x", DisplayName: "Alice", Age: 25, Gender: "female", Active: true},
		{ID: 2, Username: "bob", Email: "bob@test.com", PasswordHash: "x", DisplayName: "Bob", Age: 26, Gender: "male", Active: true},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger, ws.NewHub())
	return match.NewService(appCtx), dbase
}

// TestCreateMatchIdempotent checks that repeat calls in either argument
// order converge on one match with one channel.
func TestCreateMatchIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	first, err := svc.CreateMatch(ctx, 1, 2)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.CreateMatch(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var matches, channels int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&matches).Error)
	require.NoError(t, dbase.Model(&db.Channel{}).Count(&channels).Error)
	assert.Equal(t, int64(1), matches)
	assert.Equal(t, int64(1), channels)
}

// TestCreateMatchConcurrent races both users resolving the mutual like at
// the same instant; every caller must get the identical match id.
func TestCreateMatchConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, dbase := setupService(t)

	const callers = 6
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			a, b := uint64(1), uint64(2)
			if n%2 == 1 {
				a, b = b, a
			}
			ids[n], errs[n] = svc.CreateMatch(ctx, a, b)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateMatchSelf(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.CreateMatch(ctx, 1, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestListMatchesUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.ListMatches(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListMatchesHydratesOtherUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	id, err := svc.CreateMatch(ctx, 2, 1)
	require.NoError(t, err)

	summaries, err := svc.ListMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].MatchID)
	assert.Equal(t, uint64(1), summaries[0].OtherUserID)
	assert.Equal(t, "Alice", summaries[0].DisplayName)
}
