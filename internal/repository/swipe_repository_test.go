package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Match{}, &db.Channel{}, &db.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// first decision lands
	err := repo.Create(ctx, 1, 2, false)
	require.NoError(t, err)

	// second attempt on the same pair is rejected, not overwritten
	err = repo.Create(ctx, 1, 2, true)
	assert.ErrorIs(t, err, apperr.ErrAlreadyDecided)

	swipe, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, swipe.Liked)
}

func TestCreateReverseDirectionIsSeparate(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	require.NoError(t, repo.Create(ctx, 1, 2, true))
	require.NoError(t, repo.Create(ctx, 2, 1, true))

	var count int64
	require.NoError(t, dbase.Model(&db.Swipe{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	require.NoError(t, repo.Create(ctx, 1, 2, true))
	require.NoError(t, repo.Create(ctx, 1, 3, false))

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	// a pass is not a like
	liked, err = repo.HasLiked(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, liked)

	// never decided
	liked, err = repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestGetLikersExcludesPassed(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// actors 1,2 liked recipient 99
	require.NoError(t, repo.Create(ctx, 1, 99, true))
	require.NoError(t, repo.Create(ctx, 2, 99, true))
	// recipient passed actor 2 → exclude
	require.NoError(t, repo.Create(ctx, 99, 2, false))

	swipes, _, err := repo.GetLikers(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, swipes, 1)
	assert.Equal(t, uint64(1), swipes[0].ActorID)
}

func TestGetLikersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// distinct timestamps so the cursor ordering is unambiguous
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	for i := uint64(1); i <= 5; i++ {
		swipe := db.Swipe{
			ActorID:     i,
			RecipientID: 99,
			Liked:       true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, dbase.Create(&swipe).Error)
	}

	first, token, err := repo.GetLikers(ctx, 99, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, token)
	assert.Equal(t, uint64(5), first[0].ActorID)
	assert.Equal(t, uint64(4), first[1].ActorID)

	second, _, err := repo.GetLikers(ctx, 99, token, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, uint64(3), second[0].ActorID)
	assert.Equal(t, uint64(2), second[1].ActorID)
}

func TestGetNewLikersExcludesMutualAndPassed(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// actors 1,2,3 liked recipient 99
	require.NoError(t, repo.Create(ctx, 1, 99, true))
	require.NoError(t, repo.Create(ctx, 2, 99, true))
	require.NoError(t, repo.Create(ctx, 3, 99, true))
	// recipient liked actor 1 back → mutual, excluded
	require.NoError(t, repo.Create(ctx, 99, 1, true))
	// recipient passed actor 3 → excluded
	require.NoError(t, repo.Create(ctx, 99, 3, false))

	swipes, _, err := repo.GetNewLikers(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, swipes, 1)
	assert.Equal(t, uint64(2), swipes[0].ActorID)
}

func TestCountLikers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	require.NoError(t, repo.Create(ctx, 1, 99, true))
	require.NoError(t, repo.Create(ctx, 2, 99, true))
	require.NoError(t, repo.Create(ctx, 3, 99, false))
	require.NoError(t, repo.Create(ctx, 99, 2, false)) // passed → excluded

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
