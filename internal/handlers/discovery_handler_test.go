package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/cache"
	"github.com/emberdate/ember-backend/internal/config"
	"github.com/emberdate/ember-backend/internal/db"
	"github.com/emberdate/ember-backend/internal/handlers"
	"github.com/emberdate/ember-backend/internal/server"
	"github.com/emberdate/ember-backend/internal/service/chat"
	"github.com/emberdate/ember-backend/internal/service/discovery"
	"github.com/emberdate/ember-backend/internal/service/match"
	"github.com/emberdate/ember-backend/internal/ws"
)

// setupRouter wires the full handler stack against an in-memory DB and a
// fake Redis, mirroring cmd/server's wiring.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Match{}, &db.Channel{}, &db.Message{}))

	users := []db.User{
		{ID: 1, Username: "alice", Email: "alice@test.com", PasswordHash: "x", DisplayName: "Alice", Age: 25, Gender: "female", Active: true},
		{ID: 2, Username: "bob", Email: "bob@test.com", PasswordHash: "x", DisplayName: "Bob", Age: 26, Gender: "male", GoldMember: true, Active: true},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.App.ENV = "test"
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger, ws.NewHub())

	matchSvc := match.NewService(appCtx)
	discoverySvc := discovery.NewService(appCtx, matchSvc)
	chatSvc := chat.NewService(appCtx)

	return server.NewRouter(cfg,
		handlers.NewProfileHandler(appCtx),
		handlers.NewDiscoveryHandler(appCtx, discoverySvc),
		handlers.NewChatHandler(appCtx, chatSvc, matchSvc),
	)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSwipeEndpointMutualMatch(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 1, "recipient_id": 2, "liked": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matched":false`)

	w = doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 2, "recipient_id": 1, "liked": true})
	require.Equal(t, http.StatusOK, w.Code)

	var outcome struct {
		Matched bool   `json:"matched"`
		MatchID string `json:"match_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.True(t, outcome.Matched)
	assert.NotEmpty(t, outcome.MatchID)

	// message round trip through the chat endpoints
	w = doJSON(t, r, http.MethodPost, "/matches/"+outcome.MatchID+"/messages", gin.H{"sender_id": 1, "text": "hi!"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/matches/"+outcome.MatchID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hi!"`)
}

func TestSwipeEndpointErrors(t *testing.T) {
	r := setupRouter(t)

	// self-swipe
	w := doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 1, "recipient_id": 1, "liked": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown recipient
	w = doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 1, "recipient_id": 999, "liked": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// duplicate decision
	w = doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 1, "recipient_id": 2, "liked": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/swipes", gin.H{"actor_id": 1, "recipient_id": 2, "liked": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLikedYouGoldGate(t *testing.T) {
	r := setupRouter(t)

	// alice is not gold
	w := doJSON(t, r, http.MethodGet, "/users/1/likes/count", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// bob is gold
	w = doJSON(t, r, http.MethodGet, "/users/2/likes/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	// the new-likers listing sits behind the same gate
	w = doJSON(t, r, http.MethodGet, "/users/1/likes/new", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, r, http.MethodGet, "/users/2/likes/new", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCandidatesEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/users/1/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)
	assert.NotContains(t, w.Body.String(), `"username":"alice"`)

	w = doJSON(t, r, http.MethodGet, "/users/999/candidates", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
