package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duelarena/internal/domain"
	"duelarena/internal/logger"
	"duelarena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatches struct {
	matches  []*domain.Match
	err      error
	gotGame  string
	gotLimit int
}

func (f *fakeMatches) GetRecent(_ context.Context, gameType string, limit int) ([]*domain.Match, error) {
	f.gotGame, f.gotLimit = gameType, limit
	return f.matches, f.err
}

func (f *fakeMatches) CountByGame(context.Context) (map[string]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := make(map[string]int64)
	for _, m := range f.matches {
		counts[m.GameType]++
	}
	return counts, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newHub() *ws.Hub {
	return ws.NewHub(ws.Options{
		Synchronous: true,
		Logger:      logger.Discard(),
	})
}

func setup(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/api/games", h.ListGames)
	r.GET("/api/rooms/:code", h.GetRoom)
	r.GET("/api/matches", h.RecentMatches)
	r.GET("/api/matches/stats", h.MatchStats)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestListGames(t *testing.T) {
	r := setup(&Handler{Hub: newHub()})

	code, body := get(t, r, "/api/games")

	require.Equal(t, http.StatusOK, code)
	games, ok := body["games"].([]any)
	require.True(t, ok)
	assert.Len(t, games, 15)
	assert.Contains(t, games, "connect4")
	assert.Contains(t, games, "snakeclash")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		wantCode int
		wantDB   string
	}{
		{"no database", nil, http.StatusOK, "disabled"},
		{"database ok", fakePinger{}, http.StatusOK, "ok"},
		{"database down", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setup(&Handler{Hub: newHub(), DB: tt.db, Version: "test"})

			code, body := get(t, r, "/healthz")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantDB, body["db"])
			assert.Equal(t, "test", body["version"])
			assert.Equal(t, 0.0, body["rooms"])
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	r := setup(&Handler{Hub: newHub()})

	code, body := get(t, r, "/api/rooms/ZZZZ")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "room not found", body["error"])
}

func TestRecentMatches(t *testing.T) {
	store := &fakeMatches{matches: []*domain.Match{
		{ID: 2, GameType: "pong", Player1: "ann", Player2: "bob", Winner: 2, FinishedAt: time.Now()},
	}}
	r := setup(&Handler{Hub: newHub(), Matches: store})

	code, body := get(t, r, "/api/matches?game=pong&limit=500")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", store.gotGame)
	assert.Equal(t, maxMatchLimit, store.gotLimit)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, "bob", matches[0].(map[string]any)["winner_name"])
}

func TestRecentMatches_BadInput(t *testing.T) {
	r := setup(&Handler{Hub: newHub(), Matches: &fakeMatches{}})

	code, _ := get(t, r, "/api/matches?limit=-1")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := get(t, r, "/api/matches?game=chess")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown game type", body["error"])
}

func TestRecentMatches_Disabled(t *testing.T) {
	r := setup(&Handler{Hub: newHub()})

	code, _ := get(t, r, "/api/matches")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = get(t, r, "/api/matches/stats")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMatchStats(t *testing.T) {
	store := &fakeMatches{matches: []*domain.Match{
		{GameType: "pong"}, {GameType: "pong"}, {GameType: "hex"},
	}}
	r := setup(&Handler{Hub: newHub(), Matches: store})

	code, body := get(t, r, "/api/matches/stats")

	require.Equal(t, http.StatusOK, code)
	played := body["played"].(map[string]any)
	assert.Equal(t, 2.0, played["pong"])
	assert.Equal(t, 1.0, played["hex"])
}
