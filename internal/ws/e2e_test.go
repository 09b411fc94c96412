package ws_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"duelarena/internal/logger"
	"duelarena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireFrame struct {
	Type   string          `json:"type"`
	Code   string          `json:"code"`
	Winner int             `json:"winner"`
	State  json.RawMessage `json:"state"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readUntil читает кадры, пока не встретит typ
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", typ)
		var f wireFrame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == typ {
			return f
		}
	}
}

func TestEndToEnd_Connect4VerticalWin(t *testing.T) {
	hub := ws.NewHub(ws.Options{
		Logger:        logger.Discard(),
		CountdownTick: 10 * time.Millisecond,
	})
	defer hub.Stop()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", ws.Handler(hub, "", logger.Discard()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	c1, c2 := dial(t, url), dial(t, url)

	write(t, c1, map[string]any{"type": "create", "gameType": "connect4", "name": "ann"})
	created := readUntil(t, c1, "created")
	require.Len(t, created.Code, 4)

	write(t, c2, map[string]any{"type": "join", "code": created.Code, "name": "bob"})
	readUntil(t, c2, "joined")

	start1, start2 := readUntil(t, c1, "game_start"), readUntil(t, c2, "game_start")
	assert.JSONEq(t, string(start1.State), string(start2.State))

	// каждый ход ждет подтверждения обоими, чтобы очередность мест не зависела от сети
	move := func(conn *websocket.Conn, col int) {
		write(t, conn, map[string]any{"type": "drop", "col": col})
	}
	for i := 0; i < 3; i++ {
		move(c1, 3)
		readUntil(t, c1, "state")
		readUntil(t, c2, "state")
		move(c2, 4)
		readUntil(t, c1, "state")
		readUntil(t, c2, "state")
	}
	move(c1, 3)

	over1, over2 := readUntil(t, c1, "gameover"), readUntil(t, c2, "gameover")
	assert.Equal(t, 1, over1.Winner)
	assert.Equal(t, 1, over2.Winner)

	// после gameover ходы больше не меняют состояние
	move(c2, 4)
	require.NoError(t, c1.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := c1.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	info, ok := hub.RoomInfo(created.Code)
	require.True(t, ok)
	assert.Equal(t, 1, info.Winner)
}
