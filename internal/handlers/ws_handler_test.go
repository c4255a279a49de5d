package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numeneon-social/backend/internal/realtime"
)

func newWSTestServer(t *testing.T, bus realtime.Bus) *httptest.Server {
	t.Helper()
	e := echo.New()
	NewWSHandler(bus, testJWTSecret).RegisterWSRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications" + query
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestWebSocketConnectAndReceive(t *testing.T) {
	bus := realtime.NewHub()
	defer bus.Close()
	srv := newWSTestServer(t, bus)
	token := signedToken(t, 7, "ana")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readFrame(t, conn)
	assert.Equal(t, "connection_established", welcome["type"])
	assert.Equal(t, float64(7), welcome["user_id"])
	assert.Equal(t, "Connected as ana", welcome["message"])

	// The welcome frame is written after the group join, so the
	// subscription is live by the time it is read.
	frame, _ := json.Marshal(map[string]any{"type": "friend_request", "data": map[string]any{"request_id": 1}})
	require.NoError(t, bus.Send(context.Background(), realtime.UserGroup(7), frame))

	got := readFrame(t, conn)
	assert.Equal(t, "friend_request", got["type"])
}

func TestWebSocketBearerHeaderAuth(t *testing.T) {
	bus := realtime.NewHub()
	defer bus.Close()
	srv := newWSTestServer(t, bus)
	token := signedToken(t, 3, "cho")

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readFrame(t, conn)
	assert.Equal(t, "connection_established", welcome["type"])
	assert.Equal(t, float64(3), welcome["user_id"])
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	bus := realtime.NewHub()
	defer bus.Close()
	srv := newWSTestServer(t, bus)

	for _, query := range []string{"", "?token=not-a-token"} {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, query), nil)
		require.NoError(t, err, "upgrade happens before auth")

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, 4001, closeErr.Code)
		assert.Equal(t, "unauthenticated", closeErr.Text)
		conn.Close()
	}
}

func TestWebSocketGroupIsolation(t *testing.T) {
	bus := realtime.NewHub()
	defer bus.Close()
	srv := newWSTestServer(t, bus)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+signedToken(t, 1, "ana")), nil)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn) // welcome

	frame, _ := json.Marshal(map[string]any{"type": "friend_request"})
	require.NoError(t, bus.Send(context.Background(), realtime.UserGroup(2), frame))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "no frame should arrive for another user's group")
}
