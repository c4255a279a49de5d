package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/numeneon-social/backend/internal/middleware"
	"github.com/numeneon-social/backend/internal/realtime"
	"github.com/numeneon-social/backend/pkg/logger"
)

const (
	// closeUnauthenticated is the close code sent when the handshake
	// carries no valid credential.
	closeUnauthenticated = 4001

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

// WSHandler upgrades notification WebSocket connections and keeps each
// one subscribed to its user's broadcast group for the connection's
// lifetime.
type WSHandler struct {
	bus       realtime.Bus
	jwtSecret string
	upgrader  websocket.Upgrader
	log       *logrus.Entry
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(bus realtime.Bus, jwtSecret string) *WSHandler {
	return &WSHandler{
		bus:       bus,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser WebSocket clients cannot set arbitrary headers, so
			// auth happens via query param after the upgrade; origin
			// checking is delegated to the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.Log.WithField("component", "ws_handler"),
	}
}

// RegisterWSRoutes registers the WebSocket endpoint
func (h *WSHandler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws/notifications", h.Connect)
}

// Connect upgrades the connection, authenticates it, and joins the
// user's group. An unauthenticated connection is closed with 4001.
func (h *WSHandler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	token := c.QueryParam("token")
	if token == "" {
		// Fall back to a bearer header for non-browser clients.
		authHeader := c.Request().Header.Get("Authorization")
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}

	claims, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		msg := websocket.FormatCloseMessage(closeUnauthenticated, "unauthenticated")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return nil
	}

	group := realtime.UserGroup(claims.UserID)
	sub, err := h.bus.Join(group)
	if err != nil {
		_ = conn.Close()
		return nil
	}
	h.log.WithFields(logrus.Fields{"user_id": claims.UserID, "group": group}).Info("websocket connected")

	welcome, _ := json.Marshal(map[string]any{
		"type":    "connection_established",
		"message": fmt.Sprintf("Connected as %s", claims.Username),
		"user_id": claims.UserID,
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		h.bus.Leave(group, sub)
		_ = conn.Close()
		return nil
	}

	go h.writePump(conn, sub)
	h.readPump(conn)

	h.bus.Leave(group, sub)
	_ = conn.Close()
	h.log.WithField("user_id", claims.UserID).Info("websocket disconnected")
	return nil
}

// writePump forwards group frames to the connection and keeps it alive
// with pings. It exits when the subscriber is detached or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-sub.Frames():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// readPump drains inbound frames until the peer disconnects. No
// client-to-server protocol exists beyond keep-alive.
func (h *WSHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
