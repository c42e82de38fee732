package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/logger"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// AlertStream is the subscribable side of the live signal feed
type AlertStream interface {
	Subscribe() (<-chan *contracts.Alert, func())
}

// StreamHandler pushes persisted signals to websocket clients
// ⭐ SSOT: 실시간 시그널 전송은 이 핸들러에서만
type StreamHandler struct {
	feed     AlertStream
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new websocket stream handler
func NewStreamHandler(feed AlertStream, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || AllowedOrigin(origin)
			},
		},
		logger: log,
	}
}

// Alerts streams each persisted signal as one JSON message until the
// client disconnects
// GET /ws/alerts
func (h *StreamHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	alerts, cancel := h.feed.Subscribe()
	defer cancel()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Alert stream subscriber connected")

	// Read pump: drains control frames and surfaces the client close
	done := make(chan struct{})
	go func() {
		defer close(done)
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
	}()

	pinger := time.NewTicker(pingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Alert stream subscriber disconnected")
			return
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(alert); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed, dropping subscriber")
				return
			}
		}
	}
}

// AllowedOrigin reports whether a browser origin may call this API.
// Shared by the CORS middleware and the websocket origin check.
func AllowedOrigin(origin string) bool {
	switch origin {
	case "http://localhost:3000", "http://127.0.0.1:3000", "https://breakout-uscom.vercel.app":
		return true
	}
	return strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".vercel.app")
}
