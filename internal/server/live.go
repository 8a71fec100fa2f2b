package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
)

func isUpgrade(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

// wsSender serializes writes to one connection; its two watches may push
// concurrently.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (ws *wsSender) Send(msg notify.Message) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.conn.WriteJSON(msg)
}

// handleLive upgrades to a WebSocket and keeps the connection's watches
// alive until the peer goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logger := s.log.With().Str("conn", id).Logger()

	handle, err := s.deps.Notifier.Attach(&wsSender{conn: conn})
	if err != nil {
		logger.Error().Err(err).Msg("attach watches")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "watch failed"),
			time.Now().Add(time.Second))
		return
	}
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Warn().Err(err).Msg("release watches")
		}
		logger.Info().Msg("dashboard client disconnected")
	}()
	logger.Info().Int("watches", handle.Watching()).Msg("dashboard client connected")

	readUntilClosed(conn, logger)
}

// readUntilClosed drains client frames until the connection fails or the
// peer closes it. Clients are not expected to send anything.
func readUntilClosed(conn *websocket.Conn, logger zerolog.Logger) {
	conn.SetReadLimit(4096)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Debug().Err(err).Msg("live connection closed")
			}
			return
		}
	}
}
