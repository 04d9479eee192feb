package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aashmango/llama-fun/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service sits behind the producer's own infrastructure; origin
	// checks are left to the deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ingestAck is the per-frame reply on the ingest stream
type ingestAck struct {
	UtteranceID int64     `json:"utterance_id"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
}

// handleIngest implements GET /sessions/{id}/ingest: upgrades to a WebSocket
// and ingests one utterance per JSON frame, replying with the assigned
// utterance id. A missing frame timestamp defaults to the arrival time.
func (h *HTTPServer) handleIngest(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	h.logger.Info("Ingest stream opened",
		slog.String("session_id", sess.ID),
		slog.String("remote_addr", r.RemoteAddr),
	)

	for {
		var frame utteranceRequest
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Ingest stream closed unexpectedly",
					slog.String("session_id", sess.ID),
					slog.String("error", err.Error()),
				)
			} else {
				h.logger.Info("Ingest stream closed",
					slog.String("session_id", sess.ID),
				)
			}
			return
		}

		if frame.Timestamp.IsZero() {
			frame.Timestamp = time.Now()
		}

		utterance, err := sess.Ingest(r.Context(), frame.Text, frame.Timestamp)
		if err != nil {
			if writeErr := conn.WriteJSON(ingestAck{
				UtteranceID: -1,
				Timestamp:   frame.Timestamp,
				Error:       err.Error(),
			}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(ingestAck{
			UtteranceID: utterance.ID,
			Timestamp:   utterance.Timestamp,
		}); err != nil {
			h.logger.Warn("Failed to write ingest ack",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
			return
		}
	}
}
