package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campushub/campushub-core/internal/alerts"
	"github.com/campushub/campushub-core/internal/api/respond"
)

const writeTimeout = 5 * time.Second

// alertFrame is the wire shape of one delivered alert.
type alertFrame struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// socketSink delivers alerts to one websocket connection. Fire-and-forget:
// a failed write is logged and dropped, the read loop notices the dead
// connection and tears the session down.
type socketSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger interface{ Warn(string, ...any) }
}

func (s *socketSink) Display(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(alertFrame{Message: message, At: time.Now().UTC()}); err != nil {
		s.logger.Warn("Alert write failed", "error", err)
	}
}

// StreamAlerts upgrades the connection and runs one alert pipeline for the
// authenticated session: catch-up, live feed, dedup and throttling all
// scoped to this client. The pipeline is torn down when the socket closes.
func (h *Handler) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket dials; accept the token as
	// a query param as well.
	header := r.Header.Get("Authorization")
	if header == "" {
		header = r.URL.Query().Get("token")
	}
	identity, err := h.verifier.ParseIdentity(header)
	if err != nil {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Valid bearer token required")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // CORS enforced upstream
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sink := &socketSink{conn: conn, logger: h.logger}
	pipeline := alerts.StartPipeline(r.Context(), h.store, h.dir, identity, sink, alerts.PipelineConfig{
		DeliverySpacing: h.cfg.AlertDeliverySpacing,
		DedupTTL:        h.cfg.AlertDedupTTL,
		SweepInterval:   h.cfg.AlertSweepInterval,
	}, h.logger)
	remove := h.sessions.Add(pipeline)
	defer func() {
		remove()
		pipeline.Stop()
		h.logger.Info("Alert session closed", "user", identity.UserID)
	}()

	h.logger.Info("Alert session opened", "user", identity.UserID, "role", identity.Role)

	// Hold the session open until the client goes away. Inbound frames
	// are not part of the protocol.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
