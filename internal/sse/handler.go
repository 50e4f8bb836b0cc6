package sse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	// reconnectDelay is the retry hint sent to browsers on connect.
	reconnectDelay = 3 * time.Second
	writeTimeout   = time.Minute
)

// Subscriber identifies who an SSE stream belongs to.
type Subscriber struct {
	UserID    string
	SessionID string
	IsAdmin   bool
}

// Handler streams events at GET /api/v1/events. Authentication happens in
// the API layer, which passes the resolved Subscriber to Stream.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{manager: manager, logger: logger}
}

// Stream holds the connection open and writes events for sub until the
// client goes away or the manager closes it. Heartbeats are written as SSE
// comments so EventSource listeners never see them.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, sub Subscriber) {
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	client, err := h.manager.Connect(sub.UserID, sub.SessionID, sub.IsAdmin)
	if err != nil {
		h.logger.Error("failed to register SSE client", "error", err, "user_id", sub.UserID)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	fw := &frameWriter{w: w, rc: http.NewResponseController(w), logger: h.logger}
	log := h.logger.With("client_id", client.ID, "session_id", sub.SessionID)

	if err := fw.retry(reconnectDelay); err != nil {
		return
	}
	if err := fw.event(EventConnected, map[string]string{"client_id": client.ID}); err != nil {
		log.Warn("failed to send connected frame", "error", err)
		return
	}

	for {
		select {
		case ev, ok := <-client.EventChan:
			if !ok {
				return
			}
			if ev.Type == EventHeartbeat {
				err = fw.comment("heartbeat")
			} else {
				err = fw.event(ev.Type, ev.Data)
			}
			if err != nil {
				log.Info("client went away during send", "error", err)
				return
			}

		case <-client.Done:
			log.Debug("client closed by manager")
			return

		case <-ctx.Done():
			log.Debug("client context canceled")
			return
		}
	}
}

// frameWriter writes SSE frames and flushes each one. Event frames carry an
// increasing id.
type frameWriter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *slog.Logger
	seq    uint64
}

func (f *frameWriter) event(t EventType, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", t, err)
	}
	f.seq++
	return f.write("id: " + strconv.FormatUint(f.seq, 10) + "\nevent: " + string(t) + "\ndata: " + string(payload) + "\n\n")
}

func (f *frameWriter) comment(text string) error {
	return f.write(": " + text + "\n\n")
}

func (f *frameWriter) retry(d time.Duration) error {
	return f.write("retry: " + strconv.FormatInt(d.Milliseconds(), 10) + "\n\n")
}

func (f *frameWriter) write(frame string) error {
	if err := f.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		f.logger.Debug("failed to set write deadline", "error", err)
	}
	if _, err := fmt.Fprint(f.w, frame); err != nil {
		return err
	}
	return f.rc.Flush()
}
