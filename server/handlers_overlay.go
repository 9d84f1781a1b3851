package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/stream-avatars/backend/overlay"
	"github.com/onnwee/stream-avatars/backend/telemetry"
)

const (
	sseHeartbeat = 15 * time.Second

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
)

// newUpgrader accepts WebSocket origins the CORS policy accepts.
func newUpgrader(origins originPolicy) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins.allows(origin)
		},
	}
}

// HandleOverlayState returns the current overlay snapshot as JSON.
func (h *Handlers) HandleOverlayState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := h.stage.Snapshot(r.Context())
	if err != nil {
		stageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleOverlayStream pushes overlay events using Server-Sent Events. The
// first event is always a full snapshot.
func (h *Handlers) HandleOverlayStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "overlay_sse"))

	sub := h.stage.Subscribe()
	defer h.stage.Unsubscribe(sub)
	snap, err := h.stage.Snapshot(ctx)
	if err != nil {
		stageError(w, err)
		return
	}

	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	enc := json.NewEncoder(w)
	if err := writeSSE(w, enc, overlay.Event{Type: overlay.EventSnapshot, Snapshot: &snap}); err != nil {
		log.Warn("failed to write SSE event", slog.Any("err", err))
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, enc, ev); err != nil {
				log.Debug("SSE client gone", slog.Any("err", err))
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, enc *json.Encoder, ev overlay.Event) error {
	if _, err := io.WriteString(w, "data: "); err != nil {
		return err
	}
	if err := enc.Encode(ev); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// HandleOverlayWS streams the same events as HandleOverlayStream over a
// WebSocket. Messages from the client are read only to detect disconnects.
func (h *Handlers) HandleOverlayWS(w http.ResponseWriter, r *http.Request) {
	log := telemetry.LoggerWithCorr(r.Context()).With(slog.String("component", "overlay_ws"))
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	sub := h.stage.Subscribe()
	defer h.stage.Unsubscribe(sub)
	snap, err := h.stage.Snapshot(r.Context())
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("websocket read failed", slog.Any("err", err))
				}
				return
			}
		}
	}()

	send := func(ev overlay.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}
	if err := send(overlay.Event{Type: overlay.EventSnapshot, Snapshot: &snap}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-h.ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := send(ev); err != nil {
				log.Debug("websocket write failed", slog.Any("err", err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleAvatarsDispatcher routes /overlay/avatars/{id}/... requests.
func (h *Handlers) HandleAvatarsDispatcher(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/overlay/avatars/")
	id, tail, _ := strings.Cut(path, "/")
	switch {
	case id == "":
		http.NotFound(w, r)
	case tail == "click":
		h.handleAvatarClick(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handlers) handleAvatarClick(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.stage.Click(r.Context(), id); err != nil {
		stageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDemoToggle flips demo playback.
func (h *Handlers) HandleDemoToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	on, err := h.stage.ToggleDemo(r.Context())
	if err != nil {
		stageError(w, err)
		return
	}
	telemetry.LoggerWithCorr(r.Context()).Info("demo toggled", slog.Bool("demo", on), slog.String("component", "http"))
	writeJSON(w, http.StatusOK, map[string]bool{"demo": on})
}

// stageError maps stage errors onto HTTP responses.
func stageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, overlay.ErrUnknownAvatar):
		http.Error(w, "avatar not found", http.StatusNotFound)
	case errors.Is(err, overlay.ErrStopped):
		http.Error(w, "overlay unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
