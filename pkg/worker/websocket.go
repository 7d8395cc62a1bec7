package worker

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler serves the worker protocol over websocket. Every connection
// gets its own worker; text frames carry Request JSON and each event is
// written back as one text frame.
type Handler struct {
	Log      *slog.Logger
	Upgrader websocket.Upgrader
	// Options are applied to every per-connection worker.
	Options []Option
}

func NewHandler(log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		Log: log,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		Options: opts,
	}
}

// conn serializes writes: events come from the worker goroutine, decode
// errors from the read loop.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) write(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	log := h.Log.With("remote", r.RemoteAddr)
	log.Info("connection opened")

	c := &conn{ws: ws}
	// The connection logger goes last so a logger among h.Options cannot
	// drop the remote address.
	opts := make([]Option, 0, len(h.Options)+1)
	opts = append(opts, h.Options...)
	opts = append(opts, WithLogger(log))
	wk := New(func(ev Event) {
		if err := c.write(ev); err != nil {
			log.Debug("event dropped", "type", ev.Type, "err", err)
		}
	}, opts...)

	defer func() {
		wk.Close()
		ws.Close()
		log.Info("connection closed")
	}()

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := wk.PostJSON(data); err != nil {
			log.Warn("bad request", "err", err)
			_ = c.write(Event{Type: EventError, Fields: map[string]any{"error": err.Error()}})
		}
	}
}
