// Package server exposes a monitor's state over HTTP and WebSocket.
// It is an observability surface only: the trigger markers remain the
// signal of record, and the monitors run the same with or without it.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/meeting-sentinel/internal/monitor"
	"github.com/GriffinCanCode/meeting-sentinel/internal/trigger"
)

// Timeouts for the embedded HTTP server.
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
)

// StateSource provides the monitor state snapshot.
type StateSource interface {
	Snapshot() monitor.Snapshot
}

// StatusMessage is the initial websocket frame.
type StatusMessage struct {
	Type  string           `json:"type"`
	State monitor.Snapshot `json:"state"`
}

// TransitionMessage streams one published transition.
type TransitionMessage struct {
	Type   string  `json:"type"`
	Kind   string  `json:"kind"`
	Source string  `json:"source"`
	At     float64 `json:"at"` // POSIX epoch seconds
	Detail string  `json:"detail,omitempty"`
}

// Server serves status for one monitor.
type Server struct {
	state  StateSource
	events *trigger.Broadcast
}

// New creates a status server over a monitor's state and its
// transition broadcast.
func New(state StateSource, events *trigger.Broadcast) *Server {
	return &Server{state: state, events: events}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// ListenAndServe runs the server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.state.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()

	if err := wsjson.Write(ctx, c, StatusMessage{Type: "status", State: s.state.Snapshot()}); err != nil {
		return
	}

	sub := s.events.Subscribe()
	defer s.events.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "shutting down")
			return
		case ev, ok := <-sub:
			if !ok {
				_ = c.Close(websocket.StatusNormalClosure, "shutting down")
				return
			}
			msg := TransitionMessage{
				Type:   "transition",
				Kind:   string(ev.Kind),
				Source: string(ev.Source),
				At:     float64(ev.At.UnixNano()) / 1e9,
				Detail: ev.Detail,
			}
			if err := wsjson.Write(ctx, c, msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
