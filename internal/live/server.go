package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"reloverlay/internal/overlay"
	"reloverlay/internal/scene"
)

// ErrUnknownOp is returned for commands the server does not understand.
var ErrUnknownOp = errors.New("live: unknown op")

// Command is a message sent by a client.
type Command struct {
	Op      string  `json:"op"` // move, resize, highlight, visible
	ID      string  `json:"id,omitempty"`
	DX      float64 `json:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	Visible bool    `json:"visible,omitempty"`
}

// Server renders a scene and keeps connected browsers in sync with it.
type Server struct {
	scene    *scene.Scene
	overlay  *overlay.Overlay
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer mounts an overlay for sc. opts are passed to overlay.New.
func NewServer(sc *scene.Scene, logger *slog.Logger, opts ...overlay.Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		scene:  sc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.hub = NewHub(logger, s.apply)

	opts = append([]overlay.Option{overlay.WithLogger(logger)}, opts...)
	opts = append(opts, overlay.WithRenderHook(func(string) { s.Refresh() }))
	s.overlay = overlay.New(sc, opts...)
	s.overlay.SetVisible(sc.Visible())
	s.overlay.Mount()
	s.overlay.Update(sc.Descriptors(), sc.Highlighted())
	return s
}

// Run serves the hub until ctx is done and then releases the overlay.
func (s *Server) Run(ctx context.Context) {
	s.Refresh()
	s.hub.Run(ctx)
	s.overlay.Close()
}

// ListenAndServe runs the server on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown failed", "error", err)
		}
	}()

	s.logger.Info("serving scene", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Handler serves the viewer page, the websocket and the current overlay.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexPage))
	})
	mux.HandleFunc("GET /overlay.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := s.overlay.Render(w); err != nil {
			s.logger.Warn("overlay write failed", "error", err)
		}
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("websocket upgrade failed", "error", err)
			return
		}
		s.hub.serve(conn)
	})
	return mux
}

// Refresh renders both layers and publishes them if they changed.
func (s *Server) Refresh() {
	var regions, layer bytes.Buffer
	s.scene.WriteSVG(&regions)
	if err := s.overlay.Render(&layer); err != nil {
		s.logger.Error("overlay render failed", "error", err)
		return
	}
	s.hub.Publish(Frame{Type: "frame", Regions: regions.String(), Overlay: layer.String()})
}

func (s *Server) apply(msg []byte) error {
	var cmd Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}

	switch cmd.Op {
	case "move":
		if err := s.scene.Move(cmd.ID, cmd.DX, cmd.DY); err != nil {
			return err
		}
	case "resize":
		if err := s.scene.Resize(cmd.ID, cmd.DX, cmd.DY); err != nil {
			return err
		}
	case "highlight":
		if err := s.scene.Highlight(cmd.ID); err != nil {
			return err
		}
		s.overlay.Update(s.scene.Descriptors(), cmd.ID)
	case "visible":
		s.scene.SetVisible(cmd.Visible)
		s.overlay.SetVisible(cmd.Visible)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
	// Connectors follow through their own notifications; the region layer
	// is redrawn now.
	s.Refresh()
	return nil
}
