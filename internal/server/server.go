// Package server exposes the log and knowledge stores over HTTP and runs the
// live WebSocket channel.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/logstore"
	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
	"github.com/Zuo-Peng/axel-dashboard/internal/status"
)

const (
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 5 * time.Second

	// writeWait bounds a single push to a live connection.
	writeWait = 10 * time.Second
)

// Deps are the collaborators the router serves from. Index and PublicDir
// are optional.
type Deps struct {
	Logs      *logstore.Store
	Knowledge *knowledge.Store
	Notifier  *notify.Notifier
	Prober    *status.Prober
	Index     *index.DB
	Roots     scan.Roots
	PublicDir string
	Logger    zerolog.Logger
}

type Server struct {
	deps     Deps
	log      zerolog.Logger
	router   *chi.Mux
	upgrader websocket.Upgrader
}

func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		log:    deps.Logger,
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// local dashboard: any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/activity", s.handleActivity)
		r.Get("/memory", s.handleMemory)
		r.Get("/memory/{type}/{name}", s.handleMemoryEntry)
		r.Get("/conversations", s.handleConversationDates)
		r.Get("/conversations/{date}", s.handleConversation)
		r.Get("/inventory", s.handleInventory)
		r.Get("/advisors", s.handleAdvisors)
		r.Get("/status", s.handleStatus)
		r.Get("/search", s.handleSearch)
	})
	s.router.Get("/ws", s.handleLive)
	s.router.Get("/*", s.handleStatic)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("dashboard listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown; their
	// handlers exit when the process does
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info().Msg("dashboard stopped")
	return nil
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
