// Package api serves workflows over HTTP: CRUD on stored workflows plus
// node runs and connection checks against a stored graph.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/internal/storage"
)

// Config holds the dependencies of the API server.
type Config struct {
	Addr  string
	Store storage.Store
	// SessionOptions configure the session opened for each run request,
	// typically the engine providers and runtime config.
	SessionOptions []session.Option
	Logger         zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr     string
	store    storage.Store
	sessOpts []session.Option
	logger   zerolog.Logger

	// runs on the same workflow are serialized so load/run/save does not
	// lose updates
	locks sync.Map
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	return &Server{
		addr:     cfg.Addr,
		store:    cfg.Store,
		sessOpts: cfg.SessionOptions,
		logger:   cfg.Logger,
	}
}

// Handler returns the router with all API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	h := &handlers{server: s}
	r.Route("/api/workflows", func(r chi.Router) {
		r.Get("/", h.listWorkflows)
		r.Post("/", h.createWorkflow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getWorkflow)
			r.Put("/", h.updateWorkflow)
			r.Delete("/", h.deleteWorkflow)
			r.Post("/nodes/{nodeID}/run", h.runNode)
			r.Post("/connections/validate", h.validateConnection)
		})
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug().Msg("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) lock(id string) func() {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
