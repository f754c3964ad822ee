package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/taintview/pkg/navigator"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/taint"
)

// Default timeouts for [Server.ListenAndServe].
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 60 * time.Second
)

// snapshot is the graph being served together with its generation. The
// generation is part of every layout dedupe key so a reload never returns
// a layout of the previous graph.
type snapshot struct {
	graph *taint.Graph
	gen   uint64
}

// Server serves one taint graph.
type Server struct {
	runner   *pipeline.Runner
	nav      *navigator.Navigator
	defaults pipeline.Options
	logger   *log.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu      sync.RWMutex
	current snapshot

	layouts singleflight.Group
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithNavigator enables the address and call routes.
func WithNavigator(nav *navigator.Navigator) Option {
	return func(s *Server) { s.nav = nav }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the layout options used when a request leaves them out.
// Trace is used by [Server.Reload].
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// WithTimeouts sets the HTTP read and write timeouts. Zero keeps the default.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// New returns a server over g. A nil runner gets an uncached one.
func New(g *taint.Graph, runner *pipeline.Runner, opts ...Option) *Server {
	if g == nil {
		g = taint.NewGraph()
	}
	s := &Server{
		runner:       runner,
		logger:       log.New(io.Discard),
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		current:      snapshot{graph: g, gen: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.nav == nil {
		s.nav = navigator.New(nil)
	}
	s.router = s.routes()
	return s
}

// Graph returns the graph currently served.
func (s *Server) Graph() *taint.Graph {
	return s.snapshot().graph
}

func (s *Server) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetGraph replaces the served graph.
func (s *Server) SetGraph(g *taint.Graph) {
	if g == nil {
		return
	}
	s.mu.Lock()
	s.current = snapshot{graph: g, gen: s.current.gen + 1}
	s.mu.Unlock()
}

// Reload rebuilds the graph from the configured trace and swaps it in.
// On failure the old graph stays in place.
func (s *Server) Reload(ctx context.Context) error {
	opts := s.defaults
	g, _, err := s.runner.Build(ctx, opts)
	if err != nil {
		observability.Server().OnReload(ctx, 0, 0, err)
		return fmt.Errorf("reload: %w", err)
	}
	s.SetGraph(g)
	observability.Server().OnReload(ctx, g.NodeCount(), g.EdgeCount(), nil)
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving taint graph", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Get("/layout", s.handleLayout)
	r.Get("/nodes/{uuid}", s.handleNode)
	r.Get("/nodes/{uuid}/address", s.handleAddress)
	r.Get("/nodes/{uuid}/calls", s.handleCalls)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound("no route for %s", r.URL.Path))
	})
	return r
}

// observe reports every request to the server hooks under its route
// pattern, so /nodes/1 and /nodes/2 share one series.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
	})
}
