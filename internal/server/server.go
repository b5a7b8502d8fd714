// Package server exposes the document workspace over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /version
//	GET    /maps                    list documents, newest first
//	POST   /maps                    create from an interchange document
//	GET    /maps/{id}
//	PUT    /maps/{id}               replace title, graph and comments
//	DELETE /maps/{id}
//	POST   /maps/{id}/duplicate
//	POST   /maps/{id}/layout?style= re-layout and save
//	GET    /maps/{id}/export?format=&theme=&scale=
//	GET    /maps/{id}/presence      active collaborator cursors
//	GET    /maps/{id}/ws            websocket cursor presence
//	POST   /generate                prompt to document
//	POST   /render?format=&style=   render an interchange document
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// status from [errors.HTTPStatus].
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/cooketh/flow/pkg/collab"
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/generate"
	"github.com/cooketh/flow/pkg/pipeline"
	"github.com/cooketh/flow/pkg/storage"
)

const (
	maxBodyBytes    = 8 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API. Create one with [New].
type Server struct {
	workspace *storage.Workspace
	runner    *pipeline.Runner
	generator *generate.Service
	channel   collab.Channel
	logger    *log.Logger

	origins    []string
	staleAfter time.Duration
	readTO     time.Duration
	writeTO    time.Duration

	mu     sync.Mutex
	rooms  map[string]*room
	notify map[string]*collab.Subscription
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request and websocket logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChannel replaces the default in-process [collab.Hub].
func WithChannel(c collab.Channel) Option {
	return func(s *Server) {
		if c != nil {
			s.channel = c
		}
	}
}

// WithRunner sets the render pipeline. The default runs without a cache.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithGenerator sets the generation service. The default always uses the
// built-in fallback graph.
func WithGenerator(g *generate.Service) Option {
	return func(s *Server) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithAllowedOrigins restricts CORS and websocket origins. Empty allows
// any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithStaleAfter sets how long an idle cursor stays in presence.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Server) { s.staleAfter = d }
}

// WithTimeouts sets the HTTP read and write timeouts used by [Server.Run].
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTO = read
		s.writeTO = write
	}
}

// New returns a server over ws.
func New(ws *storage.Workspace, opts ...Option) *Server {
	s := &Server{
		workspace:  ws,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
		staleAfter: collab.DefaultStaleAfter,
		readTO:     15 * time.Second,
		writeTO:    60 * time.Second,
		rooms:      make(map[string]*room),
		notify:     make(map[string]*collab.Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.channel == nil {
		s.channel = collab.NewHub(collab.WithHubLogger(s.logger))
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.generator == nil {
		s.generator = generate.NewService(nil, generate.WithLogger(s.logger))
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/version", s.version)

	r.Route("/maps", func(r chi.Router) {
		r.Get("/", s.listMaps)
		r.Post("/", s.createMap)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getMap)
			r.Put("/", s.updateMap)
			r.Delete("/", s.deleteMap)
			r.Post("/duplicate", s.duplicateMap)
			r.Post("/layout", s.layoutMap)
			r.Get("/export", s.exportMap)
			r.Get("/presence", s.presence)
			r.Get("/ws", s.serveWS)
		})
	})
	r.Post("/generate", s.generate)
	r.Post("/render", s.render)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Idle cursors are pruned in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTO,
		WriteTimeout: s.writeTO,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeAll()
		return err
	})
	g.Go(func() error {
		s.prune(ctx)
		return nil
	})
	return g.Wait()
}

func (s *Server) prune(ctx context.Context) {
	if s.staleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(s.staleAfter)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for id, rm := range s.rooms {
				if n := rm.presence.Prune(); n > 0 {
					s.logger.Debug("pruned cursors", "doc", id, "count", n)
				}
			}
			s.mu.Unlock()
		}
	}
}

// notifyGraph tells subscribers of id that a newer version was saved.
func (s *Server) notifyGraph(ctx context.Context, id string, g diagram.Graph) {
	s.mu.Lock()
	sub, ok := s.notify[id]
	if !ok {
		var err error
		sub, err = s.channel.Subscribe(context.Background(), id, nil, nil)
		if err != nil {
			s.mu.Unlock()
			s.logger.Debug("graph notification skipped", "doc", id, "err", err)
			return
		}
		s.notify[id] = sub
	}
	s.mu.Unlock()
	if err := s.channel.SendGraph(ctx, sub, g); err != nil {
		s.logger.Debug("graph notification dropped", "doc", id, "err", err)
	}
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	sub, ok := s.notify[id]
	delete(s.notify, id)
	s.mu.Unlock()
	if ok {
		_ = sub.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.notify {
		_ = sub.Close()
		delete(s.notify, id)
	}
	for id, rm := range s.rooms {
		_ = rm.sub.Close()
		delete(s.rooms, id)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
