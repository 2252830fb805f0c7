/*
Package httpapi serves vocabulary state and one-shot sieving over HTTP.

Routes:

	GET  /health                  liveness
	GET  /api/vocab?user=ana      stored vocabulary of a user
	POST /api/vocab/acquaint      {"user": "ana", "words": ["river"]}
	POST /api/vocab/revoke        {"user": "ana", "word": "river"}
	GET  /api/stems               irregular table in use
	POST /api/sieve               {"user": "ana", "text": "...", "segment": "target"}

Responses are JSON envelopes: {"ok": true, "result": ...} on success and
{"ok": false, "error": ..., "message": ..., "code": ...} otherwise.
*/
package httpapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bastiangx/wordsieve/internal/logger"
	"github.com/bastiangx/wordsieve/pkg/config"
	"github.com/bastiangx/wordsieve/pkg/dictionary"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/rs/cors"
)

// MaxRequestSize caps request bodies.
const MaxRequestSize = 4 << 20

// Server is the HTTP API.
type Server struct {
	store     store.Store
	table     dictionary.Table
	config    *config.Config
	router    *chi.Mux
	httpSrv   *http.Server
	log       *log.Logger
	startTime time.Time

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates the API over st. The table is validated up front.
func New(st store.Store, table dictionary.Table, cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		store:     st,
		table:     table.Clone(),
		config:    cfg,
		router:    chi.NewRouter(),
		log:       logger.New("http"),
		startTime: time.Now(),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.assignRequestID)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}).Handler)
	s.router.Use(s.requestSizeLimit)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/vocab", s.handleVocab)
		r.Post("/vocab/acquaint", s.handleAcquaint)
		r.Post("/vocab/revoke", s.handleRevoke)
		r.Get("/stems", s.handleStems)
		r.Post("/sieve", s.handleSieve)
	})
}

// assignRequestID gives requests without an id a ULID, which
// middleware.RequestID then picks up.
func (s *Server) assignRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			s.idMu.Lock()
			id = ulid.MustNew(ulid.Now(), s.entropy).String()
			s.idMu.Unlock()
			r.Header.Set(middleware.RequestIDHeader, id)
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request at debug level on the charm logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start))
	})
}

func (s *Server) requestSizeLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpSrv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infof("Serving HTTP API on %s", ln.Addr())
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Debug("Shutting down HTTP API")
	return s.httpSrv.Shutdown(ctx)
}
