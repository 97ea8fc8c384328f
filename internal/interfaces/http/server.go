// Package http serves the read-only stats API over the aggregate store.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/tallyworks/orderstats/internal/interfaces/http/handlers"
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultServerConfig returns the local-only defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

// Server is the read-only HTTP server. It never mutates the store.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *handlers.Handlers
	metrics  *Metrics
	config   ServerConfig
}

// NewServer builds the server and wires all routes.
func NewServer(config ServerConfig, h *handlers.Handlers, metrics *Metrics) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		handlers: h,
		metrics:  metrics,
		config:   config,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.jsonContentTypeMiddleware)

	s.router.HandleFunc("/users/{id}/stats", s.handlers.UserStats).Methods("GET")
	s.router.HandleFunc("/stats/global", s.handlers.GlobalStats).Methods("GET")
	s.router.HandleFunc("/stats/top-spenders", s.handlers.TopSpenders).Methods("GET")
	s.router.HandleFunc("/stats/top-buyers", s.handlers.TopBuyers).Methods("GET")
	s.router.HandleFunc("/stats/by-date", s.handlers.StatsByDate).Methods("GET")
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.HandleFunc("/metrics", s.handlers.Metrics).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// requestIDMiddleware tags each request with a short unique ID.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), handlers.RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs every request and feeds the API metrics.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		if s.metrics != nil {
			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			s.metrics.RequestDuration.
				WithLabelValues(route, r.Method, strconv.Itoa(wrapper.statusCode)).
				Observe(duration.Seconds())
		}

		log.Info().
			Interface("request_id", r.Context().Value(handlers.RequestIDKey)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving requests until the listener fails or is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting read API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down read API server")
	return s.server.Shutdown(ctx)
}

// responseWrapper captures the status code for logging and metrics.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
