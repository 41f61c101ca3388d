// Package server exposes the MindHarbor API over HTTP and WebSocket.
//
// Every query runs the same pipeline regardless of transport: crisis
// screening first, then the credit check against the ledger, then
// similarity search over the support corpus. Screening and credit
// outcomes are reported with HTTP 200 and a status field, so clients
// branch on the payload rather than on status codes.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Imtguy97/mindharbor-bot/pkg/crisis"
	"github.com/Imtguy97/mindharbor-bot/pkg/ledger"
	"github.com/Imtguy97/mindharbor-bot/pkg/vecstore"
)

const (
	// defaultTopK is the number of matches returned when a query does
	// not ask for a specific k.
	defaultTopK = 3

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Store answers similarity queries. Required.
	Store *vecstore.Store

	// Ledger tracks user credits. Required.
	Ledger *ledger.Ledger

	// Detector screens messages before retrieval. Defaults to the
	// built-in rule set.
	Detector *crisis.Detector

	// TopK is the default result count for queries. Defaults to 3.
	TopK int

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Now supplies the current time for pass validity checks. Defaults
	// to time.Now. Tests override it.
	Now func() time.Time
}

// Server routes API requests to the store, ledger, and detector.
type Server struct {
	store    *vecstore.Store
	ledger   *ledger.Ledger
	detector *crisis.Detector
	topK     int
	log      *slog.Logger
	now      func() time.Time
	handler  http.Handler
	upgrader websocket.Upgrader
}

// New creates a Server and registers its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: Config.Store is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("server: Config.Ledger is required")
	}
	if cfg.Detector == nil {
		cfg.Detector = crisis.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		store:    cfg.Store,
		ledger:   cfg.Ledger,
		detector: cfg.Detector,
		topK:     cfg.TopK,
		log:      cfg.Logger,
		now:      cfg.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /user/{id}", s.handleUser)
	mux.HandleFunc("POST /user/{id}/tokens", s.handleGrantTokens)
	mux.HandleFunc("POST /user/{id}/pass", s.handleGrantPass)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("GET /chat", s.handleChat)
	s.handler = s.withRequestLog(mux)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves the API on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("server: shutting down")
	return srv.Shutdown(shutdownCtx)
}

type ctxKey int

const requestIDKey ctxKey = iota

// requestID returns the id assigned to this request by the logging
// middleware, or "" outside a request.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestLog tags every request with a short id and logs its
// outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := "req_" + uuid.New().String()[:12]
		ctx := context.WithValue(r.Context(), requestIDKey, id)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))

		s.log.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"took", time.Since(start))
	})
}

// statusWriter records the response status for the request log. It
// forwards Hijack so WebSocket upgrades work through the middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("server: encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
