package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/telemetry"
)

// RootHeader carries the session's container handle in the upgrade response.
// Clients bind it to their own container before applying the first batch.
const RootHeader = "Vtree-Root"

// SessionHeader carries the session ID in the upgrade response.
const SessionHeader = "Vtree-Session"

// ErrTooManySessions is returned when MaxSessions is reached.
var ErrTooManySessions = errors.New("server: too many sessions")

// Server is the HTTP/WebSocket server for live sessions.
type Server struct {
	app      App
	config   *Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
	tracing  []telemetry.TracingOption
	store    snapshot.Store

	mu       sync.Mutex
	sessions map[string]*Session

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records session metrics into m and serves gatherer on
// /metrics.
func WithMetrics(m *telemetry.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithTracing passes options to every session's instrumented renderer.
func WithTracing(opts ...telemetry.TracingOption) Option {
	return func(s *Server) {
		s.tracing = append(s.tracing, opts...)
	}
}

// WithSnapshots serves stored snapshots under /snapshots.
func WithSnapshots(store snapshot.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a Server that runs app for every connection.
func New(app App, config *Config, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		app:    app,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   slog.Default().With("component", "server"),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router serving every endpoint:
//
//	GET /ws                 live session
//	GET /healthz            liveness and session count
//	GET /metrics            Prometheus metrics (WithMetrics)
//	GET /snapshots          stored snapshot list (WithSnapshots)
//	GET /snapshots/{name}   one stored snapshot (WithSnapshots)
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.store != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleSnapshotList)
			r.Get("/{name}", s.handleSnapshot)
		})
	}
	return r
}

// HandleWebSocket upgrades the connection, renders the first pass and
// serves events until the client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.MaxSessions; limit > 0 && s.SessionCount() >= limit {
		s.logger.Warn("session rejected", "error", ErrTooManySessions)
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}

	// The root handle is known before the upgrade: a fresh host tree
	// allocates its container first.
	session := newSession(nil, s.config, s.logger, s.metrics, s.tracing)
	header := http.Header{}
	header.Set(RootHeader, strconv.FormatUint(uint64(session.Root()), 10))
	header.Set(SessionHeader, session.ID)

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.config.MaxMessageSize)
	session.conn = conn
	session.onClose = s.remove
	session.view = s.app(session)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.metrics.SessionOpened()
	session.logger.Info("session started", "remote", r.RemoteAddr)

	// The request context ends when the handler returns; sessions outlive it.
	ctx := context.WithoutCancel(r.Context())
	if err := session.Render(ctx); err != nil {
		session.logger.Error("initial render failed", "error", err)
	}
	go session.readLoop(ctx)
}

func (s *Server) remove(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

// Session returns a live session by ID.
func (s *Server) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("snapshot list failed", "error", err)
		http.Error(w, "snapshot list failed", http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []snapshot.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, info, err := s.store.Load(r.Context(), name)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, snapshot.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("snapshot load failed", "name", name, "error", err)
		http.Error(w, "snapshot load failed", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", snapshot.ContentType)
	if !info.CreatedAt.IsZero() {
		w.Header().Set("Last-Modified", info.CreatedAt.UTC().Format(http.TimeFormat))
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Debug("snapshot write failed", "name", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", l.Addr().String())
		errCh <- s.httpServer.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}
