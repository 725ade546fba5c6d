package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/anonymizer"
	"github.com/seclyra/veil/internal/audit"
	"github.com/seclyra/veil/internal/config"
	"github.com/seclyra/veil/internal/events"
	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/profile"
)

// Server exposes the privacy gateway over HTTP: an inlet endpoint that
// anonymizes outbound payloads and an outlet endpoint that reverses the
// substitution on inbound responses.
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	pipeline *anonymizer.Pipeline
	resolver *profile.Resolver
	hub      *events.Hub
	audit    *audit.Store // nil when auditing is disabled
	router   *mux.Router
	server   *http.Server
	limiter  *clientLimiter

	// The most recent inlet correlation id, injected into outlet payloads
	// that arrive without one. Chat clients routinely strip metadata from
	// model responses before posting them back.
	latestMu      sync.Mutex
	latestMapping string
}

// New creates a new server instance. auditStore may be nil.
func New(cfg *config.Config, pipeline *anonymizer.Pipeline, resolver *profile.Resolver, auditStore *audit.Store, log *logger.Logger) *Server {
	hub := events.NewHub(cfg.WebSocket.AllowedOrigins, log.WithComponent("events").Logger)

	router := mux.NewRouter()

	s := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		pipeline: pipeline,
		resolver: resolver,
		hub:      hub,
		audit:    auditStore,
		router:   router,
		limiter:  newClientLimiter(cfg.Security.RateLimit),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/inlet", s.handleInlet).Methods("POST")
	api.HandleFunc("/outlet", s.handleOutlet).Methods("POST")
}

// Start starts the HTTP server and the event hub
func (s *Server) Start() error {
	s.logger.Info("Starting privacy gateway",
		zap.Int("port", s.config.Server.Port),
		zap.String("default_profile", s.config.Privacy.DefaultProfile),
		zap.Bool("ner_enabled", s.config.NER.Enabled),
	)

	if s.config.WebSocket.Enabled {
		go s.hub.Run()
	}
	s.limiter.startCleanup()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping privacy gateway")
	return s.server.Shutdown(ctx)
}

// Handler returns the configured HTTP handler. Useful in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":            "veil",
		"default_profile": s.config.Privacy.DefaultProfile,
		"profiles":        s.resolver.Names(),
		"ner_enabled":     s.config.NER.Enabled,
	})
}

// handleWebSocket handles dashboard event feed connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}

// setLatestMapping remembers the most recent inlet correlation id.
func (s *Server) setLatestMapping(id string) {
	s.latestMu.Lock()
	s.latestMapping = id
	s.latestMu.Unlock()
}

// getLatestMapping returns the most recent inlet correlation id.
func (s *Server) getLatestMapping() string {
	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	return s.latestMapping
}
