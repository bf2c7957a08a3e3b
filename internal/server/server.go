package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YasiruDEX/Robobrain-2.0/internal/metrics"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/decompose"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/inference"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/pipeline"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/session"
)

// Server is the backend HTTP server. It exposes the session, upload,
// chat, and pipeline endpoints and streams pipeline progress over
// WebSocket.
type Server struct {
	host           string
	port           int
	uploadDir      string
	resultDir      string
	enableThinking bool

	server     *http.Server
	hub        *Hub
	sessions   *session.Manager
	inference  *inference.Client
	decomposer *decompose.Decomposer
	planner    *pipeline.PlanDecomposer
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	UploadDir      string
	ResultDir      string
	EnableThinking bool
	Sessions       *session.Manager
	Inference      *inference.Client
	Decomposer     *decompose.Decomposer
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewServer creates a new backend server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Inference == nil {
		return nil, fmt.Errorf("inference client is required")
	}
	if cfg.Decomposer == nil {
		return nil, fmt.Errorf("decomposer is required")
	}
	if cfg.UploadDir == "" || cfg.ResultDir == "" {
		return nil, fmt.Errorf("upload and result directories are required")
	}

	for _, dir := range []string{cfg.UploadDir, cfg.ResultDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewMetrics()
	}

	s := &Server{
		host:           cfg.Host,
		port:           cfg.Port,
		uploadDir:      cfg.UploadDir,
		resultDir:      cfg.ResultDir,
		enableThinking: cfg.EnableThinking,
		hub:            NewHub(cfg.Logger),
		sessions:       cfg.Sessions,
		inference:      cfg.Inference,
		decomposer:     cfg.Decomposer,
		planner:        pipeline.NewPlanDecomposer(cfg.Decomposer),
		metrics:        m,
		logger:         cfg.Logger.With().Str("component", "server").Logger(),
	}

	return s, nil
}

// Handler returns the server's HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tasks", s.handleTasks)

	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/session/{id}/reset", s.handleResetSession)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistory)

	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	mux.Handle("GET /result/", http.StripPrefix("/result/", http.FileServer(http.Dir(s.resultDir))))

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/pipeline", s.handlePipeline)
	mux.HandleFunc("GET /ws/pipeline/{runID}", s.handlePipelineWS)

	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.withMiddleware(mux)
}

// withMiddleware rejects new work during shutdown and tracks in-flight
// requests so Stop can drain them.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		s.inFlightReqs.Add(1)
		s.shutdownMu.RUnlock()
		defer s.inFlightReqs.Done()

		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server. It does not block.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}

	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting backend server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Backend server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server, draining in-flight requests.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down backend server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Backend server stopped")
	return nil
}
