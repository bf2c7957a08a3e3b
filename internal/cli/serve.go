package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/YasiruDEX/Robobrain-2.0/internal/config"
	"github.com/YasiruDEX/Robobrain-2.0/internal/logger"
	"github.com/YasiruDEX/Robobrain-2.0/internal/metrics"
	"github.com/YasiruDEX/Robobrain-2.0/internal/server"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/decompose"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/inference"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backend server",
	Long: `Start the backend HTTP server. The server exposes session, upload,
chat, and pipeline endpoints and streams pipeline progress over WebSocket.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; deployments set real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	provider, err := decompose.NewProvider(decompose.ProviderConfig{
		Provider: cfg.Decomposer.Provider,
		APIKey:   cfg.Decomposer.APIKey,
		BaseURL:  cfg.Decomposer.BaseURL,
		Model:    cfg.Decomposer.Model,
	})
	if err != nil {
		// No decomposition provider means single-step fallback plans, not
		// a dead server.
		log.Warn().Err(err).Msg("Decomposition provider unavailable, falling back to keyword routing")
		provider = nil
	}

	sessions := session.NewManager(cfg.Sessions.IdleTTL(), cfg.Sessions.MaxTurns)
	if err := sessions.StartCleanup(cfg.Sessions.CleanupSchedule); err != nil {
		return fmt.Errorf("failed to start session cleanup: %w", err)
	}
	defer sessions.StopCleanup()

	srv, err := server.NewServer(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		UploadDir:      cfg.Storage.UploadDir,
		ResultDir:      cfg.Storage.ResultDir,
		EnableThinking: cfg.ModelServer.EnableThinking,
		Sessions:       sessions,
		Inference:      inference.New(cfg.ModelServer.BaseURL, cfg.ModelServer.Timeout()),
		Decomposer:     decompose.New(provider),
		Metrics:        metrics.NewMetrics(),
		Logger:         log.GetZerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return srv.Stop()
}
