package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tabhome/tabhome/internal/api"
	"github.com/tabhome/tabhome/internal/auth"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tabhome/tabhome/internal/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tabhome server",
	Long:  `Start the tabhome HTTP server. The database is created and seeded on first start.`,
	Example: `tabhome serve --config config.yml
tabhome serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel == "" {
		setLogLevel(cfg.LogLevel)
	}

	ctx, cancel := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := setupDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	store, err := auth.NewSessionStore(cfg.Session, db.Gorm())
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	server, err := api.New(cfg, db, store, upstream.New(cfg.Upstream), log.GetLevel() == log.DebugLevel)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	log.Info("tabhome started successfully")
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("API server error: %w", err)
	}
	log.Info("shut down gracefully")
	return nil
}

// runContext returns the command context, falling back to a background context.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
