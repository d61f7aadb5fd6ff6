package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tabhome/tabhome/internal/auth"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tabhome/tabhome/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the database schema, seed the default search engines and settings, and create the admin account if it is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := setupDatabase(runContext(cmd), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		fmt.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// setupDatabase opens the database, creating its directory, and seeds the defaults and the admin account.
func setupDatabase(ctx context.Context, cfg *config.Config) (*database.Client, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := db.SeedDefaults(ctx); err != nil {
		db.Close() //nolint: errcheck
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}
	if err := auth.EnsureAdmin(ctx, db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		db.Close() //nolint: errcheck
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}
	log.Debug("database ready", "path", cfg.Database.Path)
	return db, nil
}
