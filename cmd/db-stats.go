package cmd

import (
	"fmt"
	"os"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tabhome/tabhome/internal/database"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of rows per table and the size of the database file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		info, err := os.Stat(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to stat database: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		counts, err := db.Counts(runContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		size, err := safecast.ToUint64(info.Size())
		if err != nil {
			return fmt.Errorf("invalid database size: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Path: %s\n", cfg.Database.Path)
		fmt.Printf("Size: %s\n", humanize.Bytes(size))
		fmt.Printf("Users: %d\n", counts.Users)
		fmt.Printf("Shortcuts: %d\n", counts.Shortcuts)
		fmt.Printf("Search Engines: %d\n", counts.SearchEngines)
		fmt.Printf("Settings Rows: %d\n", counts.Settings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
