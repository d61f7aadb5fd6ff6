package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

// logFile is the file opened for --log-file, closed once the command returns.
var logFile *os.File

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "Also append logs to this file")
	flags.StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Config file (default: config.yml in ., ~/.tabhome or /etc/tabhome)")
	flags.StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides log_level from the config)")
}

var rootCmd = &cobra.Command{
	Use:   "tabhome",
	Short: "Tabhome is the backend of a self-hosted browser start page",
	Long:  `Tabhome serves shortcuts, search engines and site settings for a browser start page, together with wallpaper, weather, location and search suggestion proxies.`,
	Example: `tabhome serve --config config.yml
  tabhome serve -c /path/to/config.yml --log-level debug
  tabhome migrate`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootCmdPersistentFlags.LogLevel != "" {
			setLogLevel(rootCmdPersistentFlags.LogLevel)
		}
		return openLogFile(rootCmdPersistentFlags.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if logFile != nil {
			logFile.Close() //nolint: errcheck
		}
	},
}

// setLogLevel applies level to the default logger. Unknown levels fall back to info.
func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func openLogFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.Debug("writing logs to file", "file", path)
	return nil
}

func Execute() error {
	return fang.Execute(context.Background(), rootCmd, fang.WithVersion(version))
}
