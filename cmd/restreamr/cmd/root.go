// Package cmd implements the CLI commands for restreamr.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/restreamr/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "restreamr",
	Short:   "Video re-streaming orchestration service",
	Version: version.Short(),
	Long: `restreamr pushes stored videos and playlists to live streaming
destinations over RTMP. It supervises the encoder processes it spawns,
parses their telemetry, and fans out live status and stats events to
WebSocket subscribers.

Sessions survive restarts: any session left marked running is
relaunched on startup.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./configs, /etc/restreamr)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}
