package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "townsquare",
		Short: "CLI client for the town square session coordinator",
		Long: `townsquare connects to a session coordinator over websocket.

Run "townsquare host" to open a room and manage role assignments, or
"townsquare join" to join an existing room as a player.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TOWNSQUARE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "Host snapshot directory (env: TOWNSQUARE_SNAPSHOT_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newHostCmd())
	rootCmd.AddCommand(newJoinCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
