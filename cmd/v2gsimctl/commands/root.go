// Package commands implements the v2gsimctl CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// client talks to v2gsimd's introspection HTTP endpoint, initialized in
	// PersistentPreRunE.
	client *introspectClient

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the daemon's metrics/introspection address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for v2gsimctl.
var rootCmd = &cobra.Command{
	Use:   "v2gsimctl",
	Short: "CLI client for the v2gsimd session core daemon",
	Long:  "v2gsimctl inspects live V2G sessions on the v2gsimd daemon's introspection HTTP endpoint.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = newIntrospectClient(serverAddr)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:9100",
		"v2gsimd metrics/introspection address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
