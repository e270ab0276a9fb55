package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cdimock",
	Short: "cdimock is a stub server for the CDI management APIs",
	Long: `cdimock stands in for the cluster manager, fabric manager and identity
manager APIs of a composable disaggregated infrastructure. Responses are read
from JSON fixture files; PATCH device requests drain a per-machine pool of
prepared responses.

Configuration can be provided via flags, CDIMOCK_* environment variables, or a
YAML configuration file passed with --config.

Run without a subcommand, cdimock behaves like "cdimock serve" with default
flags.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
