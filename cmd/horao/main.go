// Command horao bootstraps a single replica: loads configuration, opens
// its store, and runs the peer synchronizer's trigger loop. Process
// bootstrap and the HTTP surface are explicitly out of this module's
// scope (spec.md §1); this is kept intentionally minimal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time.
	Version = "dev"

	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "horao",
	Short: "horao replicates infrastructure state and schedules tenant claims",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "directory for replica storage")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the horao version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
