// Command spotgrid classifies broadcast spots into campaign types and
// assigns them to programming grid language blocks. It runs either as a
// one-shot CLI (assign, batch, year, status) or as a long-lived HTTP
// service (serve).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spotgrid",
	Short: "Spot classification and language block assignment",
	Long: `spotgrid determines how advertising revenue should be categorized by
classifying every spot into exactly one campaign type and, where the
spot targets a specific language audience, assigning it to a language
block on the programming grid.

Classification is deterministic: the same spot, schedule, and settings
always produce the same assignment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default config.yml, overridable via CONFIG_PATH)")

	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(yearCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
