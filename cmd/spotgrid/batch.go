package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	batchYear  int
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify a batch of unassigned spots",
	Long: `Classifies up to --limit unassigned spots for a broadcast year, in
ascending spot id order. Already-assigned spots are skipped, so repeated
batch runs walk forward through the year.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchYear, "year", 0, "broadcast year to process")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "maximum spots to classify (default from config)")
	_ = batchCmd.MarkFlagRequired("year")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.runner.ProcessBatch(cmd.Context(), batchYear, batchLimit)
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	printSummary(summary)
	return nil
}
