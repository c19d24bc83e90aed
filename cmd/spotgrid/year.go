package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/spotgrid/internal/processor"
)

var (
	yearTarget int
	yearForce  bool
)

var yearCmd = &cobra.Command{
	Use:   "year",
	Short: "Classify every unassigned spot in a broadcast year",
	Long: `Works through a full broadcast year batch by batch until every spot
has an assignment. With --force, existing assignments for the year are
deleted first and the whole year is reclassified from scratch.`,
	RunE: runYear,
}

func init() {
	yearCmd.Flags().IntVar(&yearTarget, "year", 0, "broadcast year to process")
	yearCmd.Flags().BoolVar(&yearForce, "force", false, "delete existing assignments and reclassify the whole year")
	_ = yearCmd.MarkFlagRequired("year")
}

func runYear(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.runner.ProcessYear(cmd.Context(), yearTarget, yearForce)
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		return fmt.Errorf("year run failed: %w", err)
	}
	return nil
}

func printSummary(s *processor.Summary) {
	fmt.Fprintf(os.Stdout, "run %s: %d processed, %d assigned, %d flagged, %d failed in %s\n",
		s.RunID, s.Total, s.Assigned, s.Flagged, s.Failed, s.Duration.Round(time.Millisecond))
	if len(s.FlaggedSample) > 0 {
		fmt.Fprintf(os.Stdout, "flagged spots (sample): %v\n", s.FlaggedSample)
	}
}
