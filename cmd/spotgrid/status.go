package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var statusYear int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show assignment coverage for a broadcast year",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusYear, "year", 0, "broadcast year to report on")
	_ = statusCmd.MarkFlagRequired("year")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.assignments.CoverageByYear(cmd.Context(), statusYear)
	if err != nil {
		return fmt.Errorf("failed to get coverage: %w", err)
	}

	fmt.Fprintf(os.Stdout, "broadcast year %d\n", stats.Year)
	fmt.Fprintf(os.Stdout, "  spots:         %d\n", stats.TotalSpots)
	fmt.Fprintf(os.Stdout, "  assigned:      %d\n", stats.Assigned)
	fmt.Fprintf(os.Stdout, "  unassigned:    %d\n", stats.TotalSpots-stats.Assigned)
	fmt.Fprintf(os.Stdout, "  flagged:       %d\n", stats.Flagged)
	fmt.Fprintf(os.Stdout, "  auto-resolved: %d\n", stats.AutoResolved)

	if len(stats.CampaignTypes) > 0 {
		fmt.Fprintln(os.Stdout, "  campaign types:")
		types := make([]string, 0, len(stats.CampaignTypes))
		for t := range stats.CampaignTypes {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(os.Stdout, "    %-20s %d\n", t, stats.CampaignTypes[t])
		}
	}
	return nil
}
