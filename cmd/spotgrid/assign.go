package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var assignSpotID int64

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Classify and assign a single spot",
	Long: `Classifies one spot and saves its assignment. Re-running on an
already-assigned spot replaces the previous assignment with the latest
classification.`,
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().Int64Var(&assignSpotID, "spot", 0, "spot id to classify")
	_ = assignCmd.MarkFlagRequired("spot")
}

func runAssign(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	assignment, err := a.runner.ProcessSpot(cmd.Context(), assignSpotID)
	if err != nil {
		return fmt.Errorf("failed to assign spot %d: %w", assignSpotID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(assignment)
}
