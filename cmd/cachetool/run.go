package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/cachecore/pkg/reader"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Normalize one or more responses against an operation and print the read result",
	Long: `run loads an operation fixture and normalizes each --response payload
into a fresh store in order, then reads the operation back and prints the
resulting snapshot as JSON.

Examples:
  # Normalize a single response and print the read result
  cachetool run --op viewer.yaml --response response.yaml

  # Simulate a second, deferred payload filling in a field the first omitted
  cachetool run --op viewer.yaml --response initial.yaml --response deferred.yaml`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("op", "", "operation fixture file (required)")
	runCmd.Flags().StringArray("response", nil, "response payload file, repeatable (required)")
	_ = runCmd.MarkFlagRequired("op")
	_ = runCmd.MarkFlagRequired("response")
}

func runRun(cmd *cobra.Command, args []string) error {
	opPath, _ := cmd.Flags().GetString("op")
	responses, _ := cmd.Flags().GetStringArray("response")

	ctx := context.Background()
	st, op, err := loadAndNormalize(ctx, opPath, responses)
	if err != nil {
		return err
	}

	snap := st.Lookup(ctx, op.ReaderSelector(), reader.Options{})
	out, err := json.MarshalIndent(snap.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("cachetool: marshal snapshot: %w", err)
	}

	fmt.Println(string(out))
	if snap.IsMissingData {
		fmt.Println("(missing data)")
	}
	return nil
}
