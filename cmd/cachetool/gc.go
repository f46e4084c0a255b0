package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Force a garbage collection sweep and report what survived",
	Long: `gc normalizes the given responses, optionally retains the operation's
root, then forces a mark-sweep and reports the record count before and
after, plus whether the operation's data is still available.

Examples:
  # Unretained data should be swept away
  cachetool gc --op viewer.yaml --response response.yaml

  # Retained data should survive the sweep
  cachetool gc --op viewer.yaml --response response.yaml --retain`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().String("op", "", "operation fixture file (required)")
	gcCmd.Flags().StringArray("response", nil, "response payload file, repeatable (required)")
	gcCmd.Flags().Bool("retain", false, "retain the operation's root before sweeping")
	_ = gcCmd.MarkFlagRequired("op")
	_ = gcCmd.MarkFlagRequired("response")
}

func runGC(cmd *cobra.Command, args []string) error {
	opPath, _ := cmd.Flags().GetString("op")
	responses, _ := cmd.Flags().GetStringArray("response")
	retain, _ := cmd.Flags().GetBool("retain")

	ctx := context.Background()
	st, op, err := loadAndNormalize(ctx, opPath, responses)
	if err != nil {
		return err
	}

	before := st.Stats().Records
	if retain {
		// Each Descriptor() call mints a fresh token, so this retain is
		// tracked independently of the one below and is never disposed:
		// the process exits right after the sweep runs.
		st.Retain(op.Descriptor())
	}

	// Store only triggers a sweep on a Retain/Dispose transition, so force
	// one here with a throwaway retain that is disposed immediately.
	disp := st.Retain(op.Descriptor())
	disp.Dispose()

	after := st.Stats().Records
	fmt.Printf("records before sweep: %d\n", before)
	fmt.Printf("records after sweep:  %d\n", after)
	fmt.Printf("operation data available after sweep: %v\n", st.Check(op.ReaderSelector()))
	return nil
}
