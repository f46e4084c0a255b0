package main

import (
	"context"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Normalize the given responses and spew-dump every canonical record",
	Long: `dump is like run, but prints the full canonical record set (typename
and every field, by DataID) instead of a reader projection, for inspecting
exactly what normalization wrote.

Example:
  cachetool dump --op viewer.yaml --response response.yaml`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("op", "", "operation fixture file (required)")
	dumpCmd.Flags().StringArray("response", nil, "response payload file, repeatable (required)")
	_ = dumpCmd.MarkFlagRequired("op")
	_ = dumpCmd.MarkFlagRequired("response")
}

func runDump(cmd *cobra.Command, args []string) error {
	opPath, _ := cmd.Flags().GetString("op")
	responses, _ := cmd.Flags().GetStringArray("response")

	ctx := context.Background()
	st, _, err := loadAndNormalize(ctx, opPath, responses)
	if err != nil {
		return err
	}

	spew.Dump(st)
	return nil
}
