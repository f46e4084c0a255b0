package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/cachecore/pkg/fixture"
	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/publishqueue"
	"github.com/cuemby/cachecore/pkg/reader"
	"github.com/cuemby/cachecore/pkg/scheduler"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/store"
)

var optimisticCmd = &cobra.Command{
	Use:   "optimistic",
	Short: "Apply a patch optimistically on top of a response, then confirm or revert it",
	Long: `optimistic commits --response through a PublishQueue, applies --patch as
an optimistic update on top of it, and prints the read result before and
after the patch is confirmed (left applied) or reverted (disposed).

Examples:
  cachetool optimistic --op viewer.yaml --response response.yaml --patch patch.yaml --confirm
  cachetool optimistic --op viewer.yaml --response response.yaml --patch patch.yaml`,
	RunE: runOptimistic,
}

func init() {
	optimisticCmd.Flags().String("op", "", "operation fixture file (required)")
	optimisticCmd.Flags().String("response", "", "authoritative response payload file (required)")
	optimisticCmd.Flags().String("patch", "", "response-shaped payload applied optimistically (required)")
	optimisticCmd.Flags().Bool("confirm", false, "leave the optimistic patch applied instead of reverting it")
	_ = optimisticCmd.MarkFlagRequired("op")
	_ = optimisticCmd.MarkFlagRequired("response")
	_ = optimisticCmd.MarkFlagRequired("patch")
}

func runOptimistic(cmd *cobra.Command, args []string) error {
	opPath, _ := cmd.Flags().GetString("op")
	responsePath, _ := cmd.Flags().GetString("response")
	patchPath, _ := cmd.Flags().GetString("patch")
	confirm, _ := cmd.Flags().GetBool("confirm")

	ctx := context.Background()
	op, err := fixture.LoadOperation(opPath)
	if err != nil {
		return err
	}
	response, err := fixture.LoadResponse(responsePath)
	if err != nil {
		return err
	}
	patch, err := fixture.LoadResponse(patchPath)
	if err != nil {
		return err
	}

	st := store.New(scheduler.Immediate)
	handles := defaultHandleRegistry()
	queue := publishqueue.New(st, handles)

	respSink := source.New()
	respPayloads, err := normalize.Normalize(ctx, op.NormalizationSelector(), response, respSink, normalize.Options{})
	if err != nil {
		return fmt.Errorf("cachetool: normalize response: %w", err)
	}
	queue.CommitPayload(respSink, respPayloads)
	if _, err := queue.Run(ctx); err != nil {
		return err
	}
	if err := printSnapshot("after response", st, op); err != nil {
		return err
	}

	patchSink := source.New()
	patchPayloads, err := normalize.Normalize(ctx, op.NormalizationSelector(), patch, patchSink, normalize.Options{})
	if err != nil {
		return fmt.Errorf("cachetool: normalize patch: %w", err)
	}
	disp := queue.ApplyOptimisticUpdate(publishqueue.NewSourceOptimisticUpdate(patchSink, patchPayloads))
	if _, err := queue.Run(ctx); err != nil {
		return err
	}
	if err := printSnapshot("after optimistic patch", st, op); err != nil {
		return err
	}

	if confirm {
		fmt.Println("patch left applied (--confirm)")
		return nil
	}

	disp.Dispose()
	if _, err := queue.Run(ctx); err != nil {
		return err
	}
	return printSnapshot("after revert", st, op)
}

func printSnapshot(label string, st *store.Store, op *fixture.Operation) error {
	snap := st.Lookup(context.Background(), op.ReaderSelector(), reader.Options{})
	out, err := json.MarshalIndent(snap.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("cachetool: marshal snapshot: %w", err)
	}
	fmt.Printf("--- %s ---\n%s\n", label, out)
	return nil
}
