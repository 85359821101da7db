package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/placement-tracker/internal/observability"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one mailbox sync cycle",
	Long:  `Fetch new placement-cell emails since the stored cursor, run them through the extraction pipeline, and advance the cursor.`,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.syncer.RunCycle(ctx)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintBatchSummary(summary)
	return nil
}
