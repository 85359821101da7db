package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncpkg "github.com/jonathan/placement-tracker/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync the mailbox continuously",
	Long:  `Run sync cycles on a schedule until interrupted. The interval comes from the sync_spec config value, "@every 5m" by default.`,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := syncpkg.NewScheduler(a.syncer, a.cfg.SyncSpec, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	a.logger.Info("shutting down")
	cancel()
	scheduler.Stop()
	return nil
}
