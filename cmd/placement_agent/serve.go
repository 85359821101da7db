package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/placement-tracker/internal/server"
)

var serveWithMail bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing the stored placement drives. With --sync, the Gmail source is connected and an authenticated endpoint can trigger sync cycles on demand.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithMail, "sync", false, "Connect the mailbox source for the sync trigger endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, serveWithMail)
	if err != nil {
		return err
	}
	defer a.Close()

	var syncer server.SyncRunner
	if a.syncer != nil {
		syncer = a.syncer
	}

	srv := server.New(server.Config{
		Addr:      a.cfg.ServerAddr,
		JWTSecret: a.cfg.JWTSecret,
	}, a.database, syncer, a.pipeline, a.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
