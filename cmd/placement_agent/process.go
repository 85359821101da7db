package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/placement-tracker/internal/observability"
	"github.com/jonathan/placement-tracker/internal/types"
)

var (
	processSubject string
	processSender  string
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Process a single email through the pipeline",
	Long: `Run one email through the extraction pipeline without touching the mailbox.
The input file (stdin when omitted) holds either a JSON message object or,
when --subject is given, the raw HTML or plain-text body.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processSubject, "subject", "", "Subject line; treats the input as a raw body")
	processCmd.Flags().StringVar(&processSender, "sender", "", "Sender address for the raw body form")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	input := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var msg types.RawMessage
	if processSubject != "" {
		msg = types.RawMessage{
			ExternalID: "manual-" + uuid.NewString(),
			Sender:     processSender,
			Subject:    processSubject,
			RawBody:    string(data),
			ReceivedAt: time.Now().UTC(),
		}
	} else {
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to parse message JSON: %w", err)
		}
		if msg.ExternalID == "" {
			return fmt.Errorf("message external_id is required")
		}
		if msg.ReceivedAt.IsZero() {
			msg.ReceivedAt = time.Now().UTC()
		}
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := a.pipeline.ProcessMessage(ctx, msg)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintOutcome(outcome)
	if outcome.Drive != nil {
		printer.PrintDrive(*outcome.Drive)
	}
	return outcome.Err
}
