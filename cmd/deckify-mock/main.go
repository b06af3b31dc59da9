// Command deckify-mock serves a canned analysis backend for local testing.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"deckify/internal/logging"
	"deckify/internal/mockbackend"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newMockCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newMockCommand() *cobra.Command {
	var addr string
	var latency time.Duration
	var logLevel string

	cmd := &cobra.Command{
		Use:           "deckify-mock",
		Short:         "Serve a canned page analysis backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Level: logLevel, Format: "console"})
			if err != nil {
				return err
			}
			srv := mockbackend.New(mockbackend.Options{Latency: latency, Logger: logger})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "Listen address")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every analysis response")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}
