package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect registered source providers",
	}
	cmd.AddCommand(newProvidersProbeCmd())
	return cmd
}

func newProvidersProbeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch once from every registered source and report health",
		Long:  "Exercises each source's FetchEvents once and prints its event count, latency, and circuit breaker state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvidersProbe(timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Per-source fetch timeout")
	return cmd
}

type guardedState interface {
	State() string
}

func runProvidersProbe(timeout time.Duration) error {
	srcs := registerSources()

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if isTTY {
		fmt.Printf("%-12s %-10s %-10s %s\n", "SOURCE", "EVENTS", "LATENCY", "BREAKER")
	}

	for name, src := range srcs {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		start := time.Now()
		events, err := src.FetchEvents(ctx, 10, nil)
		latency := time.Since(start)
		cancel()

		breakerState := "n/a"
		if g, ok := src.(guardedState); ok {
			breakerState = g.State()
		}

		if err != nil {
			fmt.Printf("%-12s %-10s %-10s %-10s error=%v\n", name, "-", latency.Round(time.Millisecond), breakerState, err)
			continue
		}
		fmt.Printf("%-12s %-10d %-10s %-10s\n", name, len(events), latency.Round(time.Millisecond), breakerState)
	}
	return nil
}
