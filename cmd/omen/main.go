package main

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "omen"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	registry := prometheus.NewRegistry()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "OMEN signal intelligence engine",
		Version: version,
		Long: `OMEN turns market, news, commodity, shipping-tracking, freight, and
weather signals into explainable supply-chain disruption alerts.

Run 'omen serve' to start the live service, or use the subcommands
below for one-shot operations.`,
	}

	rootCmd.AddCommand(newServeCmd(registry))
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newProvidersCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
