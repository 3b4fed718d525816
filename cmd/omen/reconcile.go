package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/hoangpro/omen/infrastructure/config"
	"github.com/hoangpro/omen/infrastructure/ledger"
	"github.com/hoangpro/omen/infrastructure/reconcile"
	"github.com/hoangpro/omen/infrastructure/repository"
)

func newReconcileCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile the ledger against the signal repository once",
		Long:  "Compares every eligible ledger partition against the repository, replays missing ids, and exits non-zero if any partition failed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	return cmd
}

func runReconcile(configPath string) error {
	cfg, err := cfgpkg.Load(configPath)
	if err != nil {
		return err
	}

	led := ledger.New(ledger.Config{
		BaseDir:              cfg.Ledger.BaseDir,
		AutoSealAfterHours:   cfg.Ledger.AutoSealAfterHours,
		SealGracePeriodHours: cfg.Ledger.SealGracePeriodHours,
		HotDays:              cfg.Ledger.HotDays,
		WarmDays:             cfg.Ledger.WarmDays,
		ColdDays:             cfg.Ledger.ColdDays,
		CompressWarm:         true,
	})
	repo := repository.NewInMemoryRepository()
	reconciler := reconcile.New(led, repository.NewReconcileAdapter(repo), reconcile.DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	results, err := reconciler.RunOnce(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%-18s status=%-10s ledger=%-5d processed=%-5d missing=%-5d replayed=%-5d\n",
			r.Partition, r.Status, r.LedgerRecordCount, r.ProcessedCount, r.MissingCount, r.ReplayedCount)
	}

	if code := reconcile.ExitCode(results); code != 0 {
		failed := 0
		for _, r := range results {
			if r.Status == reconcile.StatusFailed {
				failed++
			}
		}
		return fmt.Errorf("reconcile: %d partition(s) failed", failed)
	}
	return nil
}
