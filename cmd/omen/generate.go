package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoangpro/omen/application/pipeline"
	"github.com/hoangpro/omen/domain/rules"
	cfgpkg "github.com/hoangpro/omen/infrastructure/config"
	"github.com/hoangpro/omen/infrastructure/dlq"
	"github.com/hoangpro/omen/infrastructure/ledger"
	"github.com/hoangpro/omen/infrastructure/repository"
)

func newGenerateCmd() *cobra.Command {
	var configPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one fetch-and-generate cycle over every registered source",
		Long:  "Fetches from every source once, runs the pipeline, and prints a per-source summary. Useful for one-shot/cron-driven deployments instead of the long-running 'serve' loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(configPath, timeout)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall cycle timeout")
	return cmd
}

func runGenerate(configPath string, timeout time.Duration) error {
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
	queue := dlq.New(1000)

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.RulesetVersion = cfg.Pipeline.RulesetVersion
	pipelineCfg.MinConfidenceForOutput = cfg.Pipeline.MinConfidenceForOutput
	pipelineCfg.Live = cfg.Pipeline.Live

	orchestrator := pipeline.New(pipelineCfg, rules.DefaultConfig(), repo, led, queue, nil, nil)

	genCfg := backgroundConfigFrom(cfg)
	generator := newGenerator(genCfg, orchestrator)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results := generator.RunCycle(ctx)
	for name, result := range results {
		if result.Err != nil {
			fmt.Printf("%-10s error: %v\n", name, result.Err)
			continue
		}
		fmt.Printf("%-10s fetched=%-4d generated=%-4d rejected=%-4d\n", name, result.EventsFetched, result.Generated, result.Rejected)
	}
	return nil
}
