package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hoangpro/omen/application/pipeline"
	"github.com/hoangpro/omen/domain/rules"
	domainsignal "github.com/hoangpro/omen/domain/signal"
	"github.com/hoangpro/omen/infrastructure/activity"
	"github.com/hoangpro/omen/infrastructure/background"
	cfgpkg "github.com/hoangpro/omen/infrastructure/config"
	"github.com/hoangpro/omen/infrastructure/dlq"
	"github.com/hoangpro/omen/infrastructure/httpapi"
	"github.com/hoangpro/omen/infrastructure/ledger"
	"github.com/hoangpro/omen/infrastructure/metrics"
	"github.com/hoangpro/omen/infrastructure/reconcile"
	"github.com/hoangpro/omen/infrastructure/repository"
	"github.com/hoangpro/omen/infrastructure/streaming"
	"github.com/hoangpro/omen/infrastructure/webhook"
)

func newServeCmd(registry *prometheus.Registry) *cobra.Command {
	var configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the live OMEN service",
		Long:  "Runs the signal pipeline's HTTP surface, background generator, and reconcile loop until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, port, registry)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port override")
	return cmd
}

func runServe(configPath string, portOverride int, registry *prometheus.Registry) error {
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

	repo := repository.Repository(repository.NewInMemoryRepository())

	queue := dlq.New(1000)
	hub := streaming.NewHub()
	metricsCollector := metrics.New(registry)
	activityRecorder := activity.NewRecorder()
	recorder := pipeline.MultiRecorder{metricsCollector, activityRecorder}

	var publisher pipeline.Publisher
	if cfg.Webhook.URL != "" {
		pub := webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret)
		pub.MaxRetries = cfg.Webhook.MaxRetries
		publisher = pub
	}

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.RulesetVersion = cfg.Pipeline.RulesetVersion
	pipelineCfg.MinConfidenceForOutput = cfg.Pipeline.MinConfidenceForOutput
	pipelineCfg.Live = cfg.Pipeline.Live

	orchestrator := pipeline.New(pipelineCfg, rules.DefaultConfig(), repo, led, queue, publisher, recorder)

	generator := background.New(backgroundConfigFrom(cfg), orchestrator, registerSources(), hubPublisher{hub})

	reconciler := reconcile.New(led, repository.NewReconcileAdapter(repo), reconcile.DefaultConfig())

	srvCfg := httpapi.DefaultConfig()
	if portOverride != 0 {
		srvCfg.Port = portOverride
	}
	server := httpapi.New(srvCfg, httpapi.Deps{
		Repo:       repo,
		Hub:        hub,
		Metrics:    metricsCollector,
		Activity:   activityRecorder,
		Generator:  generator,
		Reconciler: reconciler,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go generator.RunLoop(ctx)
	go reconciler.RunLoop(ctx)

	log.Info().Msg("omen: serve started")
	return server.ListenAndServe(ctx)
}

// hubPublisher adapts streaming.Hub to background.Publisher.
type hubPublisher struct{ hub *streaming.Hub }

func (h hubPublisher) Publish(sig domainsignal.OmenSignal) { h.hub.Publish(sig) }
