package main

import (
	"time"

	"github.com/hoangpro/omen/application/pipeline"
	"github.com/hoangpro/omen/infrastructure/background"
	cfgpkg "github.com/hoangpro/omen/infrastructure/config"
)

func backgroundConfigFrom(cfg cfgpkg.Config) background.Config {
	return background.Config{
		PollInterval: time.Duration(cfg.Generator.PollIntervalSeconds) * time.Second,
		FetchTimeout: time.Duration(cfg.Generator.FetchTimeoutSeconds) * time.Second,
		FetchLimit:   cfg.Generator.FetchLimit,
	}
}

func newGenerator(cfg background.Config, orchestrator *pipeline.Orchestrator) *background.Generator {
	return background.New(cfg, orchestrator, registerSources(), nil)
}
