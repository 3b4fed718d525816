package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/infrastructure/circuit"
	"github.com/hoangpro/omen/sources"
)

// registerSources builds the guarded, rate-limited, circuit-broken
// source set the background generator polls. Each adapter is wired
// with its real fetch logic (keyword/gate/anomaly processing); the
// upstream HTTP fetch itself is a deployment-specific credential, left
// as a no-op placeholder that logs until an operator plugs in a real
// client for that feed.
func registerSources() map[string]sources.Source {
	breakerCfg := circuit.DefaultConfig()

	market := sources.NewMarketSource(notConfiguredMarketFetcher)
	news := sources.NewNewsSource(notConfiguredNewsFetcher, sources.NewNewsQualityGate(sources.DefaultNewsGateConfig()))
	commodity := sources.NewCommoditySource(notConfiguredCommodityFetcher, sources.DefaultCommodityGateConfig())
	ais := sources.NewAISSource(notConfiguredAISFetcher, 1.5)
	freight := sources.NewFreightSource(notConfiguredFreightFetcher)
	weather := sources.NewWeatherSource(notConfiguredWeatherFetcher)

	return map[string]sources.Source{
		"market":    sources.NewGuardedSource(market, breakerCfg, 2, 5),
		"news":      sources.NewGuardedSource(news, breakerCfg, 2, 5),
		"commodity": sources.NewGuardedSource(commodity, breakerCfg, 1, 3),
		"ais":       sources.NewGuardedSource(ais, breakerCfg, 1, 3),
		"freight":   sources.NewGuardedSource(freight, breakerCfg, 1, 3),
		"weather":   sources.NewGuardedSource(weather, breakerCfg, 1, 3),
	}
}

func notConfiguredMarketFetcher(ctx context.Context, limit int) ([]sources.RawMarket, error) {
	log.Debug().Msg("sources: market feed not configured, returning empty batch")
	return nil, nil
}

func notConfiguredNewsFetcher(ctx context.Context, limit int) ([]sources.NewsArticle, error) {
	log.Debug().Msg("sources: news feed not configured, returning empty batch")
	return nil, nil
}

func notConfiguredCommodityFetcher(ctx context.Context) ([]sources.PriceTimeSeries, error) {
	log.Debug().Msg("sources: commodity feed not configured, returning empty batch")
	return nil, nil
}

func notConfiguredAISFetcher(ctx context.Context) ([]sources.PortCongestionObservation, []sources.ChokepointDelayObservation, []sources.VesselPosition, error) {
	log.Debug().Msg("sources: AIS feed not configured, returning empty batch")
	return nil, nil, nil, nil
}

func notConfiguredFreightFetcher(ctx context.Context) ([]sources.FreightRateObservation, error) {
	log.Debug().Msg("sources: freight feed not configured, returning empty batch")
	return nil, nil
}

func notConfiguredWeatherFetcher(ctx context.Context) ([]sources.WeatherObservation, error) {
	log.Debug().Msg("sources: weather feed not configured, returning empty batch")
	return nil, nil
}
