package rules

import (
	"fmt"

	"github.com/hoangpro/omen/domain/signal"
)

// LiquidityRule is the cheapest filter and runs first: an event's
// current_liquidity_usd must meet a floor. Score rewards liquidity above
// the floor up to a 10x multiple, capped at 1.0 — exactly at the floor
// the score is 0.1.
type LiquidityRule struct{}

func (r *LiquidityRule) Name() string { return RuleLiquidity }

func (r *LiquidityRule) Evaluate(event signal.RawSignalEvent, cfg Config) (signal.ValidationResult, error) {
	liquidity := event.Market.CurrentLiquidityUSD
	if liquidity < cfg.MinLiquidityUSD {
		return signal.ValidationResult{
			RuleName:    r.Name(),
			RuleVersion: ruleVersion,
			Status:      signal.StatusRejectedLowLiquidity,
			Score:       0,
			Reason:      fmt.Sprintf("liquidity %.2f below minimum %.2f", liquidity, cfg.MinLiquidityUSD),
		}, nil
	}

	score := 1.0
	if cfg.MinLiquidityUSD > 0 {
		score = liquidity / (10 * cfg.MinLiquidityUSD)
		if score > 1.0 {
			score = 1.0
		}
	}

	return signal.ValidationResult{
		RuleName:    r.Name(),
		RuleVersion: ruleVersion,
		Status:      signal.StatusPassed,
		Score:       score,
		Reason:      fmt.Sprintf("liquidity %.2f meets minimum %.2f", liquidity, cfg.MinLiquidityUSD),
	}, nil
}
