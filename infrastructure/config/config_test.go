package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Pipeline.RulesetVersion, cfg.Pipeline.RulesetVersion)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "pipeline:\n  ruleset_version: v2.0.0\n  min_confidence_for_output: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", cfg.Pipeline.RulesetVersion)
	assert.Equal(t, 0.5, cfg.Pipeline.MinConfidenceForOutput)
}

func TestLoad_EnvOverridesFileAndDefaults(t *testing.T) {
	t.Setenv("OMEN_WEBHOOK_URL", "https://example.test/hook")
	t.Setenv("OMEN_ALLOW_LIVE_MODE", "true")
	t.Setenv("OMEN_PIPELINE_MIN_CONFIDENCE", "0.75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/hook", cfg.Webhook.URL)
	assert.True(t, cfg.LiveGate.MasterSwitch)
	assert.Equal(t, 0.75, cfg.Pipeline.MinConfidenceForOutput)
}

func TestLoad_DatabaseDSNEnvEnablesDatabase(t *testing.T) {
	t.Setenv("OMEN_DATABASE_DSN", "postgres://localhost/omen")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://localhost/omen", cfg.Database.DSN)
}

func TestValidate_RejectsDatabaseEnabledWithoutDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Enabled = true
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOutOfRangeConfidence(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.MinConfidenceForOutput = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOutOfRangeRealSourceRatio(t *testing.T) {
	cfg := Default()
	cfg.LiveGate.MinRealSourceRatio = -0.1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsWarmDaysBelowHotDays(t *testing.T) {
	cfg := Default()
	cfg.Ledger.HotDays = 10
	cfg.Ledger.WarmDays = 5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsColdDaysBelowWarmDays(t *testing.T) {
	cfg := Default()
	cfg.Ledger.WarmDays = 30
	cfg.Ledger.ColdDays = 10
	assert.Error(t, cfg.Validate())
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
