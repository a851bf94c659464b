package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const validYAML = `
app:
  name: "arb_go"
engine:
  symbol: "BTC/USDT"
venue1:
  id: "alphax"
  symbol: "BTC/USDT"
  base_asset: "BTC"
  quote_asset: "USDT"
  rest_url: "https://api.alphax.example.com"
  ws_url: "wss://stream.alphax.example.com/ws"
  long_fee: 0.001
  short_fee: 0.001
  supports_short: true
venue2:
  id: "betabit"
  symbol: "BTC/USDT"
  base_asset: "BTC"
  quote_asset: "USDT"
  rest_url: "https://api.betabit.example.com"
logging:
  level: "debug"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Engine.WindowSize != 3600 {
		t.Errorf("Expected default window 3600, got %d", cfg.Engine.WindowSize)
	}
	if !cfg.Engine.OpenCoef.Equal(decimal.NewFromFloat(2.0)) {
		t.Errorf("Expected default open coef 2.0, got %s", cfg.Engine.OpenCoef)
	}
	if !cfg.Engine.CloseCoef.Equal(decimal.NewFromFloat(0.3)) {
		t.Errorf("Expected default close coef 0.3, got %s", cfg.Engine.CloseCoef)
	}
	if !cfg.Engine.ParticipationRatio.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("Expected default participation 0.25, got %s", cfg.Engine.ParticipationRatio)
	}
	if cfg.Engine.StalenessSec != 3 {
		t.Errorf("Expected default staleness 3s, got %d", cfg.Engine.StalenessSec)
	}
	if cfg.Engine.Leg2MaxAttempts != 5 {
		t.Errorf("Expected default retry budget 5, got %d", cfg.Engine.Leg2MaxAttempts)
	}
	if !cfg.Venue1.SupportsShort || cfg.Venue2.SupportsShort {
		t.Error("Venue capability flags not parsed")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ARB_VENUE1_KEY", "env-key")
	t.Setenv("ARB_VENUE1_SECRET", "env-secret")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Venue1.AccessKey != "env-key" || cfg.Venue1.SecretKey != "env-secret" {
		t.Errorf("Env override not applied: key=%q", cfg.Venue1.AccessKey)
	}
}

func TestLoadConfig_InvalidRestURL(t *testing.T) {
	bad := `
engine:
  symbol: "BTC/USDT"
venue1:
  id: "alphax"
  symbol: "BTC/USDT"
  rest_url: "ftp://nope"
venue2:
  id: "betabit"
  symbol: "BTC/USDT"
  rest_url: "https://ok.example.com"
`
	if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
		t.Fatal("Expected validation error for bad REST URL")
	}
}

func TestLoadConfig_MissingSymbol(t *testing.T) {
	bad := `
venue1:
  id: "alphax"
  symbol: "BTC/USDT"
  rest_url: "https://ok.example.com"
venue2:
  id: "betabit"
  symbol: "BTC/USDT"
  rest_url: "https://ok.example.com"
`
	if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
		t.Fatal("Expected validation error for missing engine symbol")
	}
}

func TestValidate_ParticipationBounds(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cfg.Engine.ParticipationRatio = decimal.NewFromFloat(1.5)
	if err := cfg.Validate(); err == nil {
		t.Error("Expected rejection of participation ratio > 1")
	}

	cfg.Engine.ParticipationRatio = decimal.NewFromFloat(-0.1)
	if err := cfg.Validate(); err == nil {
		t.Error("Expected rejection of negative participation ratio")
	}
}
