package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// VenueConfig holds connectivity and fee parameters for one exchange leg.
type VenueConfig struct {
	ID            string          `yaml:"id"`
	Symbol        string          `yaml:"symbol"`
	BaseAsset     string          `yaml:"base_asset"`
	QuoteAsset    string          `yaml:"quote_asset"`
	RestURL       string          `yaml:"rest_url"`
	WSURL         string          `yaml:"ws_url"`
	AccessKey     string          `yaml:"access_key"`
	SecretKey     string          `yaml:"secret_key"`
	Passphrase    string          `yaml:"passphrase"`
	LongFee       decimal.Decimal `yaml:"long_fee"`
	ShortFee      decimal.Decimal `yaml:"short_fee"`
	SupportsShort bool            `yaml:"supports_short"`
	UsesMargin    bool            `yaml:"uses_margin"`
}

// Config holds all application settings. Sensitive values are overridden
// from environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Engine struct {
		Symbol             string          `yaml:"symbol"` // unified instrument, e.g. "BTC/USDT"
		WindowSize         int             `yaml:"window_size"`
		OpenCoef           decimal.Decimal `yaml:"open_coef"`
		CloseCoef          decimal.Decimal `yaml:"close_coef"`
		ParticipationRatio decimal.Decimal `yaml:"participation_ratio"`
		ExposureDivisor    decimal.Decimal `yaml:"exposure_divisor"`
		FeeSafetyMultiple  decimal.Decimal `yaml:"fee_safety_multiple"`
		StalenessSec       int             `yaml:"staleness_sec"`
		CycleIntervalMS    int             `yaml:"cycle_interval_ms"`
		Leg2MaxAttempts    int             `yaml:"leg2_max_attempts"`
	} `yaml:"engine"`

	Venue1 VenueConfig `yaml:"venue1"`
	Venue2 VenueConfig `yaml:"venue2"`

	Alert struct {
		WebhookURL string `yaml:"webhook_url"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"alert"`

	Storage struct {
		Path string `yaml:"path"` // sqlite file; empty = default user config dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides, fills defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero-valued tunables with the standard parameters.
func (c *Config) applyDefaults() {
	if c.Engine.WindowSize == 0 {
		c.Engine.WindowSize = 3600
	}
	if c.Engine.OpenCoef.IsZero() {
		c.Engine.OpenCoef = decimal.NewFromFloat(2.0)
	}
	if c.Engine.CloseCoef.IsZero() {
		c.Engine.CloseCoef = decimal.NewFromFloat(0.3)
	}
	if c.Engine.ParticipationRatio.IsZero() {
		c.Engine.ParticipationRatio = decimal.NewFromFloat(0.25)
	}
	if c.Engine.ExposureDivisor.IsZero() {
		c.Engine.ExposureDivisor = decimal.NewFromInt(10)
	}
	if c.Engine.FeeSafetyMultiple.IsZero() {
		c.Engine.FeeSafetyMultiple = decimal.NewFromInt(3)
	}
	if c.Engine.StalenessSec == 0 {
		c.Engine.StalenessSec = 3
	}
	if c.Engine.CycleIntervalMS == 0 {
		c.Engine.CycleIntervalMS = 1000
	}
	if c.Engine.Leg2MaxAttempts == 0 {
		c.Engine.Leg2MaxAttempts = 5
	}
	if c.Alert.TimeoutSec == 0 {
		c.Alert.TimeoutSec = 5
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Engine.Symbol == "" {
		return fmt.Errorf("engine symbol is required")
	}
	if c.Engine.WindowSize < 1 {
		return fmt.Errorf("window size must be >= 1, got %d", c.Engine.WindowSize)
	}
	if !c.Engine.ParticipationRatio.IsPositive() || c.Engine.ParticipationRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("participation ratio must be in (0, 1]: %s", c.Engine.ParticipationRatio)
	}
	if !c.Engine.ExposureDivisor.IsPositive() {
		return fmt.Errorf("exposure divisor must be positive: %s", c.Engine.ExposureDivisor)
	}
	if c.Engine.StalenessSec <= 0 {
		return fmt.Errorf("staleness threshold must be positive")
	}
	if c.Engine.Leg2MaxAttempts < 1 {
		return fmt.Errorf("leg2 max attempts must be >= 1")
	}

	for _, v := range []*VenueConfig{&c.Venue1, &c.Venue2} {
		if v.ID == "" || v.Symbol == "" {
			return fmt.Errorf("venue id and symbol are required")
		}
		if v.RestURL == "" || (!strings.HasPrefix(v.RestURL, "http://") && !strings.HasPrefix(v.RestURL, "https://")) {
			return fmt.Errorf("invalid REST URL for %s: %s", v.ID, v.RestURL)
		}
		if v.WSURL != "" && !strings.HasPrefix(v.WSURL, "ws://") && !strings.HasPrefix(v.WSURL, "wss://") {
			return fmt.Errorf("invalid WS URL for %s: %s", v.ID, v.WSURL)
		}
	}

	return nil
}

// overrideWithEnv overrides sensitive values from environment variables.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("ARB_VENUE1_KEY"); key != "" {
		cfg.Venue1.AccessKey = key
	}
	if secret := os.Getenv("ARB_VENUE1_SECRET"); secret != "" {
		cfg.Venue1.SecretKey = secret
	}
	if key := os.Getenv("ARB_VENUE2_KEY"); key != "" {
		cfg.Venue2.AccessKey = key
	}
	if secret := os.Getenv("ARB_VENUE2_SECRET"); secret != "" {
		cfg.Venue2.SecretKey = secret
	}
	if pass := os.Getenv("ARB_VENUE1_PASSPHRASE"); pass != "" {
		cfg.Venue1.Passphrase = pass
	}
	if pass := os.Getenv("ARB_VENUE2_PASSPHRASE"); pass != "" {
		cfg.Venue2.Passphrase = pass
	}
	if url := os.Getenv("ARB_ALERT_WEBHOOK"); url != "" {
		cfg.Alert.WebhookURL = url
	}
}
