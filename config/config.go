package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

const dateLayout = "2006-01-02"

type Config struct {
	ReferenceCurrency string        `toml:"reference_currency"`
	Savings           SavingsConfig `toml:"savings"`
	Cards             CardsConfig   `toml:"cards"`
	Plans             PlansConfig   `toml:"plans"`
	IDs               IDsConfig     `toml:"ids"`
	Log               LogConfig     `toml:"log"`
	Metrics           MetricsConfig `toml:"metrics"`
}

type SavingsConfig struct {
	ReferenceDate string `toml:"reference_date"`
	MinimumAge    int    `toml:"minimum_age"`
}

type CardsConfig struct {
	WarningBand float64 `toml:"warning_band"`
}

type PlansConfig struct {
	GoldUpgradeThreshold float64 `toml:"gold_upgrade_threshold"`
	GoldUpgradeCount     int     `toml:"gold_upgrade_count"`
}

type IDsConfig struct {
	Seed int64 `toml:"seed"`
}

type LogConfig struct {
	Verbose bool `toml:"verbose"`
}

type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

func DefaultConfig() Config {
	return Config{
		ReferenceCurrency: string(shared.RON),
		Savings: SavingsConfig{
			ReferenceDate: "2024-12-15",
			MinimumAge:    21,
		},
		Cards: CardsConfig{
			WarningBand: 30,
		},
		Plans: PlansConfig{
			GoldUpgradeThreshold: 300,
			GoldUpgradeCount:     5,
		},
	}
}

// Load reads a TOML file over the defaults. An empty path yields the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return finish(cfg, meta)
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.Decode(doc, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(cfg, meta)
}

func finish(cfg Config, meta toml.MetaData) (Config, error) {
	for _, key := range meta.Undecoded() {
		log.Printf("Warning: unknown config key %q ignored", key.String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ReferenceCurrency) == "" {
		return fmt.Errorf("config: reference_currency cannot be empty")
	}
	if _, err := time.Parse(dateLayout, c.Savings.ReferenceDate); err != nil {
		return fmt.Errorf("config: savings.reference_date %q is not YYYY-MM-DD: %w", c.Savings.ReferenceDate, err)
	}
	if c.Savings.MinimumAge <= 0 {
		return fmt.Errorf("config: savings.minimum_age must be positive, got %d", c.Savings.MinimumAge)
	}
	if c.Cards.WarningBand < 0 {
		return fmt.Errorf("config: cards.warning_band cannot be negative, got %v", c.Cards.WarningBand)
	}
	if c.Plans.GoldUpgradeThreshold < 0 || c.Plans.GoldUpgradeCount <= 0 {
		return fmt.Errorf("config: plans.gold_upgrade_threshold must be >= 0 and gold_upgrade_count > 0")
	}
	return nil
}

func (c Config) Reference() shared.Currency {
	return shared.ParseCurrency(c.ReferenceCurrency)
}

// ReferenceDate is the day savings withdrawals check the owner's age
// against. Validate guarantees it parses.
func (c Config) ReferenceDate() time.Time {
	d, _ := time.Parse(dateLayout, c.Savings.ReferenceDate)
	return d
}

func (c Config) WarningBand() decimal.Decimal {
	return decimal.NewFromFloat(c.Cards.WarningBand)
}

func (c Config) GoldThreshold() decimal.Decimal {
	return decimal.NewFromFloat(c.Plans.GoldUpgradeThreshold)
}
