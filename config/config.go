// Package config loads bot configuration from a yaml file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tudor/internal/domain"
)

type Config struct {
	Platform string
	Pair     domain.Pair

	LongWindow     int
	ShortWindow    int
	CandleInterval string
	CandleLimit    int

	StopLossPct           decimal.Decimal
	TrailingStopPct       decimal.Decimal
	TrailingActivationPct decimal.Decimal
	InvestRatio           decimal.Decimal
	MinTradeAmount        decimal.Decimal

	ReentryEnabled  bool
	ReentryCooldown time.Duration

	TickInterval time.Duration
	RetryCount   int
	RetryDelay   time.Duration
	SettleDelay  time.Duration

	StateFilePath string
	TradesWALDir  string

	TelegramEnabled bool
	TelegramChatID  string
	HeartbeatEvery  int
}

// ConfigTmp mirrors the yaml layout. Decimals travel as strings so yaml
// floats never round-trip through float64.
type ConfigTmp struct {
	Platform       string `yaml:"platform"`
	Pair           string `yaml:"pair"`
	LongWindow     int    `yaml:"long_window,omitempty"`
	ShortWindow    int    `yaml:"short_window,omitempty"`
	CandleInterval string `yaml:"candle_interval,omitempty"`
	CandleLimit    int    `yaml:"candle_limit,omitempty"`

	StopLossPct           string `yaml:"stop_loss_pct,omitempty"`
	TrailingStopPct       string `yaml:"trailing_stop_pct,omitempty"`
	TrailingActivationPct string `yaml:"trailing_activation_pct,omitempty"`
	InvestRatio           string `yaml:"invest_ratio,omitempty"`
	MinTradeAmount        string `yaml:"min_trade_amount,omitempty"`

	ReentryEnabled  *bool         `yaml:"reentry_enabled,omitempty"`
	ReentryCooldown time.Duration `yaml:"reentry_cooldown,omitempty"`

	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
	RetryCount   int           `yaml:"retry_count,omitempty"`
	RetryDelay   time.Duration `yaml:"retry_delay,omitempty"`
	SettleDelay  time.Duration `yaml:"settle_delay,omitempty"`

	StateFilePath string `yaml:"state_file,omitempty"`
	TradesWALDir  string `yaml:"trades_wal_dir,omitempty"`

	TelegramEnabled bool   `yaml:"telegram_enabled,omitempty"`
	TelegramChatID  string `yaml:"telegram_chat_id,omitempty"`
	HeartbeatEvery  int    `yaml:"heartbeat_every,omitempty"`
}

func defaults() Config {
	return Config{
		Platform:              "binance",
		LongWindow:            200,
		ShortWindow:           50,
		CandleInterval:        "1d",
		CandleLimit:           250,
		StopLossPct:           decimal.NewFromFloat(0.07),
		TrailingStopPct:       decimal.NewFromFloat(0.10),
		TrailingActivationPct: decimal.NewFromFloat(0.08),
		InvestRatio:           decimal.NewFromFloat(0.9),
		MinTradeAmount:        decimal.NewFromInt(10),
		ReentryEnabled:        true,
		ReentryCooldown:       4 * time.Hour,
		TickInterval:          time.Minute,
		RetryCount:            3,
		RetryDelay:            2 * time.Second,
		SettleDelay:           2 * time.Second,
		StateFilePath:         "./position.json",
		TradesWALDir:          "./wal/trades",
		HeartbeatEvery:        60,
	}
}

// Get loads configuration from the yaml file named by -config, or from the
// remaining CLI flags with defaults when no file is given.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	platformFlag := flag.String("platform", "binance", "exchange platform: binance or bybit")
	tickFlag := flag.Duration("tickinterval", time.Minute, "decision tick interval")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := pairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}

	cfg := defaults()
	cfg.Platform = *platformFlag
	cfg.Pair = pair
	cfg.TickInterval = *tickFlag

	return cfg, validate(cfg)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	return fromTmp(tmp)
}

func fromTmp(tmp ConfigTmp) (Config, error) {
	cfg := defaults()

	pair, err := pairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}
	cfg.Pair = pair

	if tmp.Platform != "" {
		cfg.Platform = tmp.Platform
	}
	if tmp.LongWindow > 0 {
		cfg.LongWindow = tmp.LongWindow
	}
	if tmp.ShortWindow > 0 {
		cfg.ShortWindow = tmp.ShortWindow
	}
	if tmp.CandleInterval != "" {
		cfg.CandleInterval = tmp.CandleInterval
	}
	if tmp.CandleLimit > 0 {
		cfg.CandleLimit = tmp.CandleLimit
	}

	if cfg.StopLossPct, err = overrideDecimal(cfg.StopLossPct, tmp.StopLossPct, "stop_loss_pct"); err != nil {
		return Config{}, err
	}
	if cfg.TrailingStopPct, err = overrideDecimal(cfg.TrailingStopPct, tmp.TrailingStopPct, "trailing_stop_pct"); err != nil {
		return Config{}, err
	}
	if cfg.TrailingActivationPct, err = overrideDecimal(cfg.TrailingActivationPct, tmp.TrailingActivationPct, "trailing_activation_pct"); err != nil {
		return Config{}, err
	}
	if cfg.InvestRatio, err = overrideDecimal(cfg.InvestRatio, tmp.InvestRatio, "invest_ratio"); err != nil {
		return Config{}, err
	}
	if cfg.MinTradeAmount, err = overrideDecimal(cfg.MinTradeAmount, tmp.MinTradeAmount, "min_trade_amount"); err != nil {
		return Config{}, err
	}

	if tmp.ReentryEnabled != nil {
		cfg.ReentryEnabled = *tmp.ReentryEnabled
	}
	if tmp.ReentryCooldown > 0 {
		cfg.ReentryCooldown = tmp.ReentryCooldown
	}
	if tmp.TickInterval > 0 {
		cfg.TickInterval = tmp.TickInterval
	}
	if tmp.RetryCount > 0 {
		cfg.RetryCount = tmp.RetryCount
	}
	if tmp.RetryDelay > 0 {
		cfg.RetryDelay = tmp.RetryDelay
	}
	if tmp.SettleDelay > 0 {
		cfg.SettleDelay = tmp.SettleDelay
	}
	if tmp.StateFilePath != "" {
		cfg.StateFilePath = tmp.StateFilePath
	}
	if tmp.TradesWALDir != "" {
		cfg.TradesWALDir = tmp.TradesWALDir
	}

	cfg.TelegramEnabled = tmp.TelegramEnabled
	cfg.TelegramChatID = tmp.TelegramChatID
	if tmp.HeartbeatEvery > 0 {
		cfg.HeartbeatEvery = tmp.HeartbeatEvery
	}

	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	if cfg.Platform != "binance" && cfg.Platform != "bybit" {
		return fmt.Errorf("unsupported platform: %s", cfg.Platform)
	}
	if cfg.ShortWindow < 1 || cfg.LongWindow < cfg.ShortWindow {
		return fmt.Errorf("invalid MA windows: long=%d short=%d", cfg.LongWindow, cfg.ShortWindow)
	}
	if cfg.CandleLimit < cfg.LongWindow+1 {
		return fmt.Errorf("candle_limit must be at least long_window+1 (%d), got %d", cfg.LongWindow+1, cfg.CandleLimit)
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if cfg.TelegramEnabled && cfg.TelegramChatID == "" {
		return fmt.Errorf("telegram_chat_id is required when telegram is enabled")
	}
	return nil
}

func overrideDecimal(current decimal.Decimal, raw, name string) (decimal.Decimal, error) {
	if raw == "" {
		return current, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal), error: %w", name, err)
	}
	return value, nil
}

func pairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 || pairElements[0] == "" || pairElements[1] == "" {
		return domain.Pair{}, fmt.Errorf("invalid pair param")
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}
