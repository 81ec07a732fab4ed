package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"algo-trader-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env       string                  `yaml:"env"`
	Log       LogConfig               `yaml:"log"`
	Risk      RiskConfig              `yaml:"risk"`
	Gateway   GatewayConfig           `yaml:"gateway"`
	Database  DatabaseConfig          `yaml:"database"`
	Engine    EngineConfig            `yaml:"engine"`
	Reconcile ReconcileConfig         `yaml:"reconcile"`
	Symbols   map[string]SymbolConfig `yaml:"symbols"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RiskConfig 进程级风控参数。
type RiskConfig struct {
	MaxPositionSize    float64 `yaml:"maxPositionSize"`
	StopLossPct        float64 `yaml:"stopLossPct"`
	TakeProfitPct      float64 `yaml:"takeProfitPct"`
	VaRConfidenceLevel float64 `yaml:"varConfidenceLevel"`
}

type GatewayConfig struct {
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
	BaseURL   string `yaml:"baseURL"`   // trading API
	DataURL   string `yaml:"dataURL"`   // historical bars API
	StreamURL string `yaml:"streamURL"` // trade tick stream
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// EngineConfig tick 处理参数。
type EngineConfig struct {
	TickQueueSize int `yaml:"tickQueueSize"`
}

// ReconcileConfig 成交对账参数。
type ReconcileConfig struct {
	IntervalMs int `yaml:"intervalMs"`
	MaxPolls   int `yaml:"maxPolls"`
}

// SymbolConfig 保存每个交易对的策略与下单数量。
type SymbolConfig struct {
	Strategy strategy.Config `yaml:"strategy"`
	Quantity float64         `yaml:"quantity"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Credentials 从环境变量读取券商密钥（通常配合 .env 使用）。
type Credentials struct {
	Key    string `envconfig:"ALPACA_KEY"`
	Secret string `envconfig:"ALPACA_SECRET"`
}

// LoadWithEnvOverrides loads config then overrides credentials from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return cfg, fmt.Errorf("read env credentials: %w", err)
	}
	if creds.Key != "" {
		cfg.Gateway.APIKey = creds.Key
	}
	if creds.Secret != "" {
		cfg.Gateway.APISecret = creds.Secret
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Risk.MaxPositionSize <= 0 {
		return errors.New("risk.maxPositionSize must be > 0")
	}
	if cfg.Risk.VaRConfidenceLevel <= 0 || cfg.Risk.VaRConfidenceLevel >= 1 {
		return errors.New("risk.varConfidenceLevel must be in (0,1)")
	}
	if cfg.Risk.StopLossPct < 0 || cfg.Risk.TakeProfitPct < 0 {
		return errors.New("risk stop/take-profit percentages must be >= 0")
	}
	if cfg.Gateway.APIKey == "" || cfg.Gateway.APISecret == "" {
		return errors.New("gateway.apiKey/apiSecret is required (or env overrides)")
	}
	if len(cfg.Symbols) == 0 {
		return errors.New("symbols config is required")
	}
	for sym, sc := range cfg.Symbols {
		if sc.Quantity <= 0 {
			return fmt.Errorf("symbol %s quantity must be > 0", sym)
		}
		// 构造一次评估器即可验证策略参数。
		if _, err := strategy.New(sc.Strategy); err != nil {
			return fmt.Errorf("symbol %s: %w", sym, err)
		}
	}
	if cfg.Engine.TickQueueSize < 0 {
		return errors.New("engine.tickQueueSize must be >= 0")
	}
	if cfg.Reconcile.IntervalMs < 0 || cfg.Reconcile.MaxPolls < 0 {
		return errors.New("reconcile intervals must be >= 0")
	}
	return nil
}
