package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config splits settings by sensitivity: secrets come from the environment
// (never from the yaml file), everything else from config.yaml with defaults
// that work against production Indodax.
type Config struct {
	// Secrets, env only. Missing values are startup-fatal.
	Indodax struct {
		APIKey    string `envconfig:"INDODAX_API_KEY" required:"true" yaml:"-"`
		SecretKey string `envconfig:"INDODAX_SECRET_KEY" required:"true" yaml:"-"`
	} `yaml:"-"`
	Telegram struct {
		BotToken string `envconfig:"BOT_TOKEN" required:"true" yaml:"-"`
		OwnerID  int64  `envconfig:"OWNER_ID" required:"true" yaml:"-"`
	} `yaml:"-"`

	Exchange struct {
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		StreamToken  string `yaml:"stream_token"`
	} `yaml:"exchange"`

	Trading struct {
		MinBuyIDR float64 `yaml:"min_buy_idr"`
		QuickPair string  `yaml:"quick_pair"` // pair behind the one-tap buy/sell buttons
	} `yaml:"trading"`

	PnL struct {
		FeesInCostBasis bool `yaml:"fees_in_cost_basis"`
		HistoryLimit    int  `yaml:"history_limit"`
	} `yaml:"pnl"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Trading.MinBuyIDR = 10000 // exchange minimum order value
	cfg.Trading.QuickPair = "sol_idr"
	cfg.PnL.FeesInCostBasis = true
	cfg.PnL.HistoryLimit = 1000
	cfg.Storage.Path = "assistant.db"
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads config.yaml (optional) and the environment. A .env file is
// honored when present, matching local development; deployments set real env.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			decoder := yaml.NewDecoder(f)
			err = decoder.Decode(cfg)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Validate(cfg *Config) error {
	if cfg.Telegram.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID must be set to the owner's chat id")
	}
	if cfg.Trading.MinBuyIDR <= 0 {
		return fmt.Errorf("trading.min_buy_idr must be positive")
	}
	if cfg.PnL.HistoryLimit <= 0 {
		return fmt.Errorf("pnl.history_limit must be positive")
	}
	return nil
}
