package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// ErrMissingRedisURL is returned when no record store endpoint is supplied.
// No built-in fallback endpoint exists.
var ErrMissingRedisURL = errors.New("redis.url is required")

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expands environment variables, applies
// defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Chain.ReceiptPoll == 0 {
		cfg.Chain.ReceiptPoll = 2 * time.Second
	}
	if cfg.Dashboard.NoticeTTL == 0 {
		cfg.Dashboard.NoticeTTL = 5 * time.Second
	}
	if cfg.Dashboard.BalanceWorkers <= 0 {
		cfg.Dashboard.BalanceWorkers = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate fails fast on configuration the service must not start with.
func (c *AppConfig) Validate() error {
	if c.Redis.URL == "" {
		return ErrMissingRedisURL
	}
	if c.Chain.RPCURL == "" {
		return nil
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("chain.contract_address is not a valid address: %q", c.Chain.ContractAddress)
	}
	if !common.IsHexAddress(c.Chain.TokenAddress) {
		return fmt.Errorf("chain.token_address is not a valid address: %q", c.Chain.TokenAddress)
	}
	return nil
}
