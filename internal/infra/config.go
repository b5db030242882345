package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Ledger struct {
		RPCURL     string `yaml:"rpc_url"` // websocket endpoint; subscriptions need ws:// or wss://
		Exchange   string `yaml:"exchange_address"`
		QuoteAsset string `yaml:"quote_asset"` // the network's native asset address
		FromBlock  uint64 `yaml:"from_block"`
		PrivateKey string `yaml:"private_key"` // hex, optional; enables cancel submission
	} `yaml:"ledger"`

	Relay struct {
		WSURL    string   `yaml:"ws_url"`
		Channels []string `yaml:"channels"`
	} `yaml:"relay"`

	Journal struct {
		Path string `yaml:"path"` // empty disables the event cache
	} `yaml:"journal"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Ledger.RPCURL == "" || (!hasPrefix(c.Ledger.RPCURL, "ws://") && !hasPrefix(c.Ledger.RPCURL, "wss://")) {
		return fmt.Errorf("invalid ledger RPC URL (websocket required): %s", c.Ledger.RPCURL)
	}
	if len(c.Ledger.Exchange) != 42 || !hasPrefix(c.Ledger.Exchange, "0x") {
		return fmt.Errorf("invalid exchange address: %s", c.Ledger.Exchange)
	}
	if len(c.Ledger.QuoteAsset) != 42 || !hasPrefix(c.Ledger.QuoteAsset, "0x") {
		return fmt.Errorf("invalid quote asset address: %s", c.Ledger.QuoteAsset)
	}

	if c.Relay.WSURL != "" && !hasPrefix(c.Relay.WSURL, "ws://") && !hasPrefix(c.Relay.WSURL, "wss://") {
		return fmt.Errorf("invalid relay WS URL: %s", c.Relay.WSURL)
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces config values when the environment variable is present.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("DEXVIEW_RPC_URL"); url != "" {
		cfg.Ledger.RPCURL = url
	}
	if key := os.Getenv("DEXVIEW_PRIVATE_KEY"); key != "" {
		cfg.Ledger.PrivateKey = key
	}
	if url := os.Getenv("DEXVIEW_RELAY_URL"); url != "" {
		cfg.Relay.WSURL = url
	}
}
