package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress    string        `toml:"RPCAddress"`
	DataDir       string        `toml:"DataDir"`
	GenesisFile   string        `toml:"GenesisFile"`
	NetworkName   string        `toml:"NetworkName"`
	BlockInterval time.Duration `toml:"BlockInterval"`
	LogLevel      string        `toml:"LogLevel"`
	LogFile       string        `toml:"LogFile,omitempty"`
	IndexerDSN    string        `toml:"IndexerDSN,omitempty"`
	Auth          Auth          `toml:"Auth"`
	RateLimit     RateLimit     `toml:"RateLimit"`
	Telemetry     Telemetry     `toml:"Telemetry"`
}

const (
	defaultNetworkName   = "ubi-local"
	defaultBlockInterval = 5 * time.Second
)

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %q", path, undecoded[0].String())
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetworkName
	}
	if cfg.BlockInterval == 0 {
		cfg.BlockInterval = defaultBlockInterval
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Sampling == 0 {
		cfg.Telemetry.Sampling = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file with a
// freshly generated token secret.
func createDefault(path string) (*Config, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:    ":8080",
		DataDir:       "./ubi-data",
		GenesisFile:   "",
		NetworkName:   defaultNetworkName,
		BlockInterval: defaultBlockInterval,
		LogLevel:      "info",
		Auth: Auth{
			HMACSecret: hex.EncodeToString(secret),
			Issuer:     "ubid",
			Audience:   "ubi-rpc",
			ClockSkew:  30 * time.Second,
		},
		RateLimit: RateLimit{
			RequestsPerMinute: 600,
			Burst:             50,
		},
		Telemetry: Telemetry{
			Endpoint: "localhost:4318",
			Insecure: true,
			Sampling: 1,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
