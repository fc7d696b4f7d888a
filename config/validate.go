package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	MinBlockInterval = 100 * time.Millisecond
	MinSecretLength  = 16
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must be set")
	}
	if c.BlockInterval < MinBlockInterval {
		return fmt.Errorf("BlockInterval must be at least %s", MinBlockInterval)
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("LogLevel: %w", err)
		}
	}
	if len(c.Auth.HMACSecret) < MinSecretLength {
		return fmt.Errorf("auth: HMACSecret must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("auth: ClockSkew must not be negative")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("ratelimit: values must not be negative")
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst == 0 {
		return fmt.Errorf("ratelimit: Burst must be positive when RequestsPerMinute is set")
	}
	if c.Telemetry.Sampling < 0 || c.Telemetry.Sampling > 1 {
		return fmt.Errorf("telemetry: Sampling must be between 0 and 1")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: Endpoint must be set when Enabled")
	}
	return nil
}
