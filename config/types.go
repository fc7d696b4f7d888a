package config

import "time"

// Auth configures bearer-token verification on mutating RPC methods.
type Auth struct {
	HMACSecret string        `toml:"HMACSecret"`
	Issuer     string        `toml:"Issuer"`
	Audience   string        `toml:"Audience"`
	ClockSkew  time.Duration `toml:"ClockSkew"`
}

// RateLimit throttles RPC requests per client address.
type RateLimit struct {
	RequestsPerMinute int `toml:"RequestsPerMinute"`
	Burst             int `toml:"Burst"`
}

// Enabled reports whether throttling is active.
func (r RateLimit) Enabled() bool { return r.RequestsPerMinute > 0 }

// Telemetry configures OTLP trace export for RPC handlers.
type Telemetry struct {
	Enabled  bool    `toml:"Enabled"`
	Endpoint string  `toml:"Endpoint,omitempty"`
	Insecure bool    `toml:"Insecure"`
	Headers  string  `toml:"Headers,omitempty"`
	Sampling float64 `toml:"Sampling"`
}
