// Package config loads bridgeclaw configuration from the environment.
//
// The variable names match the legacy bridge deployment (CLIENT_TOKEN,
// CHANNEL_ID, REDIS_HOST, ...) so existing docker-compose setups keep working
// unchanged.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// HostEnv selects where the connection audit trail is written.
const (
	HostEnvLocal  = "local"  // append to logs/connections.log
	HostEnvDocker = "docker" // write to the console
)

type Config struct {
	// Chat platform credentials. All three are required; startup fails
	// without them.
	ClientToken string `env:"CLIENT_TOKEN"`
	ClientID    string `env:"CLIENT_ID"`
	ChannelID   string `env:"CHANNEL_ID"`

	// TCP listener.
	Host          string `env:"HOST"            envDefault:""`
	Port          int    `env:"PORT"            envDefault:"12345"`
	MaxFrameBytes int    `env:"MAX_FRAME_BYTES" envDefault:"1048576"`

	// Queue backend.
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	QueueKey  string `env:"QUEUE_KEY"  envDefault:"bridgeclaw:outbound"`

	// Thread naming and retention.
	ThreadPrefix       string `env:"THREAD_PREFIX"        envDefault:"bridge"`
	RetentionDays      int    `env:"RETENTION_DAYS"       envDefault:"7"`
	AutoArchiveMinutes int    `env:"AUTO_ARCHIVE_MINUTES" envDefault:"1440"`
	SweepSchedule      string `env:"SWEEP_SCHEDULE"       envDefault:"0 * * * *"`

	// HostEnv is "local" or "docker" and selects file vs console audit logging.
	HostEnv string `env:"HOST_ENV" envDefault:"local"`

	// Tailscale ingress (optional).
	TailscaleEnabled  bool   `env:"TAILSCALE_ENABLED"  envDefault:"false"`
	TailscaleHostname string `env:"TAILSCALE_HOSTNAME" envDefault:"bridgeclaw"`
	TailscaleStateDir string `env:"TAILSCALE_STATE_DIR"`
	TailscaleAuthKey  string `env:"TAILSCALE_AUTH_KEY"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.ClientToken == "" {
		return errors.New("CLIENT_TOKEN is required")
	}
	if c.ClientID == "" {
		return errors.New("CLIENT_ID is required")
	}
	if c.ChannelID == "" {
		return errors.New("CHANNEL_ID is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("MAX_FRAME_BYTES must be positive, got %d", c.MaxFrameBytes)
	}
	if c.HostEnv != HostEnvLocal && c.HostEnv != HostEnvDocker {
		return fmt.Errorf("HOST_ENV must be %q or %q, got %q", HostEnvLocal, HostEnvDocker, c.HostEnv)
	}
	return nil
}

// ListenAddr returns the TCP listen address for the bridge server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the queue backend address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
