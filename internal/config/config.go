// Package config loads and validates service configuration from the
// environment. The process refuses to start when a required value is missing.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
)

// NotifyPolicy selects how a chain failure during the completion side effect
// is treated by the HTTP contract.
type NotifyPolicy string

const (
	// NotifyBestEffort logs chain failures and still reports success.
	NotifyBestEffort NotifyPolicy = "best-effort"
	// NotifyRequired propagates chain failures to the caller.
	NotifyRequired NotifyPolicy = "required"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST,default=0.0.0.0"`
	Port int    `env:"SERVER_PORT,default=8080"`
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	SecretKey  string `env:"STRIPE_SECRET_KEY,required"`
	PriceID    string `env:"STRIPE_PRICE_ID,required"`
	SuccessURL string `env:"FRONTEND_SUCCESS_URL,required"`
	CancelURL  string `env:"FRONTEND_CANCEL_URL,required"`
}

// ChainConfig holds blockchain node and contract settings.
type ChainConfig struct {
	RPCURL          string `env:"CHAIN_RPC_URL,required"`
	NetworkMagic    uint32 `env:"CHAIN_NETWORK_MAGIC,default=894710606"`
	OwnerKey        string `env:"OWNER_PRIVATE_KEY,required"`
	ContractHash    string `env:"ACHIEVEMENTS_CONTRACT_HASH,required"`
	NotifyPolicy    string `env:"CHAIN_NOTIFY_POLICY,default=best-effort"`
	AllowDirectMint bool   `env:"CHAIN_ALLOW_DIRECT_MINT,default=false"`
	BadgeTokenURI   string `env:"CHAIN_BADGE_URI"`
}

// SeedConfigSource holds startup seed settings.
type SeedConfigSource struct {
	OwnerAddress string `env:"SEED_OWNER_ADDRESS"`
	File         string `env:"SEED_FILE"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// Config is the root configuration for the service.
type Config struct {
	Server  ServerConfig
	Stripe  StripeConfig
	Chain   ChainConfig
	Seed    SeedConfigSource
	Logging LoggingConfig

	// Origins allows a comma-separated list of cross-origin domains.
	Origins string `env:"FRONTEND_ORIGINS"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	switch NotifyPolicy(cfg.Chain.NotifyPolicy) {
	case NotifyBestEffort, NotifyRequired:
	default:
		return nil, fmt.Errorf("CHAIN_NOTIFY_POLICY must be %q or %q, got %q",
			NotifyBestEffort, NotifyRequired, cfg.Chain.NotifyPolicy)
	}

	return &cfg, nil
}

// AllowedOrigins splits the configured origin list, dropping empty entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.Origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
