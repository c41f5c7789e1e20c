// Package config centralises the read-only constants and environment
// settings threaded through every engine.
package config

import (
	"os"
	"strconv"

	"github.com/ordishs/gocore"
)

// Constants holds the values surfaced verbatim via GET /motd.
type Constants struct {
	WalletVersion   int     `json:"wallet_version"`
	NonceMaxSize    int     `json:"nonce_max_size"`
	NameCost        uint64  `json:"name_cost"`
	MinWork         uint64  `json:"min_work"`
	MaxWork         uint64  `json:"max_work"`
	WorkFactor      float64 `json:"work_factor"`
	SecondsPerBlock int     `json:"seconds_per_block"`
	AddressPrefix   string  `json:"address_prefix"`
	NameSuffix      string  `json:"name_suffix"`
}

// DefaultConstants returns the network's fixed values.
func DefaultConstants() Constants {
	return Constants{
		WalletVersion:   16,
		NonceMaxSize:    24,
		NameCost:        500,
		MinWork:         100,
		MaxWork:         100000,
		WorkFactor:      0.025,
		SecondsPerBlock: 60,
		AddressPrefix:   "t",
		NameSuffix:      "tst",
	}
}

// Config is the node-wide settings object. Every tunable is resolved once
// at startup and the struct is passed down instead of re-reading env vars.
type Config struct {
	Constants

	PublicURL       string
	NodeEnv         string
	MiningEnabled   bool
	StakingEnabled  bool
	GenGenesis      bool
	ValidatorPenalty uint64
	FreeNonceSubmission bool

	StoreURL     string
	FastStoreURL string
	ListenAddr   string
	HealthPort   string
}

// Load resolves configuration from the environment, with gocore.Config()
// fallbacks for anything not set: env var wins, then gocore key, then
// default.
func Load() *Config {
	c := &Config{
		Constants: DefaultConstants(),

		PublicURL:  getenv("PUBLIC_URL", "http://localhost:8000"),
		NodeEnv:    getenv("NODE_ENV", "production"),
		StoreURL:   getenv("STORE_URL", "sqlite://tenebra"),
		ListenAddr: getenv("LISTEN_ADDR", ":8000"),
		HealthPort: getenv("HEALTH_CHECK_PORT", "8000"),
	}

	c.FastStoreURL, _ = gocore.Config().Get("FAST_STORE_URL", "memory://")
	c.MiningEnabled = getenvBool("MINING_ENABLED", true)
	c.StakingEnabled = getenvBool("STAKING_ENABLED", false)
	c.GenGenesis = getenvBool("GEN_GENESIS", true)
	c.FreeNonceSubmission = getenvBool("FREE_NONCE_SUBMISSION", false) && c.NodeEnv != "production"

	// The two block-production methods are mutually exclusive; mining
	// wins at startup.
	if c.MiningEnabled {
		c.StakingEnabled = false
	}

	c.ValidatorPenalty = getenvUint64("VALIDATOR_PENALTY", c.NameCost)

	return c
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := gocore.Config().Get(key); ok && v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvUint64(key string, def uint64) uint64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
