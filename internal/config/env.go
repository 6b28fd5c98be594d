package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the API key may be prompted at runtime and is kept in memory only - use GetAPIKey()
type Config struct {
	Network    string `envconfig:"NETWORK" default:"sepolia"`
	RPCURL     string `envconfig:"RPC_URL"`
	RPCAPIKey  string `envconfig:"RPC_API_KEY"`
	ChainID    uint64 `envconfig:"CHAIN_ID"`
	Simulate   bool   `envconfig:"SIMULATE"`
	SimFundETH string `envconfig:"SIM_FUND_AMOUNT" default:"10"`

	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"4s"`
	ConfirmTimeout   time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"3m"`
	Confirmations    uint64        `envconfig:"CONFIRMATIONS" default:"1"`
	BroadcastRetries int           `envconfig:"BROADCAST_RETRIES" default:"2"`

	KeyMnemonic    bool   `envconfig:"KEY_MNEMONIC" default:"true"`
	DerivationPath string `envconfig:"DERIVATION_PATH" default:"m/44'/60'/0'/0/0"`

	Port           string `envconfig:"PORT" default:"8080"`
	APIAllowReveal bool   `envconfig:"API_ALLOW_REVEAL" default:"false"`
	JournalPath    string `envconfig:"JOURNAL_PATH"`
	PriceCurrency  string `envconfig:"PRICE_CURRENCY"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// cfg is the global configuration instance
var cfg *Config

// Load reads configuration from environment variables without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	c.Network = strings.ToLower(strings.TrimSpace(c.Network))
	return c, nil
}

// Set installs the global configuration once command-line overrides are applied.
func Set(c *Config) {
	cfg = c
}

// Get returns the global configuration instance.
// Panics if Set was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Set first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// Validate checks the values that cannot be expressed with envconfig tags.
func (c *Config) Validate() error {
	if c.Simulate {
		c.Network = NetworkDev
	}
	if _, ok := LookupNetwork(c.Network); !ok {
		return fmt.Errorf("unknown network %q (known: %s)", c.Network, strings.Join(NetworkNames(), ", "))
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.ConfirmTimeout < c.PollInterval {
		return fmt.Errorf("CONFIRM_TIMEOUT (%s) must not be shorter than POLL_INTERVAL (%s)", c.ConfirmTimeout, c.PollInterval)
	}
	if c.Confirmations == 0 {
		return errors.New("CONFIRMATIONS must be at least 1")
	}
	if c.BroadcastRetries < 0 {
		return errors.New("BROADCAST_RETRIES must not be negative")
	}
	return nil
}

// NeedsAPIKey reports whether the endpoint URL must be built from an API key
// that is not configured yet.
func (c *Config) NeedsAPIKey() bool {
	if c.Simulate || c.RPCURL != "" || c.RPCAPIKey != "" || apiKey != "" {
		return false
	}
	n, ok := LookupNetwork(c.Network)
	return ok && n.URLTemplate != ""
}

var apiKey string

// PromptForAPIKey prompts the user for the endpoint API key in the terminal.
// The key is read without echoing (hidden input) and stored in memory.
// Call this at startup before the first network call.
func PromptForAPIKey() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: set RPC_API_KEY or RPC_URL")
	}
	fmt.Fprint(os.Stderr, "Enter RPC API key: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	clear(raw)
	if key == "" {
		return errors.New("API key cannot be empty")
	}
	apiKey = key
	return nil
}

// GetAPIKey returns the configured API key, falling back to the prompted one.
func (c *Config) GetAPIKey() string {
	if c.RPCAPIKey != "" {
		return c.RPCAPIKey
	}
	return apiKey
}
