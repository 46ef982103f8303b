package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
// Values are read from the environment; cmd/api loads a .env file first
// so local development works without exporting anything.
type Config struct {
	Stage string `envconfig:"STAGE" default:"dev"`
	Port  string `envconfig:"API_PORT" default:"8000"`

	// Network
	NetworkName       string `envconfig:"NETWORK_NAME" default:"sepolia"`
	ChainID           uint64 `envconfig:"CHAIN_ID" default:"11155111"`
	RPCURL            string `envconfig:"RPC_URL"`
	BundlerURL        string `envconfig:"BUNDLER_URL"`
	EntryPointAddress string `envconfig:"ENTRY_POINT_ADDRESS" default:"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"`

	// Smart account derivation
	FactoryAddress         string            `envconfig:"ACCOUNT_FACTORY_ADDRESS" default:"0x9406Cc6185a346906296840746125a0E44976454"`
	AccountVersion         string            `envconfig:"ACCOUNT_VERSION" default:"v0.6"`
	AccountImplementations map[string]string `envconfig:"ACCOUNT_IMPLEMENTATIONS" default:"v0.6:0x8aC5e9175536E50A02b5F75B5433a4A6bB4e32b4"`
	AccountIndex           uint64            `envconfig:"ACCOUNT_INDEX" default:"0"`

	// Fee sponsorship (paymaster)
	SponsorGas bool `envconfig:"SPONSOR_GAS" default:"false"`

	// Persistence. STORE_BACKEND selects postgres, badger or memory.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	BadgerDir    string `envconfig:"BADGER_DIR" default:"./data/walletstore"`

	// Native asset of the configured network
	NativeSymbol   string `envconfig:"NATIVE_SYMBOL" default:"ETH"`
	NativeDecimals int32  `envconfig:"NATIVE_DECIMALS" default:"18"`

	// Tokens the balance and transfer endpoints know about, e.g.
	// "USDC=0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238:6,DAI=0x...:18"
	Tokens string `envconfig:"TOKENS"`
}

// TokenConfig is one parsed entry of the TOKENS list.
type TokenConfig struct {
	Symbol   string
	Address  string
	Decimals int32
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks cross-field requirements that envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case "badger":
		if c.BadgerDir == "" {
			return fmt.Errorf("BADGER_DIR is required when STORE_BACKEND=badger")
		}
	case "memory":
		// nothing to validate, volatile store
	default:
		return fmt.Errorf("unknown STORE_BACKEND: %s", c.StoreBackend)
	}

	if _, ok := c.AccountImplementations[c.AccountVersion]; !ok {
		return fmt.Errorf("ACCOUNT_VERSION %s has no entry in ACCOUNT_IMPLEMENTATIONS", c.AccountVersion)
	}

	if _, err := c.TokenList(); err != nil {
		return err
	}

	return nil
}

// TokenList parses the TOKENS environment value. An empty value is valid and
// means only the native asset is served.
func (c *Config) TokenList() ([]TokenConfig, error) {
	if strings.TrimSpace(c.Tokens) == "" {
		return nil, nil
	}

	var tokens []TokenConfig
	for _, entry := range strings.Split(c.Tokens, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		symbol, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid TOKENS entry %q: expected SYMBOL=ADDRESS:DECIMALS", entry)
		}
		address, decimalsStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("invalid TOKENS entry %q: missing decimals", entry)
		}
		decimals, err := strconv.ParseInt(decimalsStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKENS entry %q: bad decimals: %w", entry, err)
		}

		tokens = append(tokens, TokenConfig{
			Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
			Address:  strings.TrimSpace(address),
			Decimals: int32(decimals),
		})
	}
	return tokens, nil
}
