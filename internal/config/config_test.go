package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Stage:             "dev",
		NetworkName:       "sepolia",
		ChainID:           11155111,
		EntryPointAddress: "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
		FactoryAddress:    "0x9406Cc6185a346906296840746125a0E44976454",
		AccountVersion:    "v0.6",
		AccountImplementations: map[string]string{
			"v0.6": "0x8aC5e9175536E50A02b5F75B5433a4A6bB4e32b4",
		},
		StoreBackend: "memory",
	}
}

func TestValidateStoreBackends(t *testing.T) {
	cfg := baseConfig()
	assert.NoError(t, cfg.Validate())

	cfg.StoreBackend = "postgres"
	assert.Error(t, cfg.Validate(), "postgres requires DATABASE_URL")
	cfg.DatabaseURL = "postgres://localhost/wallets"
	assert.NoError(t, cfg.Validate())

	cfg.StoreBackend = "badger"
	cfg.BadgerDir = ""
	assert.Error(t, cfg.Validate())
	cfg.BadgerDir = "/tmp/walletstore"
	assert.NoError(t, cfg.Validate())

	cfg.StoreBackend = "cassandra"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresImplementationForVersion(t *testing.T) {
	cfg := baseConfig()
	cfg.AccountVersion = "v0.7"

	assert.Error(t, cfg.Validate())
}

func TestTokenList(t *testing.T) {
	cfg := baseConfig()

	tokens, err := cfg.TokenList()
	require.NoError(t, err)
	assert.Nil(t, tokens)

	cfg.Tokens = "USDC=0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238:6, dai=0x68194a729C2450ad26072b3D33ADaCbcef39D574:18"
	tokens, err = cfg.TokenList()
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, "USDC", tokens[0].Symbol)
	assert.Equal(t, int32(6), tokens[0].Decimals)
	assert.Equal(t, "DAI", tokens[1].Symbol)
	assert.Equal(t, int32(18), tokens[1].Decimals)
}

func TestTokenListRejectsMalformedEntries(t *testing.T) {
	tests := []string{
		"USDC",
		"USDC=0xabc",
		"USDC=0xabc:six",
	}

	for _, raw := range tests {
		cfg := baseConfig()
		cfg.Tokens = raw
		_, err := cfg.TokenList()
		assert.Error(t, err, "entry %q", raw)
	}
}

func TestInitReadsEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("NETWORK_NAME", "base")
	t.Setenv("CHAIN_ID", "8453")

	require.NoError(t, Init())

	cfg := Get()
	assert.Equal(t, "base", cfg.NetworkName)
	assert.Equal(t, uint64(8453), cfg.ChainID)
	assert.Equal(t, "v0.6", cfg.AccountVersion)
}
