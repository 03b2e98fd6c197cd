package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethcdm/faucet/core"
)

// Well-known test key (hardhat account #0), safe to embed.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERVER_HMAC_SECRET", "salt")
	t.Setenv("FAUCET_PRIVATE_KEY", testKeyHex)
	t.Setenv("DATABASE_DSN", "host=localhost dbname=faucet")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, 48*time.Hour, cfg.CooldownWindow)
	require.Equal(t, 7*time.Minute, cfg.ChallengeTTL)
	require.Equal(t, KeyArbitrum, cfg.DefaultNetwork)
	require.Len(t, cfg.Networks, 3)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", cfg.FaucetAddress.Hex())

	arb, err := cfg.Network(KeyArbitrum)
	require.NoError(t, err)
	require.Equal(t, core.NetworkArbitrum, arb.ID)
	require.Equal(t, int64(42161), arb.ChainID.Int64())
	require.Equal(t, "186200000000000", arb.Amount.String())
}

func TestFromEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WINDOW_HOURS", "24")
	t.Setenv("CAPTCHA_TTL_MIN", "3")
	t.Setenv("DEFAULT_NETWORK", KeyBase)
	t.Setenv("MONAD_CLAIM_AMOUNT_WEI", "5000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, cfg.CooldownWindow)
	require.Equal(t, 3*time.Minute, cfg.ChallengeTTL)
	require.Equal(t, KeyBase, cfg.DefaultNetwork)

	monad, err := cfg.Network(KeyMonadTestnet)
	require.NoError(t, err)
	require.Equal(t, "5000", monad.Amount.String())
}

func TestFromEnvRequiredValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_HMAC_SECRET", "")
	_, err := FromEnv()
	require.ErrorContains(t, err, "SERVER_HMAC_SECRET")

	setRequiredEnv(t)
	t.Setenv("FAUCET_PRIVATE_KEY", "not-a-key")
	_, err = FromEnv()
	require.ErrorContains(t, err, "FAUCET_PRIVATE_KEY")

	setRequiredEnv(t)
	t.Setenv("DATABASE_DSN", "")
	_, err = FromEnv()
	require.ErrorContains(t, err, "DATABASE_DSN")
}

func TestUnknownNetwork(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	_, err = cfg.Network("dogecoin")
	require.ErrorIs(t, err, core.ErrUnsupportedNetwork)
}
