package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/ethcdm/faucet/core"
)

// Request keys accepted in the claim payload, mapped to ledger enum values.
const (
	KeyArbitrum     = "arbitrum"
	KeyBase         = "base"
	KeyMonadTestnet = "monadTestnet"
)

// Config is the immutable process configuration. It is constructed once
// in main from the environment and passed to every component; nothing
// reads the environment after startup.
type Config struct {
	ListenAddr  string
	ServiceName string

	CooldownWindow  time.Duration
	ChallengeTTL    time.Duration
	AnswerSalt      string
	DisburseTimeout time.Duration
	// LockTTL bounds how long a per-address reservation may be held.
	// Kept independent of DisburseTimeout so a hung submission cannot
	// pin an address indefinitely.
	LockTTL time.Duration

	FaucetKey      *ecdsa.PrivateKey
	FaucetAddress  common.Address
	DefaultNetwork string
	Networks       map[string]core.Network

	RedisURL    string
	DatabaseDSN string

	AdminJWTSecret string

	// Spot prices for stats conversion, configured statically. Symbols
	// without an entry report a zero USD total.
	PricesUSD map[string]decimal.Decimal
}

// FromEnv builds the configuration from environment variables, applying
// the documented defaults. It fails fast on missing or malformed
// security-sensitive values.
func FromEnv() (*Config, error) {
	salt := os.Getenv("SERVER_HMAC_SECRET")
	if salt == "" {
		return nil, fmt.Errorf("SERVER_HMAC_SECRET is required")
	}

	keyHex := strings.TrimPrefix(os.Getenv("FAUCET_PRIVATE_KEY"), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("FAUCET_PRIVATE_KEY is required")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid FAUCET_PRIVATE_KEY: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}

	windowHours, err := envInt("WINDOW_HOURS", 48)
	if err != nil {
		return nil, err
	}
	ttlMin, err := envInt("CAPTCHA_TTL_MIN", 7)
	if err != nil {
		return nil, err
	}

	networks, err := buildNetworks()
	if err != nil {
		return nil, err
	}

	defaultNetwork := envString("DEFAULT_NETWORK", KeyArbitrum)
	if _, ok := networks[defaultNetwork]; !ok {
		return nil, fmt.Errorf("DEFAULT_NETWORK %q is not a configured network", defaultNetwork)
	}

	ethPrice, err := envDecimal("ETH_PRICE_USD", "2000")
	if err != nil {
		return nil, err
	}
	monPrice, err := envDecimal("MON_PRICE_USD", "0")
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:      envString("LISTEN_ADDR", ":8080"),
		ServiceName:     envString("FAUCET_NAME", "ETHCDM Faucet"),
		CooldownWindow:  time.Duration(windowHours) * time.Hour,
		ChallengeTTL:    time.Duration(ttlMin) * time.Minute,
		AnswerSalt:      salt,
		DisburseTimeout: 30 * time.Second,
		LockTTL:         90 * time.Second,
		FaucetKey:       key,
		FaucetAddress:   crypto.PubkeyToAddress(key.PublicKey),
		DefaultNetwork:  defaultNetwork,
		Networks:        networks,
		RedisURL:        envString("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseDSN:     dsn,
		AdminJWTSecret:  os.Getenv("ADMIN_JWT_SECRET"),
		PricesUSD: map[string]decimal.Decimal{
			"ETH": ethPrice,
			"MON": monPrice,
		},
	}, nil
}

// Network resolves a request key (e.g. "arbitrum") to its configuration.
func (c *Config) Network(key string) (core.Network, error) {
	n, ok := c.Networks[key]
	if !ok {
		return core.Network{}, core.ErrUnsupportedNetwork
	}
	return n, nil
}

func buildNetworks() (map[string]core.Network, error) {
	arbAmount, err := envWei("ARB_CLAIM_AMOUNT_WEI", "186200000000000")
	if err != nil {
		return nil, err
	}
	baseAmount, err := envWei("BASE_CLAIM_AMOUNT_WEI", "186200000000000")
	if err != nil {
		return nil, err
	}
	monadAmount, err := envWei("MONAD_CLAIM_AMOUNT_WEI", "18620000000000000")
	if err != nil {
		return nil, err
	}

	return map[string]core.Network{
		KeyArbitrum: {
			ID:      core.NetworkArbitrum,
			Name:    "Arbitrum One",
			Symbol:  "ETH",
			ChainID: big.NewInt(42161),
			RPCURL:  envString("ARB_RPC_URL", "https://arb1.arbitrum.io/rpc"),
			Amount:  arbAmount,
		},
		KeyBase: {
			ID:      core.NetworkBase,
			Name:    "Base",
			Symbol:  "ETH",
			ChainID: big.NewInt(8453),
			RPCURL:  envString("BASE_RPC_URL", "https://base-mainnet.public.blastapi.io"),
			Amount:  baseAmount,
		},
		KeyMonadTestnet: {
			ID:      core.NetworkMonadTestnet,
			Name:    "Monad Testnet",
			Symbol:  "MON",
			ChainID: big.NewInt(10143),
			RPCURL:  envString("MONAD_TESTNET_RPC_URL", "https://testnet-rpc.monad.xyz"),
			Amount:  monadAmount,
		},
	}, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envWei(key, fallback string) (*big.Int, error) {
	v := envString(key, fallback)
	amount, ok := new(big.Int).SetString(v, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid %s: %q is not a positive integer", key, v)
	}
	return amount, nil
}

func envDecimal(key, fallback string) (decimal.Decimal, error) {
	v := envString(key, fallback)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
