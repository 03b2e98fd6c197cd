package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ethcdm/faucet/adapters/lock"
	"github.com/ethcdm/faucet/adapters/reconcile"
	"github.com/ethcdm/faucet/adapters/store"
	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/internal/config"
	"github.com/ethcdm/faucet/ports"
	"github.com/ethcdm/faucet/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLedger struct {
	mu     sync.Mutex
	claims []core.Claim
}

func (l *stubLedger) LastClaim(ctx context.Context, address string) (*core.Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var last *core.Claim
	for i := range l.claims {
		c := l.claims[i]
		if c.Address == address && (last == nil || c.CreatedAt.After(last.CreatedAt)) {
			last = &c
		}
	}
	return last, nil
}

func (l *stubLedger) Record(ctx context.Context, claim *core.Claim) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.claims = append(l.claims, *claim)
	return nil
}

func (l *stubLedger) Totals(ctx context.Context) ([]ports.NetworkTotal, error) {
	return nil, nil
}

type stubDisburser struct{}

func (stubDisburser) Disburse(ctx context.Context, network core.Network, to common.Address) (string, error) {
	return "0xstubtx", nil
}

func (stubDisburser) Balance(ctx context.Context, network core.Network, account common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

type stubEvents struct{}

func (stubEvents) PublishClaim(ctx context.Context, claim *core.Claim) error { return nil }
func (stubEvents) PublishReconciliation(ctx context.Context, claim *core.Claim, cause error) error {
	return nil
}

func testRouter(t *testing.T, adminSecret string) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		ServiceName:     "Test Faucet",
		CooldownWindow:  48 * time.Hour,
		ChallengeTTL:    7 * time.Minute,
		AnswerSalt:      "test-salt",
		DisburseTimeout: 5 * time.Second,
		LockTTL:         90 * time.Second,
		DefaultNetwork:  config.KeyArbitrum,
		AdminJWTSecret:  adminSecret,
		Networks: map[string]core.Network{
			config.KeyArbitrum: {
				ID:      core.NetworkArbitrum,
				Name:    "Arbitrum One",
				Symbol:  "ETH",
				ChainID: big.NewInt(42161),
				Amount:  big.NewInt(186200000000000),
			},
		},
	}

	faucetSvc := service.NewFaucetService(
		store.NewMemoryStore(),
		&stubLedger{},
		lock.NewMemoryLocker(),
		stubDisburser{},
		stubEvents{},
		reconcile.NewMemoryQueue(),
		cfg,
		zap.NewNop(),
	)
	statsSvc := service.NewStatsService(&stubLedger{}, stubDisburser{}, cfg, zap.NewNop())

	return SetupRouter(NewFaucetHandlers(faucetSvc, statsSvc), adminSecret)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// solveChallenge requests a challenge over HTTP and returns a fully
// valid claim payload signed with key (a fresh key when nil).
func solveChallenge(t *testing.T, router *gin.Engine, key *ecdsa.PrivateKey) (map[string]string, *ecdsa.PrivateKey) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var challenge struct {
		ID      string `json:"id"`
		Text    string `json:"text"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))
	require.Contains(t, challenge.Message, challenge.ID)

	var a, b int
	_, err := fmt.Sscanf(challenge.Text, "What is %d + %d?", &a, &b)
	require.NoError(t, err)

	if key == nil {
		key, err = crypto.GenerateKey()
		require.NoError(t, err)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(challenge.Message)), key)
	require.NoError(t, err)

	return map[string]string{
		"address":   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		"signature": hexutil.Encode(sig),
		"captchaId": challenge.ID,
		"answer":    strconv.Itoa(a + b),
	}, key
}

func TestClaimEndpointHappyPath(t *testing.T) {
	router := testRouter(t, "")
	payload, _ := solveChallenge(t, router, nil)

	w := doJSON(t, router, http.MethodPost, "/api/claim", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK             bool   `json:"ok"`
		TxHash         string `json:"txHash"`
		NextEligibleAt string `json:"nextEligibleAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.Equal(t, "0xstubtx", resp.TxHash)
	require.NotEmpty(t, resp.NextEligibleAt)
}

func TestClaimEndpointMissingFields(t *testing.T) {
	router := testRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/claim", map[string]string{
		"address": "0x0000000000000000000000000000000000000001",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "error")
}

func TestClaimEndpointUnsupportedNetwork(t *testing.T) {
	router := testRouter(t, "")
	payload, _ := solveChallenge(t, router, nil)
	payload["network"] = "dogecoin"

	w := doJSON(t, router, http.MethodPost, "/api/claim", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unsupported network")
}

func TestClaimEndpointCooldown(t *testing.T) {
	router := testRouter(t, "")

	payload, key := solveChallenge(t, router, nil)
	w := doJSON(t, router, http.MethodPost, "/api/claim", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var first struct {
		TxHash string `json:"txHash"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	// A fresh challenge signed by the same key hits the cooldown.
	second, _ := solveChallenge(t, router, key)
	w = doJSON(t, router, http.MethodPost, "/api/claim", second)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		Error          string `json:"error"`
		NextEligibleAt string `json:"nextEligibleAt"`
		TxHash         string `json:"txHash"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Error)
	require.NotEmpty(t, resp.NextEligibleAt)
	require.Equal(t, first.TxHash, resp.TxHash)
}

func TestClaimEndpointRejectsConsumedChallenge(t *testing.T) {
	router := testRouter(t, "")

	payload, _ := solveChallenge(t, router, nil)
	w := doJSON(t, router, http.MethodPost, "/api/claim", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/claim", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid challenge")
}

func TestStatsEndpoint(t *testing.T) {
	router := testRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "totalClaims")
}

func TestBalancesEndpoint(t *testing.T) {
	router := testRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/api/balances", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "networks")
}

func mintAdminToken(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "test-operator",
		Audience:  jwt.ClaimStrings{AdminAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAdminReconciliationAuth(t *testing.T) {
	router := testRouter(t, "admin-secret")

	w := doJSON(t, router, http.MethodGet, "/admin/reconciliation", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/reconciliation", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, "wrong-secret"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/reconciliation", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, "admin-secret"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "entries")
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	router := testRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/admin/reconciliation", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
