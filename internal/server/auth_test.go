package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/ingestion"
	"github.com/jonathan/persona-engine/internal/types"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters"

func newTokenService(t *testing.T, hours int) *TokenService {
	t.Helper()
	cfg, err := config.NewJWTConfig(config.AuthConfig{JWTSecret: testJWTSecret, ExpirationHours: hours})
	require.NoError(t, err)
	return NewTokenService(cfg)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTokenService(t, 1)

	token, err := svc.Issue("persona-client")
	require.NoError(t, err)

	clientID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "persona-client", clientID)
	assert.Equal(t, time.Hour, svc.TTL())
}

func TestTokenService_Rejects(t *testing.T) {
	svc := newTokenService(t, 1)
	good, err := svc.Issue("persona-client")
	require.NoError(t, err)

	expired := newTokenService(t, 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("persona-client")
	require.NoError(t, err)

	other, err := config.NewJWTConfig(config.AuthConfig{JWTSecret: strings.Repeat("x", 40), ExpirationHours: 1})
	require.NoError(t, err)
	forged, err := NewTokenService(other).Issue("persona-client")
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "persona-client",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  tokenIssuer,
		Subject: "persona-client",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", old},
		{"wrong key", forged},
		{"wrong issuer", wrongIssuer},
		{"none algorithm", noneAlg},
		{"tampered", good + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func authConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig()
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.BcryptCost = 10
	secrets, err := config.NewSecretConfig(cfg.Auth)
	require.NoError(t, err)
	cfg.Auth.ClientSecretHash, err = secrets.HashSecret("client-secret")
	require.NoError(t, err)
	return cfg
}

func TestAuthFlow(t *testing.T) {
	h := newTestServer(t, authConfig(t), Deps{})

	t.Run("health is public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)
	})

	t.Run("protected route needs token", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/personas/evaluate", `{"personas":`+threePersonas+`}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"wrong secret", `{"client_id":"persona-client","client_secret":"nope"}`, http.StatusUnauthorized},
		{"unknown client", `{"client_id":"intruder","client_secret":"client-secret"}`, http.StatusUnauthorized},
		{"missing secret", `{"client_id":"persona-client"}`, http.StatusBadRequest},
		{"invalid body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, do(h, http.MethodPost, "/auth/token", tt.body).Code)
		})
	}

	t.Run("issued token unlocks routes", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/auth/token", `{"client_id":"persona-client","client_secret":"client-secret"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var tok types.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
		assert.Equal(t, "Bearer", tok.TokenType)
		assert.EqualValues(t, 24*3600, tok.ExpiresIn)

		req := httptest.NewRequest(http.MethodPost, "/personas/evaluate", strings.NewReader(`{"personas":`+threePersonas+`}`))
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		out := httptest.NewRecorder()
		h.ServeHTTP(out, req)
		assert.Equal(t, http.StatusOK, out.Code, out.Body.String())
	})
}

func TestNew_RejectsBadAuthConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.BcryptCost = 4
	_, err := New(cfg, Deps{Evaluator: evaluation.New(axisProvider), Ingester: ingestion.NewPipeline()})
	assert.Error(t, err)
}
