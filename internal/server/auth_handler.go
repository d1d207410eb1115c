package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/types"
)

// AuthHandler exchanges client credentials for bearer tokens.
type AuthHandler struct {
	clientID   string
	secretHash string
	secrets    *config.SecretConfig
	tokens     *TokenService
}

// NewAuthHandler creates an AuthHandler for the configured service client.
func NewAuthHandler(auth config.AuthConfig, secrets *config.SecretConfig, tokens *TokenService) *AuthHandler {
	return &AuthHandler{
		clientID:   auth.ClientID,
		secretHash: auth.ClientSecretHash,
		secrets:    secrets,
		tokens:     tokens,
	}
}

// Authenticate checks a client ID and secret.
func (h *AuthHandler) Authenticate(clientID, secret string) error {
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(h.clientID)) == 1
	// always run bcrypt so unknown IDs cost the same
	secretOK := h.secretHash != "" && h.secrets.VerifySecret(secret, h.secretHash)
	if !idOK || !secretOK {
		return &ErrInvalidCredentials{}
	}
	return nil
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req types.TokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Authenticate(req.ClientID, req.ClientSecret); err != nil {
		writeJSONError(w, HTTPStatus(err), err.Error())
		return
	}

	token, err := h.tokens.Issue(req.ClientID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(types.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
