package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretConfig holds configuration for hashing and verifying client secrets.
type SecretConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewSecretConfig creates a secret configuration from the auth section.
func NewSecretConfig(auth AuthConfig) (*SecretConfig, error) {
	cfg := &SecretConfig{
		BcryptCost: auth.BcryptCost,
		Pepper:     auth.Pepper,
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SecretConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("%w: bcrypt cost out of range: %d (must be 10-14)", ErrInvalidConfig, c.BcryptCost)
	}
	return nil
}

// HashSecret hashes a client secret using bcrypt (with optional pepper).
func (c *SecretConfig) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret checks a client secret against a stored hash.
func (c *SecretConfig) VerifySecret(secret, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret+c.Pepper)) == nil
}
