package config

import (
	"fmt"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds a JWT configuration from the auth section.
func NewJWTConfig(auth AuthConfig) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          auth.JWTSecret,
		ExpirationHours: auth.ExpirationHours,
	}
	if cfg.ExpirationHours == 0 {
		cfg.ExpirationHours = 24
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%w: jwt secret cannot be empty", ErrInvalidConfig)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%w: expiration hours must be at least 1, got: %d", ErrInvalidConfig, c.ExpirationHours)
	}
	return nil
}
