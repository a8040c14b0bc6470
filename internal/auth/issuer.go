package auth

import (
	"errors"
	"fmt"

	"github.com/talentline/apiserver/config"
)

// Issuer mints access tokens bound to a subject and resolves them back.
type Issuer interface {
	Issue(subject string) (string, error)
	Resolve(token string) (string, error)
}

// NewIssuer builds the issuer selected by cfg.TokenFormat.
func NewIssuer(cfg config.AuthConfig) (Issuer, error) {
	switch cfg.TokenFormat {
	case "", "jwt":
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required")
		}
		return NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)
	case "paseto":
		if cfg.PasetoKey == "" {
			return nil, errors.New("PASETO_KEY is required")
		}
		return NewPasetoIssuer([]byte(cfg.PasetoKey), cfg.TokenTTL)
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}
