package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoIssuer mints and resolves v4.local access tokens (symmetric,
// XChaCha20-Poly1305). The subject claim carries the user id.
type PasetoIssuer struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

func NewPasetoIssuer(key []byte, ttl time.Duration) (*PasetoIssuer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("paseto key must be exactly 32 bytes, got %d", len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}
	return &PasetoIssuer{key: symmetric, ttl: ttl}, nil
}

func (i *PasetoIssuer) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("empty subject")
	}
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(i.ttl))
	token.SetSubject(subject)

	return token.V4Encrypt(i.key, nil), nil
}

func (i *PasetoIssuer) Resolve(tokenString string) (string, error) {
	// NewParser checks expiry and not-before by default.
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(i.key, tokenString, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	subject, err := token.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return subject, nil
}
