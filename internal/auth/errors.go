package auth

import "errors"

var (
	// ErrInvalidToken is returned when an access token cannot be resolved
	// to a subject: malformed, expired, or signed with another key.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRejected is returned by identity verifiers when a third-party
	// token fails verification.
	ErrTokenRejected = errors.New("identity token rejected")

	// ErrVerifierDisabled is returned by a verifier that was not configured.
	ErrVerifierDisabled = errors.New("identity verifier disabled")
)
