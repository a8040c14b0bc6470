package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/talentline/apiserver/types"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	googleIdentityKey    = "google.com"
)

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier verifies tokens issued for projectID against Google's
// published signing keys. Keys are fetched lazily and cached by go-oidc.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*FirebaseVerifier, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("firebase project id is required")
	}
	keySet := oidc.NewRemoteKeySet(ctx, firebaseJWKSURL)
	return NewFirebaseVerifierWithKeySet(projectID, keySet), nil
}

// NewFirebaseVerifierWithKeySet uses keySet to check signatures.
func NewFirebaseVerifierWithKeySet(projectID string, keySet oidc.KeySet) *FirebaseVerifier {
	verifier := oidc.NewVerifier(firebaseIssuerPrefix+projectID, keySet, &oidc.Config{
		ClientID: projectID,
	})
	return &FirebaseVerifier{verifier: verifier}
}

func (v *FirebaseVerifier) IsAvailable() bool {
	return v != nil && v.verifier != nil
}

// Decode verifies rawToken and extracts the identity claims. Verification
// failures wrap ErrTokenRejected; cancellation is returned as is.
func (v *FirebaseVerifier) Decode(ctx context.Context, rawToken string) (*types.ExternalClaims, error) {
	if !v.IsAvailable() {
		return nil, ErrVerifierDisabled
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Firebase      struct {
			Identities map[string][]string `json:"identities"`
		} `json:"firebase"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrTokenRejected, err)
	}

	out := &types.ExternalClaims{
		ExternalID:    idToken.Subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		AvatarURL:     claims.Picture,
		EmailVerified: claims.EmailVerified,
	}
	if ids := claims.Firebase.Identities[googleIdentityKey]; len(ids) > 0 {
		out.ProviderAccountID = ids[0]
	}
	return out, nil
}

// DisabledVerifier stands in when no identity provider is configured.
type DisabledVerifier struct{}

func (DisabledVerifier) IsAvailable() bool { return false }

func (DisabledVerifier) Decode(context.Context, string) (*types.ExternalClaims, error) {
	return nil, ErrVerifierDisabled
}
