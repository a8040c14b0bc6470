package services

import (
	"context"
	"errors"

	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/store"
)

// Error kinds returned by the services. Every error a service returns
// matches exactly one of these with errors.Is; collaborator errors are
// logged and never wrapped into the returned error.
var (
	ErrValidation           = errors.New("validation error")
	ErrDuplicateIdentity    = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid identity token")
	ErrMissingClaims        = errors.New("identity token is missing required claims")
	ErrNotFound             = errors.New("not found")
	ErrInvalidSession       = errors.New("invalid or expired session")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrStore                = errors.New("storage failure")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrUnavailable          = errors.New("service unavailable")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, "validation_error"},
	{ErrDuplicateIdentity, "duplicate_identity"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidToken, "invalid_token"},
	{ErrMissingClaims, "missing_claims"},
	{ErrNotFound, "not_found"},
	{ErrInvalidSession, "invalid_session"},
	{ErrAuthenticationFailed, "authentication_failed"},
	{ErrStore, "store_error"},
	{ErrForbidden, "forbidden"},
	{ErrConflict, "conflict"},
	{ErrUnavailable, "unavailable"},
}

// KindOf returns the machine-readable kind of err, or "internal_error".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal_error"
}

// storeError translates a repository error into a service kind. Causes
// other than not-found and conflict are logged and replaced by ErrStore.
func storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	}
	logging.FromContext(ctx).Error("store operation failed", "op", op, "error", err)
	return ErrStore
}
