package types

import "time"

// Roles a user may hold. A role is fixed at account creation.
const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
)

// Auth providers recorded on a user.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleCandidate || role == RoleEmployer
}

// User represents an account in the system.
// It contains identity, role, linked third-party identity, and audit metadata.
type User struct {
	// ID is the unique identifier of the user (UUID string).
	ID string `json:"id" db:"id"`

	// Email is the user's email address, stored trimmed and lower-cased.
	// It is unique across all users.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// Empty for accounts created through a third-party provider; such
	// accounts can never sign in with a password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"hashed_password"`

	// FullName is the user's display name.
	FullName string `json:"full_name" db:"full_name"`

	// Role is either "candidate" or "employer".
	Role string `json:"role" db:"role"`

	// IsActive marks whether the account may be used.
	IsActive bool `json:"is_active" db:"is_active"`

	// FirebaseUID is the subject identifier assigned by the external
	// identity provider. Unique when present.
	FirebaseUID string `json:"firebase_uid,omitempty" db:"firebase_uid"`

	// GoogleID is the account id at the upstream provider behind Firebase,
	// when the provider reports one.
	GoogleID string `json:"google_id,omitempty" db:"google_id"`

	// ProfilePicture is an avatar URL copied from the identity provider.
	ProfilePicture string `json:"profile_picture,omitempty" db:"profile_picture"`

	// AuthProvider is one of "local", "google", "firebase".
	AuthProvider string `json:"auth_provider" db:"auth_provider"`

	// EmailVerified reports whether the provider vouched for the email.
	EmailVerified bool `json:"email_verified" db:"email_verified"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is the client-safe view of a User. It has no password field
// at all, so it cannot leak one through any encoder.
type PublicUser struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	FirebaseUID    string    `json:"firebase_uid,omitempty"`
	GoogleID       string    `json:"google_id,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	AuthProvider   string    `json:"auth_provider"`
	EmailVerified  bool      `json:"email_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public strips the password hash and returns the client-safe view.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		IsActive:       u.IsActive,
		FirebaseUID:    u.FirebaseUID,
		GoogleID:       u.GoogleID,
		ProfilePicture: u.ProfilePicture,
		AuthProvider:   u.AuthProvider,
		EmailVerified:  u.EmailVerified,
		CreatedAt:      u.CreatedAt,
	}
}

// ExternalClaims is the decoded payload of a third-party identity token.
type ExternalClaims struct {
	// ExternalID is the provider's subject identifier. Required.
	ExternalID string

	// Email as asserted by the provider. Required.
	Email string

	DisplayName   string
	AvatarURL     string
	EmailVerified bool

	// ProviderAccountID is the upstream account id (e.g. the Google account
	// behind a Firebase sign-in), if any.
	ProviderAccountID string
}
