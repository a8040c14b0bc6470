package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentline/apiserver/internal/auth"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/store"
	"github.com/talentline/apiserver/types"
)

// UserStore defines persistence operations for users. Lookups return
// store.ErrNotFound when nothing matches; Insert and Save return
// store.ErrConflict on a uniqueness violation.
type UserStore interface {
	FindByID(ctx context.Context, id string) (types.User, error)
	FindByEmail(ctx context.Context, email string) (types.User, error)
	FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (types.User, error)
	Insert(ctx context.Context, user types.User) (types.User, error)
	Save(ctx context.Context, user types.User) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer mints access tokens bound to a user id and resolves them back.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Resolve(token string) (string, error)
}

// IdentityVerifier decodes third-party identity tokens. When IsAvailable
// reports false, no third-party sign in is possible.
type IdentityVerifier interface {
	IsAvailable() bool
	Decode(ctx context.Context, token string) (*types.ExternalClaims, error)
}

// Session is the result of a successful sign in.
type Session struct {
	AccessToken string
	TokenType   string
	User        types.PublicUser
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// AuthService resolves credentials to user records and issues sessions.
type AuthService struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	verifier IdentityVerifier
	newID    func() string
	now      func() time.Time
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, verifier IdentityVerifier) *AuthService {
	if verifier == nil {
		verifier = auth.DisabledVerifier{}
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers a local account. The token is issued before the record
// is written, so a failure leaves nothing behind.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Session{}, err
	}
	if in.Password == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return Session{}, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, auth.MaxPasswordBytes)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return Session{}, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if !types.ValidRole(role) {
		return Session{}, fmt.Errorf("%w: role must be %q or %q", ErrValidation, types.RoleCandidate, types.RoleEmployer)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return Session{}, ErrDuplicateIdentity
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, s.fail(ctx, "signup.lookup", err, ErrStore)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, s.fail(ctx, "signup.hash", err, ErrAuthenticationFailed)
	}

	user := types.User{
		ID:            s.newID(),
		Email:         email,
		PasswordHash:  hash,
		FullName:      fullName,
		Role:          role,
		IsActive:      true,
		AuthProvider:  types.ProviderLocal,
		EmailVerified: false,
		CreatedAt:     s.now(),
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, s.fail(ctx, "signup.issue", err, ErrAuthenticationFailed)
	}

	created, err := s.users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Session{}, ErrDuplicateIdentity
		}
		return Session{}, s.fail(ctx, "signup.insert", err, ErrStore)
	}

	return newSession(token, created), nil
}

// Login checks a password. Unknown email, password-less account, inactive
// account and wrong password all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, s.fail(ctx, "login.lookup", err, ErrStore)
	}
	if user.PasswordHash == "" || !user.IsActive {
		return Session{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, s.fail(ctx, "login.issue", err, ErrAuthenticationFailed)
	}
	return newSession(token, user), nil
}

// AuthenticateExternal signs in with a third-party identity token. An
// existing record matching the external id or the email is reused (and
// linked if it had no external id yet); otherwise a password-less record
// is created with defaultRole. The role of an existing record never changes.
func (s *AuthService) AuthenticateExternal(ctx context.Context, rawToken, defaultRole string) (Session, error) {
	if !s.verifier.IsAvailable() {
		return Session{}, s.fail(ctx, "authenticate.verifier", auth.ErrVerifierDisabled, ErrAuthenticationFailed)
	}

	role := strings.ToLower(strings.TrimSpace(defaultRole))
	if role == "" {
		role = types.RoleCandidate
	}
	if !types.ValidRole(role) {
		return Session{}, fmt.Errorf("%w: role must be %q or %q", ErrValidation, types.RoleCandidate, types.RoleEmployer)
	}

	claims, err := s.decode(ctx, "authenticate.decode", rawToken)
	if err != nil {
		return Session{}, err
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if strings.TrimSpace(claims.ExternalID) == "" || email == "" {
		return Session{}, ErrMissingClaims
	}

	// A concurrent first sign in may win the insert; the retry then
	// resolves to the record it created.
	for attempt := 0; ; attempt++ {
		user, token, err := s.resolveExternal(ctx, claims, email, role)
		if errors.Is(err, store.ErrConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return Session{}, s.fail(ctx, "authenticate.resolve", err, ErrAuthenticationFailed)
		}
		return newSession(token, user), nil
	}
}

func (s *AuthService) resolveExternal(ctx context.Context, claims *types.ExternalClaims, email, role string) (types.User, string, error) {
	user, err := s.users.FindByExternalIDOrEmail(ctx, claims.ExternalID, email)
	switch {
	case err == nil:
		token, err := s.tokens.Issue(user.ID)
		if err != nil {
			return types.User{}, "", err
		}
		if user.FirebaseUID == "" {
			attachExternal(&user, claims)
			if err := s.users.Save(ctx, user); err != nil {
				return types.User{}, "", err
			}
		}
		return user, token, nil

	case errors.Is(err, store.ErrNotFound):
		user = types.User{
			ID:             s.newID(),
			Email:          email,
			FullName:       displayName(claims, email),
			Role:           role,
			IsActive:       true,
			FirebaseUID:    claims.ExternalID,
			GoogleID:       claims.ProviderAccountID,
			ProfilePicture: claims.AvatarURL,
			AuthProvider:   types.ProviderFirebase,
			EmailVerified:  claims.EmailVerified,
			CreatedAt:      s.now(),
		}
		token, err := s.tokens.Issue(user.ID)
		if err != nil {
			return types.User{}, "", err
		}
		created, err := s.users.Insert(ctx, user)
		if err != nil {
			return types.User{}, "", err
		}
		return created, token, nil

	default:
		return types.User{}, "", err
	}
}

// LinkExternal attaches the identity in rawToken to userID, overwriting any
// previously linked identity. Repeating it with the same token is a no-op.
func (s *AuthService) LinkExternal(ctx context.Context, userID, rawToken string) (types.PublicUser, error) {
	if !s.verifier.IsAvailable() {
		return types.PublicUser{}, s.fail(ctx, "link.verifier", auth.ErrVerifierDisabled, ErrAuthenticationFailed)
	}

	claims, err := s.decode(ctx, "link.decode", rawToken)
	if err != nil {
		return types.PublicUser{}, err
	}
	if strings.TrimSpace(claims.ExternalID) == "" {
		return types.PublicUser{}, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, ErrNotFound
		}
		return types.PublicUser{}, s.fail(ctx, "link.lookup", err, ErrAuthenticationFailed)
	}

	attachExternal(&user, claims)
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, ErrNotFound
		}
		return types.PublicUser{}, s.fail(ctx, "link.save", err, ErrAuthenticationFailed)
	}
	return user.Public(), nil
}

// ResolveSession returns the user id embedded in an access token.
func (s *AuthService) ResolveSession(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidSession
	}
	subject, err := s.tokens.Resolve(token)
	if err != nil || subject == "" {
		return "", ErrInvalidSession
	}
	return subject, nil
}

// CurrentUser resolves an access token to the public view of its user.
// Tokens of deleted or deactivated users are invalid sessions.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (types.PublicUser, error) {
	userID, err := s.ResolveSession(token)
	if err != nil {
		return types.PublicUser{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, ErrInvalidSession
		}
		return types.PublicUser{}, s.fail(ctx, "session.lookup", err, ErrStore)
	}
	if !user.IsActive {
		return types.PublicUser{}, ErrInvalidSession
	}
	return user.Public(), nil
}

// ExternalSignInAvailable reports whether third-party sign in is configured.
func (s *AuthService) ExternalSignInAvailable() bool {
	return s.verifier.IsAvailable()
}

func (s *AuthService) decode(ctx context.Context, op, rawToken string) (*types.ExternalClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.verifier.Decode(ctx, rawToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenRejected) {
			logging.FromContext(ctx).Info("identity token rejected", "op", op, "error", err)
			return nil, ErrInvalidToken
		}
		return nil, s.fail(ctx, op, err, ErrAuthenticationFailed)
	}
	if claims == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// fail logs cause and returns kind alone. Deadline and cancellation always
// surface as ErrAuthenticationFailed.
func (s *AuthService) fail(ctx context.Context, op string, cause, kind error) error {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		kind = ErrAuthenticationFailed
	}
	logging.FromContext(ctx).Error("identity resolution failed", "op", op, "kind", KindOf(kind), "error", cause)
	return kind
}

func attachExternal(user *types.User, claims *types.ExternalClaims) {
	user.FirebaseUID = claims.ExternalID
	user.AuthProvider = types.ProviderFirebase
	user.EmailVerified = claims.EmailVerified
	if claims.AvatarURL != "" {
		user.ProfilePicture = claims.AvatarURL
	}
	if claims.ProviderAccountID != "" {
		user.GoogleID = claims.ProviderAccountID
	}
}

func displayName(claims *types.ExternalClaims, email string) string {
	if name := strings.TrimSpace(claims.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return email, nil
}

func newSession(token string, user types.User) Session {
	return Session{AccessToken: token, TokenType: "bearer", User: user.Public()}
}
