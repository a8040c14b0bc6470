package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/ratelimit"
	"github.com/talentline/apiserver/internal/services"
	"github.com/talentline/apiserver/types"
)

// RateLimiter decides whether a client may attempt another sign in.
// *ratelimit.Limiter satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context, scope, key string) (ratelimit.Result, error)
}

// AuthHandler provides sign up, sign in and session endpoints.
type AuthHandler struct {
	auth    *services.AuthService
	limiter RateLimiter
}

// NewAuthHandler constructs an AuthHandler. limiter may be nil.
func NewAuthHandler(auth *services.AuthService, limiter RateLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, auth *services.AuthService, limiter RateLimiter) {
	handler := NewAuthHandler(auth, limiter)
	requireAuth := RequireAuth(auth)

	r.With(handler.rateLimit("signup")).Post("/signup", handler.Signup)
	r.With(handler.rateLimit("login")).Post("/login", handler.Login)
	r.With(handler.rateLimit("firebase")).Post("/firebase-auth", handler.FirebaseAuth)
	r.With(requireAuth).Post("/link-firebase", handler.LinkFirebase)
	r.With(requireAuth).Get("/me", handler.Me)
	r.Post("/logout", handler.Logout)
}

// RequireAuth resolves the bearer token to the current user and stores it
// in the request context.
func RequireAuth(auth *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "invalid_session", "unauthorized")
				return
			}

			user, err := auth.CurrentUser(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := withUser(r.Context(), user)
			ctx = logging.WithContext(ctx, logging.FromContext(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects users whose role differs from role. It must run
// after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_session", "unauthorized")
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "only "+role+"s may do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.Signup(r.Context(), services.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// FirebaseAuth signs in with a Firebase ID token, creating the account on
// first use.
func (h *AuthHandler) FirebaseAuth(w http.ResponseWriter, r *http.Request) {
	var req FirebaseAuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.AuthenticateExternal(r.Context(), req.FirebaseToken, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// LinkFirebase attaches a Firebase identity to the signed-in account.
func (h *AuthHandler) LinkFirebase(w http.ResponseWriter, r *http.Request) {
	current, _ := userFromContext(r.Context())

	var req FirebaseLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.LinkExternal(r.Context(), current.ID, req.FirebaseToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// Logout is a no-op for stateless tokens; clients drop the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out"})
}

// rateLimit throttles attempts per client IP. Limiter failures let the
// request through.
func (h *AuthHandler) rateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if h.limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := h.limiter.Allow(r.Context(), scope, clientIP(r))
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				seconds := int(res.RetryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type FirebaseAuthRequest struct {
	FirebaseToken string `json:"firebase_token"`
	Role          string `json:"role"`
}

type FirebaseLinkRequest struct {
	FirebaseToken string `json:"firebase_token"`
}

// SessionResponse is the public user with the issued access token.
type SessionResponse struct {
	types.PublicUser
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func newSessionResponse(s services.Session) SessionResponse {
	return SessionResponse{PublicUser: s.User, AccessToken: s.AccessToken, TokenType: s.TokenType}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// clientIP returns the request's remote host. chi's RealIP middleware has
// already replaced RemoteAddr with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
