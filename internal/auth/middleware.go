package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/logger"
	"go.uber.org/zap"
)

// SystemEmail identifies writes made with the API key
const SystemEmail = "system@loxconnect.io"

// ProfileResolver finds or creates the profile of a verified identity
type ProfileResolver interface {
	Bootstrap(ctx context.Context, id Identity) (*domain.UserProfile, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	verifier IDTokenVerifier
	sessions *SessionManager
	profiles ProfileResolver
	apiKey   string
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(verifier IDTokenVerifier, sessions *SessionManager, profiles ProfileResolver, apiKey string, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		sessions: sessions,
		profiles: profiles,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// SystemUser is the principal of API key requests and scheduled jobs
func SystemUser() *UserContext {
	return &UserContext{
		UserID:      uuid.Nil,
		UID:         "system",
		DisplayName: "System",
		Email:       SystemEmail,
		Role:        domain.RoleSuperAdmin,
		IsSystem:    true,
	}
}

// Authenticate resolves the caller from the API key, a bearer ID token or the
// session cookie, in that order
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userCtx := SystemUser()
			m.logger.Info("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)
			logger.AddUser(r.Context(), userCtx.Email, string(userCtx.Role))
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		identity, authType, err := m.identify(r)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", authType),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}
		if identity == nil {
			http.Error(w, "Unauthorized: missing credentials", http.StatusUnauthorized)
			return
		}

		profile, err := m.profiles.Bootstrap(r.Context(), *identity)
		if err != nil {
			m.logger.Error("failed to resolve user profile",
				zap.String("uid", identity.UID),
				zap.String("email", identity.Email),
				zap.Error(err),
			)
			http.Error(w, "Forbidden: user profile unavailable", http.StatusForbidden)
			return
		}

		userCtx := &UserContext{
			UserID:      profile.ID,
			UID:         identity.UID,
			DisplayName: profile.Name,
			Email:       profile.Email,
			Role:        profile.Role,
			Countries:   append([]string(nil), profile.Countries...),
		}

		m.logger.Info("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", authType),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_email", userCtx.Email),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		logger.AddUser(r.Context(), userCtx.Email, string(userCtx.Role))
		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// identify returns nil without error when the request carries no credentials
func (m *Middleware) identify(r *http.Request) (*Identity, string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return nil, "jwt", ErrInvalidToken
		}
		identity, err := m.verifier.ValidateToken(r.Context(), parts[1])
		return identity, "jwt", err
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		identity, err := m.sessions.Verify(cookie.Value)
		return identity, "session", err
	}
	return nil, "", nil
}

// RequireRole ensures the user's role is at least min
func (m *Middleware) RequireRole(min domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}
			if !userCtx.HasRole(min) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin ensures user has admin role or valid API key
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

// RequireSuperAdmin ensures user is a super admin
func (m *Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleSuperAdmin)(next)
}

// RequireWriter rejects mutating requests from read-only users. Safe methods pass.
func (m *Middleware) RequireWriter(next http.Handler) http.Handler {
	guarded := m.RequireRole(domain.RoleUser)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			guarded.ServeHTTP(w, r)
		}
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
