package middleware

import (
	"net/http"
	"strings"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"go.uber.org/zap"
)

// CountryFilterMiddleware narrows country visibility for a request.
// Admins see every country unless they pass ?country=<name>; everyone else
// is limited to their assigned countries and may narrow further to one of them.
type CountryFilterMiddleware struct {
	logger *zap.Logger
}

// NewCountryFilterMiddleware creates a new country filter middleware
func NewCountryFilterMiddleware(logger *zap.Logger) *CountryFilterMiddleware {
	return &CountryFilterMiddleware{
		logger: logger,
	}
}

// Filter sets the effective country filter in context
func (m *CountryFilterMiddleware) Filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok {
			// Authentication middleware rejects anonymous requests before this runs
			next.ServeHTTP(w, r)
			return
		}

		requested := r.URL.Query().Get("country")
		if requested == "" {
			// Repositories fall back to the user's default filter
			next.ServeHTTP(w, r)
			return
		}

		if !userCtx.CanAccessCountry(requested) {
			m.logger.Warn("user attempted to access unauthorized country",
				zap.String("user_id", userCtx.UserID.String()),
				zap.Strings("user_countries", userCtx.Countries),
				zap.String("requested_country", requested),
			)
			respondMiddlewareError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "you cannot access data for this country")
			return
		}

		// Use the assigned spelling so repository comparisons match stored names
		country := requested
		for _, c := range userCtx.Countries {
			if strings.EqualFold(c, requested) {
				country = c
				break
			}
		}
		filter := &auth.CountryFilter{
			Countries: []string{country},
			Requested: country,
		}
		ctx := auth.WithCountryFilter(r.Context(), filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
