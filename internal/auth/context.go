package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	UID         string
	DisplayName string
	Email       string
	Role        domain.UserRole
	Countries   []string
	// IsSystem marks requests authenticated with the API key
	IsSystem bool
}

type contextKey string

const userContextKey contextKey = "userContext"
const countryFilterKey contextKey = "countryFilter"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole reports whether the user's role is at least min.
// Roles are ordered superAdmin > admin > user > readOnly.
func (u *UserContext) HasRole(min domain.UserRole) bool {
	return u.Role.Rank() >= min.Rank()
}

// IsSuperAdmin checks if user is a super admin
func (u *UserContext) IsSuperAdmin() bool {
	return u.Role == domain.RoleSuperAdmin
}

// IsAdmin checks if user is an admin or super admin
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// CanWrite reports whether the user may mutate data
func (u *UserContext) CanWrite() bool {
	return u.HasRole(domain.RoleUser)
}

// SeesAllCountries reports whether the user is exempt from country visibility
func (u *UserContext) SeesAllCountries() bool {
	return u.IsAdmin()
}

// CanAccessCountry checks if user can see data for a country
func (u *UserContext) CanAccessCountry(country string) bool {
	if u.SeesAllCountries() {
		return true
	}
	for _, c := range u.Countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// CanAccessQuoteRequest checks if the creator or involved country is visible to the user
func (u *UserContext) CanAccessQuoteRequest(qr *domain.QuoteRequest) bool {
	return u.CanAccessCountry(qr.CreatorCountry) || u.CanAccessCountry(qr.InvolvedCountry)
}

// PrimaryCountry returns the first assigned country, or "" when none
func (u *UserContext) PrimaryCountry() string {
	if len(u.Countries) == 0 {
		return ""
	}
	return u.Countries[0]
}

// GetCountryFilter returns the countries to filter queries by.
// Returns nil for admins (no filtering needed).
func (u *UserContext) GetCountryFilter() *CountryFilter {
	if u.SeesAllCountries() {
		return nil
	}
	countries := make([]string, len(u.Countries))
	copy(countries, u.Countries)
	return &CountryFilter{Countries: countries}
}

// CountryFilter restricts queries to records touching one of Countries.
// An empty list matches nothing.
type CountryFilter struct {
	Countries []string
	// Requested is the country explicitly chosen with ?country=
	Requested string
}

// WithCountryFilter adds the country filter to the context
func WithCountryFilter(ctx context.Context, filter *CountryFilter) context.Context {
	return context.WithValue(ctx, countryFilterKey, filter)
}

// CountryFilterFromContext extracts the country filter from the context
func CountryFilterFromContext(ctx context.Context) (*CountryFilter, bool) {
	filter, ok := ctx.Value(countryFilterKey).(*CountryFilter)
	return filter, ok
}

// GetEffectiveCountryFilter returns the filter repositories should apply, or
// nil when the caller may see every country. An explicit filter set by
// middleware wins over the user's default.
func GetEffectiveCountryFilter(ctx context.Context) *CountryFilter {
	if filter, ok := CountryFilterFromContext(ctx); ok {
		return filter
	}
	if userCtx, ok := FromContext(ctx); ok {
		return userCtx.GetCountryFilter()
	}
	return nil
}
