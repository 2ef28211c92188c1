package repository

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/loxconnect/connect-api/internal/auth"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns a default sort configuration (updated_at DESC)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "updatedAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config
// fieldMap maps API field names to database column names
// Returns the default sort if field is not in whitelist
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// ApplyCountryFilter restricts a quote request query to rows whose creator or
// involved country is visible to the caller. Without a filter (admins, system
// jobs) the query is returned unchanged.
func ApplyCountryFilter(ctx context.Context, query *gorm.DB) *gorm.DB {
	filter := auth.GetEffectiveCountryFilter(ctx)
	if filter == nil {
		return query
	}
	if len(filter.Countries) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where("(creator_country IN ? OR involved_country IN ?)", filter.Countries, filter.Countries)
}

// ApplyCountryFilterWithColumn applies the country filter to a single column
func ApplyCountryFilterWithColumn(ctx context.Context, query *gorm.DB, columnName string) *gorm.DB {
	filter := auth.GetEffectiveCountryFilter(ctx)
	if filter == nil {
		return query
	}
	if len(filter.Countries) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where(columnName+" IN ?", filter.Countries)
}

// MustHaveCountryAccess reports whether any of the given countries passes the
// caller's effective filter. Used for single-record checks.
func MustHaveCountryAccess(ctx context.Context, countries ...string) bool {
	filter := auth.GetEffectiveCountryFilter(ctx)
	if filter == nil {
		return true
	}
	for _, c := range countries {
		for _, allowed := range filter.Countries {
			if strings.EqualFold(c, allowed) {
				return true
			}
		}
	}
	return false
}

// jsonArrayContains matches rows whose JSON string array column holds value
func jsonArrayContains(db *gorm.DB, column, value string) (string, []interface{}) {
	if db.Dialector.Name() == "postgres" {
		encoded, _ := json.Marshal([]string{value})
		return column + " @> ?::jsonb", []interface{}{string(encoded)}
	}
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = ?)", []interface{}{value}
}

// jsonArrayLength is the SQL length of a JSON array column
func jsonArrayLength(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb_array_length(" + column + ")"
	}
	return "json_array_length(" + column + ")"
}
