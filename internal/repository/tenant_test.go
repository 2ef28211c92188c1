package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMinimalTestDB creates a minimal test database for country filter tests
func setupMinimalTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// SimpleModel is a minimal model for testing the country filter
type SimpleModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Name            string
	CreatorCountry  string
	InvolvedCountry string
	Country         string
}

func TestApplyCountryFilter_WithFilter(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := auth.WithCountryFilter(context.Background(), &auth.CountryFilter{Countries: []string{"Norway"}})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyCountryFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "creator_country IN")
	assert.Contains(t, sql, "involved_country IN")
	assert.Contains(t, sql, "Norway")
}

func TestApplyCountryFilter_AdminIsUnfiltered(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: uuid.New(),
		Role:   domain.RoleAdmin,
	})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyCountryFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.NotContains(t, sql, "creator_country IN")
}

func TestApplyCountryFilter_NoCountriesMatchesNothing(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: uuid.New(),
		Role:   domain.RoleUser,
	})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyCountryFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "1 = 0")
}

func TestApplyCountryFilterWithColumn(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := auth.WithCountryFilter(context.Background(), &auth.CountryFilter{Countries: []string{"Sweden"}})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyCountryFilterWithColumn(ctx, tx.Model(&SimpleModel{}), "country").Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "country IN")
}

func TestMustHaveCountryAccess(t *testing.T) {
	assert.True(t, repository.MustHaveCountryAccess(context.Background(), "Norway"))

	ctx := auth.WithCountryFilter(context.Background(), &auth.CountryFilter{Countries: []string{"Norway"}})
	assert.True(t, repository.MustHaveCountryAccess(ctx, "Sweden", "norway"))
	assert.False(t, repository.MustHaveCountryAccess(ctx, "Sweden"))
}

func TestBuildOrderClause(t *testing.T) {
	fields := map[string]string{"title": "title"}
	assert.Equal(t, "title ASC", repository.BuildOrderClause(repository.SortConfig{Field: "title", Order: repository.SortOrderAsc}, fields, "updated_at"))
	assert.Equal(t, "updated_at DESC", repository.BuildOrderClause(repository.SortConfig{Field: "drop table", Order: repository.ParseSortOrder("x")}, fields, "updated_at"))
}
