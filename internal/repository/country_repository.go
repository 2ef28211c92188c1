package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type CountryRepository struct {
	db *gorm.DB
}

func NewCountryRepository(db *gorm.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

func (r *CountryRepository) Create(ctx context.Context, country *domain.Country) error {
	return r.db.WithContext(ctx).Create(country).Error
}

func (r *CountryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Country, error) {
	var country domain.Country
	err := r.db.WithContext(ctx).First(&country, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *CountryRepository) GetByName(ctx context.Context, name string) (*domain.Country, error) {
	var country domain.Country
	err := r.db.WithContext(ctx).First(&country, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *CountryRepository) Update(ctx context.Context, country *domain.Country) error {
	return r.db.WithContext(ctx).Save(country).Error
}

func (r *CountryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Country{}, "id = ?", id).Error
}

// List returns all countries ordered by name
func (r *CountryRepository) List(ctx context.Context) ([]domain.Country, error) {
	var countries []domain.Country
	err := r.db.WithContext(ctx).Order("name ASC").Find(&countries).Error
	return countries, err
}

// WithTx returns a repository bound to tx
func (r *CountryRepository) WithTx(tx *gorm.DB) *CountryRepository {
	return &CountryRepository{db: tx}
}
