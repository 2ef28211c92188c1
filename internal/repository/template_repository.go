package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	var template domain.Template
	err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Template{}, "id = ?", id).Error
}

// List returns templates, optionally limited to one creator country. Templates
// without a country are shared and always included.
func (r *TemplateRepository) List(ctx context.Context, country string) ([]domain.Template, error) {
	var templates []domain.Template
	query := r.db.WithContext(ctx).Model(&domain.Template{})
	if country != "" {
		query = query.Where("creator_country = ? OR creator_country = ''", country)
	}
	err := query.Order("name ASC").Find(&templates).Error
	return templates, err
}
