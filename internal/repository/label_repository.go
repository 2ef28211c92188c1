package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Create(ctx context.Context, label *domain.Label) error {
	return r.db.WithContext(ctx).Create(label).Error
}

func (r *LabelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Label, error) {
	var label domain.Label
	err := r.db.WithContext(ctx).First(&label, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// GetByKind returns the label carrying a system kind
func (r *LabelRepository) GetByKind(ctx context.Context, kind domain.LabelKind) (*domain.Label, error) {
	var label domain.Label
	err := r.db.WithContext(ctx).First(&label, "kind = ?", kind).Error
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *LabelRepository) Update(ctx context.Context, label *domain.Label) error {
	return r.db.WithContext(ctx).Save(label).Error
}

func (r *LabelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Label{}, "id = ?", id).Error
}

// List returns every label, oldest first. Special label resolution depends on
// this order.
func (r *LabelRepository) List(ctx context.Context) ([]domain.Label, error) {
	var labels []domain.Label
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&labels).Error
	return labels, err
}

// DeleteMany removes labels by ID
func (r *LabelRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&domain.Label{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}

// SetKind assigns a system kind to a label
func (r *LabelRepository) SetKind(ctx context.Context, id uuid.UUID, kind domain.LabelKind) error {
	return r.db.WithContext(ctx).
		Model(&domain.Label{}).
		Where("id = ?", id).
		Update("kind", kind).Error
}

// WithTx returns a repository bound to tx
func (r *LabelRepository) WithTx(tx *gorm.DB) *LabelRepository {
	return &LabelRepository{db: tx}
}
