package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

// ModificationRepository stores the field-level change history of quote requests
type ModificationRepository struct {
	db *gorm.DB
}

func NewModificationRepository(db *gorm.DB) *ModificationRepository {
	return &ModificationRepository{db: db}
}

// CreateBatch stores several modifications at once
func (r *ModificationRepository) CreateBatch(ctx context.Context, mods []domain.Modification) error {
	if len(mods) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&mods).Error
}

// ListByQuoteRequest returns the history of a quote request, newest first
func (r *ModificationRepository) ListByQuoteRequest(ctx context.Context, quoteRequestID uuid.UUID, limit int) ([]domain.Modification, error) {
	var mods []domain.Modification
	query := r.db.WithContext(ctx).
		Where("quote_request_id = ?", quoteRequestID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&mods).Error
	return mods, err
}

func (r *ModificationRepository) DeleteByQuoteRequest(ctx context.Context, quoteRequestID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Modification{}, "quote_request_id = ?", quoteRequestID).Error
}

// WithTx returns a repository bound to tx
func (r *ModificationRepository) WithTx(tx *gorm.DB) *ModificationRepository {
	return &ModificationRepository{db: tx}
}
