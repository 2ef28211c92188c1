package repository

import (
	"context"

	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type BroadcastRepository struct {
	db *gorm.DB
}

func NewBroadcastRepository(db *gorm.DB) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

func (r *BroadcastRepository) Create(ctx context.Context, broadcast *domain.Broadcast) error {
	return r.db.WithContext(ctx).Create(broadcast).Error
}

func (r *BroadcastRepository) List(ctx context.Context, page, pageSize int) ([]domain.Broadcast, int64, error) {
	var broadcasts []domain.Broadcast
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Broadcast{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&broadcasts).Error
	return broadcasts, total, err
}

// WithTx returns a repository bound to tx
func (r *BroadcastRepository) WithTx(tx *gorm.DB) *BroadcastRepository {
	return &BroadcastRepository{db: tx}
}
