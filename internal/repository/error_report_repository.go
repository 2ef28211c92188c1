package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type ErrorReportRepository struct {
	db *gorm.DB
}

func NewErrorReportRepository(db *gorm.DB) *ErrorReportRepository {
	return &ErrorReportRepository{db: db}
}

func (r *ErrorReportRepository) Create(ctx context.Context, report *domain.ErrorReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *ErrorReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorReport, error) {
	var report domain.ErrorReport
	err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ErrorReportRepository) List(ctx context.Context, page, pageSize int, status string) ([]domain.ErrorReport, int64, error) {
	var reports []domain.ErrorReport
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.ErrorReport{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&reports).Error
	return reports, total, err
}

func (r *ErrorReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ErrorReportStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.ErrorReport{}).
		Where("id = ?", id).
		Update("status", status).Error
}
