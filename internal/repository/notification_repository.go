package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recipient identifies whose inbox a notification query addresses: the user's
// own notifications plus those targeted at any of the user's countries.
type Recipient struct {
	UserID    uuid.UUID
	Countries []string
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// CreateBatch inserts several notifications in one statement
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) inbox(ctx context.Context, recipient Recipient) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&domain.Notification{})
	if len(recipient.Countries) == 0 {
		return query.Where("user_id = ?", recipient.UserID)
	}
	return query.Where("(user_id = ? OR (user_id IS NULL AND target_country IN ?))", recipient.UserID, recipient.Countries)
}

func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipient Recipient, page, pageSize int, unreadOnly bool, notificationType string) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	query := r.inbox(ctx, recipient)

	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	if notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&notifications).Error

	return notifications, total, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		}).Error
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, recipient Recipient) (int64, error) {
	now := time.Now()
	result := r.inbox(ctx, recipient).
		Where("read = ?", false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient Recipient) (int, error) {
	var count int64
	err := r.inbox(ctx, recipient).
		Where("read = ?", false).
		Count(&count).Error
	return int(count), err
}

// DeadlineWarningExists reports whether a deadline warning with the same
// signature has already been stored
func (r *NotificationRepository) DeadlineWarningExists(ctx context.Context, quoteRequestID uuid.UUID, targetCountry string, deadlineType domain.DeadlineType, daysUntil int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("quote_request_id = ? AND target_country = ? AND type = ? AND deadline_type = ? AND days_until_deadline = ?",
			quoteRequestID, targetCountry, domain.NotificationTypeDeadlineWarning, deadlineType, daysUntil).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// RenameCountry retargets notifications addressed to a renamed country
func (r *NotificationRepository) RenameCountry(ctx context.Context, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("target_country = ?", from).
		UpdateColumn("target_country", to)
	return result.RowsAffected, result.Error
}

// DeleteByQuoteRequest removes notifications that point at a deleted quote request
func (r *NotificationRepository) DeleteByQuoteRequest(ctx context.Context, quoteRequestID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Notification{}, "quote_request_id = ?", quoteRequestID).Error
}

// GetSettings returns the stored settings for a country
func (r *NotificationRepository) GetSettings(ctx context.Context, country string) (*domain.NotificationSettings, error) {
	var settings domain.NotificationSettings
	err := r.db.WithContext(ctx).First(&settings, "country = ?", country).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// ListSettings returns all stored per-country settings
func (r *NotificationRepository) ListSettings(ctx context.Context) ([]domain.NotificationSettings, error) {
	var settings []domain.NotificationSettings
	err := r.db.WithContext(ctx).Order("country ASC").Find(&settings).Error
	return settings, err
}

// UpsertSettings creates or replaces the settings of a country
func (r *NotificationRepository) UpsertSettings(ctx context.Context, settings *domain.NotificationSettings) error {
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_date_warning_days", "end_date_warning_days", "enabled", "updated_at"}),
	}).Create(settings).Error
}

// RenameSettingsCountry moves stored settings to a renamed country
func (r *NotificationRepository) RenameSettingsCountry(ctx context.Context, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.NotificationSettings{}).
		Where("country = ?", from).
		UpdateColumn("country", to)
	return result.RowsAffected, result.Error
}

// WithTx returns a repository bound to tx
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}
