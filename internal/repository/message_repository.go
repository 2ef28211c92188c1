package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListByQuoteRequest returns the conversation of a quote request, oldest first
func (r *MessageRepository) ListByQuoteRequest(ctx context.Context, quoteRequestID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("quote_request_id = ?", quoteRequestID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) DeleteByQuoteRequest(ctx context.Context, quoteRequestID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Message{}, "quote_request_id = ?", quoteRequestID).Error
}

// WithTx returns a repository bound to tx
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}
