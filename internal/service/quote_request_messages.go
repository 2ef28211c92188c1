package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/storage"
	"go.uber.org/zap"
)

const maxMessagePreview = 200

// ListMessages returns the conversation on a quote request, oldest first
func (s *QuoteRequestService) ListMessages(ctx context.Context, id uuid.UUID) ([]domain.MessageDTO, error) {
	qr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByQuoteRequest(ctx, qr.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	dtos := make([]domain.MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = mapper.ToMessageDTO(&messages[i])
	}
	return dtos, nil
}

// PostMessage adds a message with optional attachments and notifies the
// country on the other side of the request.
func (s *QuoteRequestService) PostMessage(ctx context.Context, id uuid.UUID, text string, files []FileUpload) (*domain.MessageDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}

	message := &domain.Message{
		QuoteRequestID: qr.ID,
		SenderID:       userCtx.UID,
		SenderName:     userCtx.DisplayName,
		SenderCountry:  userCtx.PrimaryCountry(),
		Text:           text,
	}
	if message.SenderName == "" {
		message.SenderName = userCtx.Email
	}

	for _, f := range files {
		attachment, err := s.store(ctx, storage.MessagesPrefix(qr.ID), f, userCtx.Email)
		if err != nil {
			s.removeUploads(ctx, message.Attachments)
			return nil, err
		}
		message.Attachments = append(message.Attachments, *attachment)
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.removeUploads(ctx, message.Attachments)
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if target := otherCountry(qr, userCtx); target != "" {
		qrID := qr.ID
		s.notifications.NotifyCountry(ctx, &domain.Notification{
			TargetCountry:  target,
			Type:           domain.NotificationTypeMessage,
			Title:          fmt.Sprintf("New message on %q", qr.Title),
			Message:        preview(fmt.Sprintf("%s: %s", message.SenderName, text)),
			QuoteRequestID: &qrID,
		})
	}

	s.logger.Info("message posted",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("messageId", message.ID.String()),
		zap.Int("attachments", len(message.Attachments)))

	dto := mapper.ToMessageDTO(message)
	return &dto, nil
}

func (s *QuoteRequestService) removeUploads(ctx context.Context, attachments []domain.Attachment) {
	for _, a := range attachments {
		if err := s.storage.Delete(ctx, a.URL); err != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", a.URL), zap.Error(err))
		}
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= maxMessagePreview {
		return s
	}
	return string(r[:maxMessagePreview-1]) + "…"
}
