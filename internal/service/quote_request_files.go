package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/export"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/storage"
	"go.uber.org/zap"
)

// FileUpload is a file received from a client
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// store uploads a file under prefix and describes it as an attachment
func (s *QuoteRequestService) store(ctx context.Context, prefix string, file FileUpload, uploadedBy string) (*domain.Attachment, error) {
	if s.maxUploadBytes > 0 && file.Size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, file.Filename, s.maxUploadBytes)
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, size, err := s.storage.Upload(ctx, prefix, file.Filename, contentType, file.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	return &domain.Attachment{
		Name:        file.Filename,
		URL:         key,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
		UploadedBy:  uploadedBy,
	}, nil
}

// UploadAttachment stores a file and attaches it to a quote request
func (s *QuoteRequestService) UploadAttachment(ctx context.Context, id uuid.UUID, file FileUpload) (*domain.QuoteRequestDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	attachment, err := s.store(ctx, storage.QuoteFilesPrefix(qr.ID), file, userCtx.Email)
	if err != nil {
		return nil, err
	}

	qr.Attachments = append(qr.Attachments, *attachment)
	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		if delErr := s.storage.Delete(ctx, attachment.URL); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", attachment.URL), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to attach file: %w", err)
	}
	s.recordModifications(ctx, qr.ID, userCtx, []domain.Modification{
		{Field: "attachments", NewValue: attachment.Name},
	})

	s.logger.Info("attachment uploaded",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("key", attachment.URL),
		zap.Int64("size", attachment.Size))

	return s.toDTO(ctx, qr)
}

// DownloadAttachment opens the attachment at index. The caller closes the reader.
func (s *QuoteRequestService) DownloadAttachment(ctx context.Context, id uuid.UUID, index int) (io.ReadCloser, *domain.Attachment, error) {
	qr, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(qr.Attachments) {
		return nil, nil, ErrAttachmentNotFound
	}
	attachment := qr.Attachments[index]

	reader, err := s.storage.Download(ctx, attachment.URL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	return reader, &attachment, nil
}

// DeleteAttachment detaches the attachment at index and removes the stored file
func (s *QuoteRequestService) DeleteAttachment(ctx context.Context, id uuid.UUID, index int) (*domain.QuoteRequestDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(qr.Attachments) {
		return nil, ErrAttachmentNotFound
	}
	attachment := qr.Attachments[index]

	qr.Attachments = slices.Delete(slices.Clone(qr.Attachments), index, index+1)
	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to detach file: %w", err)
	}
	if err := s.storage.Delete(ctx, attachment.URL); err != nil {
		s.logger.Warn("failed to delete stored file",
			zap.String("quoteRequestId", qr.ID.String()),
			zap.String("key", attachment.URL),
			zap.Error(err))
	}
	s.recordModifications(ctx, qr.ID, userCtx, []domain.Modification{
		{Field: "attachments", OldValue: attachment.Name},
	})

	return s.toDTO(ctx, qr)
}

// Export renders the visible quote requests matching filters as a spreadsheet
func (s *QuoteRequestService) Export(ctx context.Context, filters *repository.QuoteRequestFilters) (*bytes.Buffer, string, error) {
	labels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load labels: %w", err)
	}
	special := labeling.Resolve(labels)
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.ID.String()] = l.Name
	}

	requests, err := s.quoteRepo.ListVisible(ctx, filters)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list quote requests: %w", err)
	}
	rows := make([]domain.QuoteRequestDTO, len(requests))
	for i := range requests {
		rows[i] = mapper.ToQuoteRequestDTO(&requests[i], special)
	}

	now := time.Now().UTC()
	buf, err := export.QuoteRequests(rows, names, now)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build export: %w", err)
	}

	s.logger.Info("quote requests exported",
		zap.Int("rows", len(rows)),
		zap.String("exportedBy", actorEmail(ctx)))
	return buf, export.Filename(now), nil
}
