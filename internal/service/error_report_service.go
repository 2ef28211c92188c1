package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

type ErrorReportService struct {
	reportRepo *repository.ErrorReportRepository
	logger     *zap.Logger
}

func NewErrorReportService(reportRepo *repository.ErrorReportRepository, logger *zap.Logger) *ErrorReportService {
	return &ErrorReportService{reportRepo: reportRepo, logger: logger}
}

// Create files a report from any signed-in user, read-only users included
func (s *ErrorReportService) Create(ctx context.Context, req *domain.CreateErrorReportRequest) (*domain.ErrorReportDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	severity := req.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	report := &domain.ErrorReport{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Page:        req.Page,
		Severity:    severity,
		Status:      domain.ErrorReportStatusOpen,
		ReportedBy:  userCtx.Email,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create error report: %w", err)
	}

	s.logger.Info("error report filed",
		zap.String("errorReportId", report.ID.String()),
		zap.String("severity", string(report.Severity)),
		zap.String("page", report.Page),
		zap.String("reportedBy", report.ReportedBy))

	dto := mapper.ToErrorReportDTO(report)
	return &dto, nil
}

func (s *ErrorReportService) List(ctx context.Context, page, pageSize int, status string) (*domain.PaginatedResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	reports, total, err := s.reportRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list error reports: %w", err)
	}
	dtos := make([]domain.ErrorReportDTO, len(reports))
	for i := range reports {
		dtos[i] = mapper.ToErrorReportDTO(&reports[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

func (s *ErrorReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ErrorReportStatus) (*domain.ErrorReportDTO, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	switch status {
	case domain.ErrorReportStatusOpen, domain.ErrorReportStatusInProgress, domain.ErrorReportStatusResolved:
	default:
		return nil, fmt.Errorf("%w: unknown error report status %q", ErrInvalidInput, status)
	}

	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrErrorReportNotFound, "get error report")
	}
	if err := s.reportRepo.UpdateStatus(ctx, report.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update error report: %w", err)
	}
	report.Status = status

	dto := mapper.ToErrorReportDTO(report)
	return &dto, nil
}
