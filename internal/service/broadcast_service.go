package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/metrics"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BroadcastService sends admin announcements to whole countries
type BroadcastService struct {
	broadcastRepo    *repository.BroadcastRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
	db               *gorm.DB
}

func NewBroadcastService(
	broadcastRepo *repository.BroadcastRepository,
	notificationRepo *repository.NotificationRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *BroadcastService {
	return &BroadcastService{
		broadcastRepo:    broadcastRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		db:               db,
	}
}

// Create records a broadcast and one notification per target country in a
// single transaction
func (s *BroadcastService) Create(ctx context.Context, req *domain.CreateBroadcastRequest) (*domain.BroadcastDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	countries := normalizeCountries(req.TargetCountries)
	if len(countries) == 0 {
		return nil, fmt.Errorf("%w: at least one target country is required", ErrInvalidInput)
	}

	broadcast := &domain.Broadcast{
		Title:             strings.TrimSpace(req.Title),
		Message:           strings.TrimSpace(req.Message),
		TargetCountries:   countries,
		SentBy:            userCtx.Email,
		NotificationCount: len(countries),
	}
	notifications := make([]*domain.Notification, len(countries))
	for i, country := range countries {
		notifications[i] = &domain.Notification{
			TargetCountry: country,
			Type:          domain.NotificationTypeBroadcast,
			Title:         broadcast.Title,
			Message:       broadcast.Message,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.broadcastRepo.WithTx(tx).Create(ctx, broadcast); err != nil {
			return err
		}
		return s.notificationRepo.WithTx(tx).CreateBatch(ctx, notifications)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send broadcast: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(domain.NotificationTypeBroadcast)).Add(float64(len(notifications)))

	s.logger.Info("broadcast sent",
		zap.String("broadcastId", broadcast.ID.String()),
		zap.Strings("targetCountries", countries),
		zap.String("sentBy", userCtx.Email))

	dto := mapper.ToBroadcastDTO(broadcast)
	return &dto, nil
}

func (s *BroadcastService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	broadcasts, total, err := s.broadcastRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	dtos := make([]domain.BroadcastDTO, len(broadcasts))
	for i := range broadcasts {
		dtos[i] = mapper.ToBroadcastDTO(&broadcasts[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}
