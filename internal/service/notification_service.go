package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/deadline"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/metrics"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotificationNotOwned is returned when a notification is outside the caller's inbox
var ErrNotificationNotOwned = errors.New("notification does not belong to current user")

// NotificationService handles the notification inbox and per-country deadline settings
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	countryRepo      *repository.CountryRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	countryRepo *repository.CountryRepository,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		countryRepo:      countryRepo,
		logger:           logger,
	}
}

func recipientOf(userCtx *auth.UserContext) repository.Recipient {
	return repository.Recipient{UserID: userCtx.UserID, Countries: userCtx.Countries}
}

// NotifyCountry creates a notification for every user of a country. Failures
// are logged and swallowed so callers can fire and forget.
func (s *NotificationService) NotifyCountry(ctx context.Context, n *domain.Notification) {
	if n.TargetCountry == "" {
		return
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("type", string(n.Type)),
			zap.String("targetCountry", n.TargetCountry),
			zap.Error(err))
		return
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	s.logger.Info("notification created",
		zap.String("notificationId", n.ID.String()),
		zap.String("type", string(n.Type)),
		zap.String("targetCountry", n.TargetCountry))
}

// List returns a page of the caller's inbox
func (s *NotificationService) List(ctx context.Context, page, pageSize int, unreadOnly bool, notificationType string) (*domain.PaginatedResponse, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	notifications, total, err := s.notificationRepo.ListForRecipient(ctx, recipientOf(userCtx), page, pageSize, unreadOnly, notificationType)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// CountUnread returns the number of unread notifications in the caller's inbox
func (s *NotificationService) CountUnread(ctx context.Context) (int, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.notificationRepo.CountUnread(ctx, recipientOf(userCtx))
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks one notification in the caller's inbox as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return err
	}

	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrNotificationNotFound, "get notification")
	}
	if !inInbox(notification, userCtx) {
		return ErrNotificationNotOwned
	}
	if notification.Read {
		return nil
	}

	if err := s.notificationRepo.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

func inInbox(n *domain.Notification, userCtx *auth.UserContext) bool {
	if n.UserID != nil {
		return *n.UserID == userCtx.UserID
	}
	for _, c := range userCtx.Countries {
		if strings.EqualFold(c, n.TargetCountry) {
			return true
		}
	}
	return false
}

// MarkAllAsRead marks the caller's whole inbox as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int64, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.notificationRepo.MarkAllAsRead(ctx, recipientOf(userCtx))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	s.logger.Info("marked notifications as read",
		zap.String("userId", userCtx.UserID.String()),
		zap.Int64("count", count))
	return count, nil
}

// ListSettings returns the effective deadline settings of every known country.
// Countries without stored settings report the defaults.
func (s *NotificationService) ListSettings(ctx context.Context) ([]domain.NotificationSettingsDTO, error) {
	countries, err := s.countryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	stored, err := s.notificationRepo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification settings: %w", err)
	}

	byCountry := make(map[string]domain.NotificationSettings, len(stored))
	for _, st := range stored {
		byCountry[st.Country] = st
	}

	dtos := make([]domain.NotificationSettingsDTO, 0, len(countries))
	seen := make(map[string]bool, len(countries))
	for _, c := range countries {
		seen[c.Name] = true
		settings := deadline.DefaultSettings
		if st, ok := byCountry[c.Name]; ok {
			settings = deadline.FromModel(&st)
		}
		dtos = append(dtos, mapper.ToNotificationSettingsDTO(c.Name, settings.StartDateWarningDays, settings.EndDateWarningDays, settings.Enabled))
	}
	// settings stored for countries that are not in the country list
	for _, st := range stored {
		if !seen[st.Country] {
			dtos = append(dtos, mapper.ToNotificationSettingsDTO(st.Country, st.StartDateWarningDays, st.EndDateWarningDays, st.Enabled))
		}
	}
	return dtos, nil
}

// UpdateSettings stores the deadline settings of a country. Admin only.
func (s *NotificationService) UpdateSettings(ctx context.Context, country string, req *domain.UpdateNotificationSettingsRequest) (*domain.NotificationSettingsDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, fmt.Errorf("%w: country is required", ErrInvalidInput)
	}
	if req.StartDateWarningDays < 0 || req.EndDateWarningDays < 0 {
		return nil, fmt.Errorf("%w: warning days must not be negative", ErrInvalidInput)
	}

	settings := &domain.NotificationSettings{
		Country:              country,
		StartDateWarningDays: req.StartDateWarningDays,
		EndDateWarningDays:   req.EndDateWarningDays,
		Enabled:              req.Enabled,
	}
	if err := s.notificationRepo.UpsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}

	s.logger.Info("notification settings updated",
		zap.String("country", country),
		zap.Int("startDateWarningDays", req.StartDateWarningDays),
		zap.Int("endDateWarningDays", req.EndDateWarningDays),
		zap.Bool("enabled", req.Enabled),
		zap.String("updatedBy", userCtx.Email))

	dto := mapper.ToNotificationSettingsDTO(country, req.StartDateWarningDays, req.EndDateWarningDays, req.Enabled)
	return &dto, nil
}

// SettingsFor returns the deadline settings of a country. Missing settings and
// read failures both fall back to the defaults.
func (s *NotificationService) SettingsFor(ctx context.Context, country string) deadline.Settings {
	st, err := s.notificationRepo.GetSettings(ctx, country)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to read notification settings, using defaults",
				zap.String("country", country),
				zap.Error(err))
		}
		return deadline.DefaultSettings
	}
	return deadline.FromModel(st)
}
