package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loxconnect/connect-api/internal/deadline"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/lock"
	"github.com/loxconnect/connect-api/internal/metrics"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

const deadlineScanLockKey = "deadline-scan"

// DeadlineService runs the deadline notification scan. Runs are single-flight
// across instances through the Locker.
type DeadlineService struct {
	quoteRepo        *repository.QuoteRequestRepository
	notificationRepo *repository.NotificationRepository
	reconciler       *Reconciler
	notifications    *NotificationService
	locker           lock.Locker
	location         *time.Location
	lockTTL          time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

func NewDeadlineService(
	quoteRepo *repository.QuoteRequestRepository,
	notificationRepo *repository.NotificationRepository,
	reconciler *Reconciler,
	notifications *NotificationService,
	locker lock.Locker,
	location *time.Location,
	lockTTL time.Duration,
	logger *zap.Logger,
) *DeadlineService {
	if location == nil {
		location = time.UTC
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &DeadlineService{
		quoteRepo:        quoteRepo,
		notificationRepo: notificationRepo,
		reconciler:       reconciler,
		notifications:    notifications,
		locker:           locker,
		location:         location,
		lockTTL:          lockTTL,
		now:              time.Now,
		logger:           logger,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *DeadlineService) SetClock(now func() time.Time) {
	s.now = now
}

// CheckDeadlines scans every dated quote request and creates the deadline
// warnings that are due and not yet sent. Callers must be admins; scheduled
// runs authenticate as the system user. Completed scans are logged here;
// failures are returned for the caller to log.
func (s *DeadlineService) CheckDeadlines(ctx context.Context) (*domain.DeadlineScanResultDTO, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, deadlineScanLockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			metrics.DeadlineScans.WithLabelValues("skipped_locked").Inc()
			return nil, ErrScanInProgress
		}
		metrics.DeadlineScans.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to acquire scan lock: %w", err)
	}
	defer func() {
		// release even if the request context is already done
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release scan lock", zap.Error(err))
		}
	}()

	started := s.now()
	result, err := s.scan(ctx, started)
	duration := s.now().Sub(started)
	metrics.DeadlineScanDuration.Observe(duration.Seconds())
	if err != nil {
		metrics.DeadlineScans.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.DeadlineScans.WithLabelValues("completed").Inc()

	result.StartedAt = started.UTC()
	result.DurationMs = duration.Milliseconds()
	s.logger.Info("deadline scan completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", duration))
	return result, nil
}

func (s *DeadlineService) scan(ctx context.Context, now time.Time) (*domain.DeadlineScanResultDTO, error) {
	requests, err := s.quoteRepo.ListWithDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote requests: %w", err)
	}
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}

	settings := make(map[string]deadline.Settings)
	settingsFor := func(country string) deadline.Settings {
		st, ok := settings[country]
		if !ok {
			st = s.notifications.SettingsFor(ctx, country)
			settings[country] = st
		}
		return st
	}

	result := &domain.DeadlineScanResultDTO{}
	for i := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qr := &requests[i]
		result.Scanned++

		planned := labeling.Effective(qr, special).Has(labeling.Planned)
		for _, w := range deadline.Plan(qr, planned, settingsFor, now, s.location) {
			exists, err := s.notificationRepo.DeadlineWarningExists(ctx, w.QuoteRequestID, w.TargetCountry, w.DeadlineType, w.DaysUntil)
			if err != nil {
				result.Failed++
				s.logger.Warn("failed to check existing deadline warning",
					zap.String("quoteRequestId", qr.ID.String()),
					zap.String("targetCountry", w.TargetCountry),
					zap.Error(err))
				continue
			}
			if exists {
				result.Skipped++
				continue
			}

			n := deadline.Notification(w, qr)
			if err := s.notificationRepo.Create(ctx, n); err != nil {
				result.Failed++
				s.logger.Warn("failed to create deadline warning",
					zap.String("quoteRequestId", qr.ID.String()),
					zap.String("targetCountry", w.TargetCountry),
					zap.Error(err))
				continue
			}
			result.Created++
			metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		}
	}
	return result, nil
}
