package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

// DeadlineJobName is the name of the deadline notification job
const DeadlineJobName = "deadline_scan"

// DeadlineScanner runs one deadline notification scan
type DeadlineScanner interface {
	CheckDeadlines(ctx context.Context) (*domain.DeadlineScanResultDTO, error)
}

// DeadlineJob triggers the deadline scan as the system user
type DeadlineJob struct {
	scanner DeadlineScanner
	logger  *zap.Logger
	timeout time.Duration
}

func NewDeadlineJob(scanner DeadlineScanner, logger *zap.Logger, timeout time.Duration) *DeadlineJob {
	return &DeadlineJob{
		scanner: scanner,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one scan. A scan already running elsewhere is not an error.
func (j *DeadlineJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	ctx = auth.WithUserContext(ctx, auth.SystemUser())

	_, err := j.scanner.CheckDeadlines(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, service.ErrScanInProgress) {
		j.logger.Info("deadline scan skipped, another run holds the lock")
		return
	}
	j.logger.Error("deadline scan failed", zap.Error(err))
}

// RegisterDeadlineJob schedules the deadline scan. An empty cronExpr leaves it unscheduled.
func RegisterDeadlineJob(scheduler *Scheduler, scanner DeadlineScanner, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	if cronExpr == "" {
		logger.Info("deadline scan schedule disabled")
		return nil
	}
	job := NewDeadlineJob(scanner, logger, timeout)
	return scheduler.AddJob(DeadlineJobName, cronExpr, job.Run)
}
