package jobs_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/jobs"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)

	require.NoError(t, s.AddJob("a", "0 0 6 * * *", func() {}))
	assert.Error(t, s.AddJob("a", "0 0 6 * * *", func() {}), "duplicate name")
	assert.Error(t, s.AddJob("b", "not a schedule", func() {}))
	assert.ElementsMatch(t, []string{"a"}, s.JobNames())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.JobNames())
}

func TestScheduler_RunsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var runs atomic.Int32
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)
	require.NoError(t, s.AddJob("tick", "@every 1s", func() { runs.Add(1) }))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestScheduler_RecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var runs atomic.Int32
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)
	require.NoError(t, s.AddJob("boom", "@every 1s", func() {
		runs.Add(1)
		panic("boom")
	}))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

type fakeScanner struct {
	err     error
	calls   int
	lastCtx context.Context
}

func (f *fakeScanner) CheckDeadlines(ctx context.Context) (*domain.DeadlineScanResultDTO, error) {
	f.calls++
	f.lastCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DeadlineScanResultDTO{Scanned: 3, Created: 1}, nil
}

func TestDeadlineJob_RunsAsSystemUser(t *testing.T) {
	scanner := &fakeScanner{}
	jobs.NewDeadlineJob(scanner, zap.NewNop(), time.Minute).Run()

	require.Equal(t, 1, scanner.calls)
	userCtx, ok := auth.FromContext(scanner.lastCtx)
	require.True(t, ok)
	assert.True(t, userCtx.IsSystem)
	assert.True(t, userCtx.IsAdmin())

	_, hasDeadline := scanner.lastCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestDeadlineJob_ToleratesFailures(t *testing.T) {
	for _, err := range []error{service.ErrScanInProgress, assert.AnError} {
		scanner := &fakeScanner{err: err}
		assert.NotPanics(t, jobs.NewDeadlineJob(scanner, zap.NewNop(), time.Minute).Run)
		assert.Equal(t, 1, scanner.calls)
	}
}

func TestDeadlineJob_Logging(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		level   zapcore.Level
		message string
	}{
		{name: "completed scans are logged by the scanner", err: nil},
		{name: "held lock", err: service.ErrScanInProgress, level: zapcore.InfoLevel, message: "deadline scan skipped, another run holds the lock"},
		{name: "failure", err: assert.AnError, level: zapcore.ErrorLevel, message: "deadline scan failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			jobs.NewDeadlineJob(&fakeScanner{err: tt.err}, zap.New(core), time.Minute).Run()

			if tt.message == "" {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.message, entry.Message)
		})
	}
}

func TestRegisterDeadlineJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)

	require.NoError(t, jobs.RegisterDeadlineJob(s, &fakeScanner{}, zap.NewNop(), "", time.Minute))
	assert.Empty(t, s.JobNames())

	require.NoError(t, jobs.RegisterDeadlineJob(s, &fakeScanner{}, zap.NewNop(), "0 0 6 * * *", time.Minute))
	assert.Equal(t, []string{jobs.DeadlineJobName}, s.JobNames())
}
