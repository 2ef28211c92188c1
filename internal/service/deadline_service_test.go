package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/lock"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func deadlineWarnings(t *testing.T, f *fixture) []domain.Notification {
	t.Helper()
	var notifications []domain.Notification
	require.NoError(t, f.db.Where("type = ?", domain.NotificationTypeDeadlineWarning).
		Order("target_country ASC").Find(&notifications).Error)
	return notifications
}

func TestDeadlineService_CheckDeadlines(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)
	admin := as(domain.RoleAdmin)

	starting := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithDates(testutil.Date(2), testutil.Date(10)))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithDates(testutil.Date(2), testutil.Date(10)),
		testutil.WithLabels(labels[domain.LabelKindPlanned].ID.String()))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithDates(testutil.Date(30), testutil.Date(40)))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithStatus(domain.QuoteStatusLost),
		testutil.WithDates(testutil.Date(1), testutil.Date(2)))
	testutil.CreateQuoteRequest(t, f.db, "Denmark", "Denmark",
		testutil.WithStatus(domain.QuoteStatusWon),
		testutil.WithDates(testutil.Date(-5), testutil.Date(1)))
	testutil.CreateQuoteRequest(t, f.db, "Denmark", "Denmark", testutil.WithDates(testutil.Date(1), nil))

	result, err := f.deadlines.CheckDeadlines(admin)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Scanned)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)

	warnings := deadlineWarnings(t, f)
	require.Len(t, warnings, 2)

	assert.Equal(t, "Denmark", warnings[0].TargetCountry)
	assert.Equal(t, domain.DeadlineTypeEndDate, warnings[0].DeadlineType)
	require.NotNil(t, warnings[0].DaysUntilDeadline)
	assert.Equal(t, 1, *warnings[0].DaysUntilDeadline)

	assert.Equal(t, "Norway", warnings[1].TargetCountry)
	assert.Equal(t, domain.DeadlineTypeStartDate, warnings[1].DeadlineType)
	require.NotNil(t, warnings[1].QuoteRequestID)
	assert.Equal(t, starting.ID, *warnings[1].QuoteRequestID)
	require.NotNil(t, warnings[1].DaysUntilDeadline)
	assert.Equal(t, 2, *warnings[1].DaysUntilDeadline)

	t.Run("second run on the same day creates nothing", func(t *testing.T) {
		result, err := f.deadlines.CheckDeadlines(admin)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Equal(t, 2, result.Skipped)
		assert.Len(t, deadlineWarnings(t, f), 2)
	})

	t.Run("next day sends a new reminder", func(t *testing.T) {
		f.deadlines.SetClock(func() time.Time { return time.Now().AddDate(0, 0, 1) })
		defer f.deadlines.SetClock(time.Now)

		result, err := f.deadlines.CheckDeadlines(admin)
		require.NoError(t, err)
		// start in 1 day for Norway, end today for Denmark
		assert.Equal(t, 2, result.Created)
	})
}

func TestDeadlineService_RespectsCountrySettings(t *testing.T) {
	f := newFixture(t)
	admin := as(domain.RoleAdmin)
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithDates(testutil.Date(10), testutil.Date(20)))
	testutil.CreateQuoteRequest(t, f.db, "Sweden", "Norway",
		testutil.WithDates(testutil.Date(10), testutil.Date(20)))

	_, err := f.notifications.UpdateSettings(admin, "Norway", &domain.UpdateNotificationSettingsRequest{
		StartDateWarningDays: 14,
		EndDateWarningDays:   3,
		Enabled:              true,
	})
	require.NoError(t, err)
	_, err = f.notifications.UpdateSettings(admin, "Sweden", &domain.UpdateNotificationSettingsRequest{
		StartDateWarningDays: 30,
		EndDateWarningDays:   3,
		Enabled:              false,
	})
	require.NoError(t, err)

	result, err := f.deadlines.CheckDeadlines(admin)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	warnings := deadlineWarnings(t, f)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Norway", warnings[0].TargetCountry)
}

func TestDeadlineService_OneWarningPerDeadline(t *testing.T) {
	f := newFixture(t)
	admin := as(domain.RoleAdmin)
	won := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithStatus(domain.QuoteStatusWon),
		testutil.WithDates(testutil.Date(-5), testutil.Date(2)))

	result, err := f.deadlines.CheckDeadlines(admin)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	warnings := deadlineWarnings(t, f)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.DeadlineTypeEndDate, warnings[0].DeadlineType)
	require.NotNil(t, warnings[0].DaysUntilDeadline)
	assert.Equal(t, 2, *warnings[0].DaysUntilDeadline)
	require.NotNil(t, warnings[0].QuoteRequestID)
	assert.Equal(t, won.ID, *warnings[0].QuoteRequestID)
	assert.Equal(t, "Norway", warnings[0].TargetCountry)

	result, err = f.deadlines.CheckDeadlines(admin)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Len(t, deadlineWarnings(t, f), 1)
}

func TestDeadlineService_SingleFlight(t *testing.T) {
	f := newFixture(t)

	release, err := f.locker.Acquire(context.Background(), "deadline-scan", time.Minute)
	require.NoError(t, err)

	_, err = f.deadlines.CheckDeadlines(as(domain.RoleAdmin))
	assert.ErrorIs(t, err, service.ErrScanInProgress)

	require.NoError(t, release(context.Background()))
	_, err = f.deadlines.CheckDeadlines(as(domain.RoleAdmin))
	assert.NoError(t, err)
}

func TestDeadlineService_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.deadlines.CheckDeadlines(as(domain.RoleUser, "Norway"))
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.deadlines.CheckDeadlines(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestDeadlineService_LogsCompletionOnce(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.InfoLevel)
	scanner := service.NewDeadlineService(
		f.quoteRepo,
		f.notificationRepo,
		f.reconciler,
		f.notifications,
		lock.NewLocalLocker(),
		nil,
		0,
		zap.New(core),
	)
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithDates(testutil.Date(1), testutil.Date(5)))

	_, err := scanner.CheckDeadlines(as(domain.RoleAdmin))
	require.NoError(t, err)

	completed := logs.FilterMessage("deadline scan completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].ContextMap()["created"])
}
