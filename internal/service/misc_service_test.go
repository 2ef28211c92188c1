package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroadcastService_Create(t *testing.T) {
	f := newFixture(t)

	_, err := f.broadcasts.Create(as(domain.RoleUser, "Norway"), &domain.CreateBroadcastRequest{
		Title: "Maintenance", Message: "Down tonight", TargetCountries: []string{"Norway"},
	})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	dto, err := f.broadcasts.Create(as(domain.RoleAdmin), &domain.CreateBroadcastRequest{
		Title:           "Maintenance",
		Message:         "Down tonight",
		TargetCountries: []string{"Norway", "Sweden", "Norway"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, dto.NotificationCount)
	assert.Equal(t, []string{"Norway", "Sweden"}, dto.TargetCountries)

	for _, country := range []string{"Norway", "Sweden"} {
		count, err := f.notificationRepo.CountUnread(context.Background(), repository.Recipient{UserID: uuid.New(), Countries: []string{country}})
		require.NoError(t, err)
		assert.Equal(t, 1, count, country)
	}

	page, err := f.broadcasts.List(as(domain.RoleAdmin), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestNotificationService_Inbox(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "ola@example.com", domain.RoleReadOnly, "Norway")
	ctx := asProfile(user)

	f.notifications.NotifyCountry(context.Background(), &domain.Notification{
		TargetCountry: "Norway", Type: domain.NotificationTypeBroadcast, Title: "a", Message: "a",
	})
	f.notifications.NotifyCountry(context.Background(), &domain.Notification{
		TargetCountry: "Sweden", Type: domain.NotificationTypeBroadcast, Title: "b", Message: "b",
	})

	count, err := f.notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	marked, err := f.notifications.MarkAllAsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	count, err = f.notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_ListSettingsFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)
	admin := as(domain.RoleAdmin)
	_, err := f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Norway"})
	require.NoError(t, err)
	_, err = f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Sweden"})
	require.NoError(t, err)
	_, err = f.notifications.UpdateSettings(admin, "Sweden", &domain.UpdateNotificationSettingsRequest{StartDateWarningDays: 1, EndDateWarningDays: 1})
	require.NoError(t, err)

	settings, err := f.notifications.ListSettings(admin)
	require.NoError(t, err)
	assert.Contains(t, settings, domain.NotificationSettingsDTO{Country: "Norway", StartDateWarningDays: 7, EndDateWarningDays: 3, Enabled: true})
	assert.Contains(t, settings, domain.NotificationSettingsDTO{Country: "Sweden", StartDateWarningDays: 1, EndDateWarningDays: 1, Enabled: false})

	_, err = f.notifications.UpdateSettings(as(domain.RoleUser, "Norway"), "Norway", &domain.UpdateNotificationSettingsRequest{})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestIdeaService_Likes(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "ola@example.com", domain.RoleReadOnly, "Norway")
	ctx := asProfile(user)

	idea, err := f.ideas.Create(ctx, &domain.CreateIdeaRequest{Title: "Dark mode"})
	require.NoError(t, err)
	assert.Equal(t, domain.IdeaStatusOpen, idea.Status)

	liked, err := f.ideas.Like(ctx, idea.ID)
	require.NoError(t, err)
	liked, err = f.ideas.Like(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)
	assert.True(t, liked.LikedByMe)

	list, err := f.ideas.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].LikedByMe)

	unliked, err := f.ideas.Unlike(ctx, idea.ID)
	require.NoError(t, err)
	assert.Zero(t, unliked.LikeCount)

	_, err = f.ideas.Like(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrIdeaNotFound)

	_, err = f.ideas.UpdateStatus(ctx, idea.ID, domain.IdeaStatusDone)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	done, err := f.ideas.UpdateStatus(as(domain.RoleAdmin), idea.ID, domain.IdeaStatusDone)
	require.NoError(t, err)
	assert.Equal(t, domain.IdeaStatusDone, done.Status)
}

func TestTemplateService_CreateQuoteRequest(t *testing.T) {
	f := newFixture(t)
	ctx := as(domain.RoleUser, "Norway")
	crane := testutil.CreateLabel(t, f.db, "Crane", domain.LabelKindNone)
	stale := testutil.CreateLabel(t, f.db, "Stale", domain.LabelKindNone)

	tmpl, err := f.templates.Create(ctx, &domain.CreateTemplateRequest{
		Name:           "Standard lift package",
		CreatorCountry: "Norway",
		Products:       []domain.Product{{CatClass: "BL-20", Description: "Boom lift", Quantity: 1}},
		Notes:          "Check access roads",
		Labels:         []string{crane.ID.String(), stale.ID.String()},
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&domain.Label{}, "id = ?", stale.ID).Error)

	dto, err := f.templates.CreateQuoteRequest(ctx, tmpl.ID, &domain.CreateFromTemplateRequest{
		Title:           "Lifts for harbour",
		InvolvedCountry: "Sweden",
	})
	require.NoError(t, err)
	assert.Equal(t, "Norway", dto.CreatorCountry)
	assert.Equal(t, []string{crane.ID.String()}, dto.Labels)
	require.Len(t, dto.Products, 1)
	require.Len(t, dto.Notes, 1)
	assert.Equal(t, "Check access roads", dto.Notes[0].Text)

	t.Run("templates of other countries are hidden", func(t *testing.T) {
		_, err := f.templates.CreateQuoteRequest(as(domain.RoleUser, "Sweden"), tmpl.ID, &domain.CreateFromTemplateRequest{
			Title: "x", InvolvedCountry: "Norway",
		})
		assert.ErrorIs(t, err, service.ErrTemplateNotFound)

		list, err := f.templates.List(as(domain.RoleUser, "Sweden"), "")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestErrorReportService(t *testing.T) {
	f := newFixture(t)
	svc := service.NewErrorReportService(repository.NewErrorReportRepository(f.db), zap.NewNop())
	reader := as(domain.RoleReadOnly, "Norway")

	report, err := svc.Create(reader, &domain.CreateErrorReportRequest{Title: "  Board is empty ", Page: "/dashboard"})
	require.NoError(t, err)
	assert.Equal(t, "Board is empty", report.Title)
	assert.Equal(t, domain.SeverityMedium, report.Severity)
	assert.Equal(t, domain.ErrorReportStatusOpen, report.Status)
	assert.Equal(t, "readOnly@example.com", report.ReportedBy)

	_, err = svc.List(reader, 1, 20, "")
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	admin := as(domain.RoleAdmin)
	resolved, err := svc.UpdateStatus(admin, report.ID, domain.ErrorReportStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrorReportStatusResolved, resolved.Status)

	_, err = svc.UpdateStatus(admin, report.ID, "archived")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = svc.UpdateStatus(admin, uuid.New(), domain.ErrorReportStatusOpen)
	assert.ErrorIs(t, err, service.ErrErrorReportNotFound)

	open, err := svc.List(admin, 1, 20, string(domain.ErrorReportStatusOpen))
	require.NoError(t, err)
	assert.Zero(t, open.Total)
	all, err := svc.List(admin, 1, 20, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}
