package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool      { return &b }
func strPtr(s string) *string { return &s }

func TestQuoteRequestService_GetByIDHealsFlags(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)
	urgentID := labels[domain.LabelKindUrgent].ID.String()
	waitingID := labels[domain.LabelKindWaiting].ID.String()

	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithFlags(true, false, false, false),
		testutil.WithLabels(waitingID))
	before := reload(t, f.db, qr.ID)

	dto, err := f.quotes.GetByID(as(domain.RoleUser, "Norway"), qr.ID)
	require.NoError(t, err)

	assert.True(t, dto.Urgent)
	assert.True(t, dto.WaitingForAnswer)
	assert.ElementsMatch(t, []string{waitingID, urgentID}, dto.Labels)
	assert.Equal(t, "urgentOrProblems", dto.Bucket)

	stored := reload(t, f.db, qr.ID)
	assert.True(t, stored.WaitingForAnswer)
	assert.Contains(t, []string(stored.Labels), urgentID)
	assert.True(t, stored.UpdatedAt.Equal(before.UpdatedAt), "healing must not bump updatedAt")
}

func TestQuoteRequestService_GetByIDHidesOtherCountries(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")

	_, err := f.quotes.GetByID(as(domain.RoleUser, "Denmark"), qr.ID)
	assert.ErrorIs(t, err, service.ErrQuoteRequestNotFound)

	_, err = f.quotes.GetByID(as(domain.RoleAdmin), qr.ID)
	assert.NoError(t, err)
}

func TestQuoteRequestService_Create(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)

	valid := func() *domain.CreateQuoteRequestRequest {
		return &domain.CreateQuoteRequestRequest{
			Title:           "Scissor lifts for warehouse",
			CreatorCountry:  "Norway",
			InvolvedCountry: "Sweden",
			CustomerName:    "Acme",
			StartDate:       strPtr("2030-05-01"),
			EndDate:         strPtr("2030-05-20"),
			Products:        []domain.Product{{CatClass: "SL-12", Description: "Scissor lift", Quantity: 2}},
			Notes:           "first contact",
		}
	}

	t.Run("flags are mirrored into labels", func(t *testing.T) {
		req := valid()
		req.Urgent = true

		dto, err := f.quotes.Create(as(domain.RoleUser, "Norway"), req)
		require.NoError(t, err)

		assert.Equal(t, domain.QuoteStatusNew, dto.Status)
		assert.Equal(t, []string{labels[domain.LabelKindUrgent].ID.String()}, dto.Labels)
		require.Len(t, dto.Notes, 1)
		assert.Equal(t, "user@example.com", dto.Notes[0].User)
		assert.Equal(t, "user@example.com", dto.CreatedBy)
	})

	t.Run("read only users cannot create", func(t *testing.T) {
		_, err := f.quotes.Create(as(domain.RoleReadOnly, "Norway"), valid())
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("creator country must be the caller's", func(t *testing.T) {
		_, err := f.quotes.Create(as(domain.RoleUser, "Sweden"), valid())
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("end before start", func(t *testing.T) {
		req := valid()
		req.EndDate = strPtr("2030-04-01")
		_, err := f.quotes.Create(as(domain.RoleUser, "Norway"), req)
		assert.ErrorIs(t, err, service.ErrInvalidDateRange)
	})

	t.Run("unknown label", func(t *testing.T) {
		req := valid()
		req.Labels = []string{uuid.NewString()}
		_, err := f.quotes.Create(as(domain.RoleUser, "Norway"), req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestQuoteRequestService_UpdateFlagsClearsBothRepresentations(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)
	urgentID := labels[domain.LabelKindUrgent].ID.String()
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithFlags(true, false, false, false),
		testutil.WithLabels(urgentID))
	ctx := as(domain.RoleUser, "Norway")

	dto, err := f.quotes.UpdateFlags(ctx, qr.ID, &domain.UpdateFlagsRequest{
		Urgent:  boolPtr(false),
		Planned: boolPtr(true),
	})
	require.NoError(t, err)
	assert.False(t, dto.Urgent)
	assert.True(t, dto.Planned)
	assert.Equal(t, []string{labels[domain.LabelKindPlanned].ID.String()}, dto.Labels)

	// a later read must not resurrect the cleared flag
	dto, err = f.quotes.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.False(t, dto.Effective.Urgent)

	mods, err := f.quotes.ListModifications(ctx, qr.ID, 10)
	require.NoError(t, err)
	fields := make([]string, len(mods))
	for i, m := range mods {
		fields[i] = m.Field
	}
	assert.ElementsMatch(t, []string{"urgent", "planned"}, fields)
}

func TestQuoteRequestService_UpdateFlagsWithoutChangeDoesNotSave(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithFlags(true, false, false, false),
		testutil.WithLabels(labels[domain.LabelKindUrgent].ID.String()))
	ctx := as(domain.RoleUser, "Norway")
	stored := reload(t, f.db, qr.ID)

	dto, err := f.quotes.UpdateFlags(ctx, qr.ID, &domain.UpdateFlagsRequest{
		Urgent:   boolPtr(true),
		Problems: boolPtr(false),
	})
	require.NoError(t, err)
	assert.True(t, dto.Urgent)
	assert.False(t, dto.Problems)

	assert.True(t, stored.UpdatedAt.Equal(reload(t, f.db, qr.ID).UpdatedAt), "updated_at must not move")
	mods, err := f.quotes.ListModifications(ctx, qr.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestQuoteRequestService_SpecialLabelTogglesFlag(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)
	problems := labels[domain.LabelKindProblems]
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	ctx := as(domain.RoleUser, "Sweden")

	dto, err := f.quotes.AddLabel(ctx, qr.ID, problems.ID)
	require.NoError(t, err)
	assert.True(t, dto.Problems)
	assert.Equal(t, "urgentOrProblems", dto.Bucket)

	dto, err = f.quotes.RemoveLabel(ctx, qr.ID, problems.ID)
	require.NoError(t, err)
	assert.False(t, dto.Problems)
	assert.Empty(t, dto.Labels)
	assert.False(t, reload(t, f.db, qr.ID).Problems)
}

func TestQuoteRequestService_UpdateStatusNotifiesOtherCountry(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")

	dto, err := f.quotes.UpdateStatus(as(domain.RoleUser, "Norway"), qr.ID, domain.QuoteStatusWon)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusWon, dto.Status)

	ctx := context.Background()
	sweden, err := f.notificationRepo.CountUnread(ctx, repository.Recipient{UserID: uuid.New(), Countries: []string{"Sweden"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sweden)

	norway, err := f.notificationRepo.CountUnread(ctx, repository.Recipient{UserID: uuid.New(), Countries: []string{"Norway"}})
	require.NoError(t, err)
	assert.Zero(t, norway)

	_, err = f.quotes.UpdateStatus(as(domain.RoleUser, "Norway"), qr.ID, "Archived")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestQuoteRequestService_Update(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	ctx := as(domain.RoleUser, "Norway")

	t.Run("records one modification per field", func(t *testing.T) {
		dto, err := f.quotes.Update(ctx, qr.ID, &domain.UpdateQuoteRequestRequest{
			Title:        strPtr("Telehandlers"),
			CustomerName: strPtr("Beta AS"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Telehandlers", dto.Title)

		mods, err := f.quotes.ListModifications(ctx, qr.ID, 10)
		require.NoError(t, err)
		assert.Len(t, mods, 2)
	})

	t.Run("cannot move the request out of sight", func(t *testing.T) {
		_, err := f.quotes.Update(ctx, qr.ID, &domain.UpdateQuoteRequestRequest{
			CreatorCountry:  strPtr("Denmark"),
			InvolvedCountry: strPtr("Finland"),
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		lat := 123.0
		lng := 10.0
		_, err := f.quotes.Update(ctx, qr.ID, &domain.UpdateQuoteRequestRequest{
			Jobsite: &domain.JobsiteInput{Latitude: &lat, Longitude: &lng},
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestQuoteRequestService_Attachments(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	ctx := as(domain.RoleUser, "Norway")

	content := []byte("site plan")
	dto, err := f.quotes.UploadAttachment(ctx, qr.ID, service.FileUpload{
		Filename:    "plan.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Reader:      bytes.NewReader(content),
	})
	require.NoError(t, err)
	require.Len(t, dto.Attachments, 1)
	assert.Contains(t, dto.Attachments[0].URL, "quote-files/"+qr.ID.String())

	rc, att, err := f.quotes.DownloadAttachment(ctx, qr.ID, 0)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "plan.pdf", att.Name)

	_, _, err = f.quotes.DownloadAttachment(ctx, qr.ID, 5)
	assert.ErrorIs(t, err, service.ErrAttachmentNotFound)

	_, err = f.quotes.UploadAttachment(ctx, qr.ID, service.FileUpload{
		Filename: "huge.bin",
		Size:     2 << 20,
		Reader:   bytes.NewReader(nil),
	})
	assert.ErrorIs(t, err, service.ErrFileTooLarge)
}

func TestQuoteRequestService_Messages(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	ctx := as(domain.RoleUser, "Sweden")

	msg, err := f.quotes.PostMessage(ctx, qr.ID, "Can we deliver on Monday?", []service.FileUpload{{
		Filename: "photo.jpg",
		Size:     3,
		Reader:   bytes.NewReader([]byte("jpg")),
	}})
	require.NoError(t, err)
	assert.Equal(t, "Sweden", msg.SenderCountry)
	require.Len(t, msg.Attachments, 1)
	assert.Contains(t, msg.Attachments[0].URL, "messages/"+qr.ID.String())

	messages, err := f.quotes.ListMessages(as(domain.RoleReadOnly, "Norway"), qr.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	unread, err := f.notificationRepo.CountUnread(context.Background(), repository.Recipient{UserID: uuid.New(), Countries: []string{"Norway"}})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	_, err = f.quotes.PostMessage(ctx, qr.ID, "  ", nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestQuoteRequestService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	ctx := as(domain.RoleUser, "Norway")

	_, err := f.quotes.PostMessage(ctx, qr.ID, "hello", nil)
	require.NoError(t, err)
	_, err = f.quotes.UpdateStatus(ctx, qr.ID, domain.QuoteStatusInProgress)
	require.NoError(t, err)

	require.NoError(t, f.quotes.Delete(ctx, qr.ID))

	_, err = f.quotes.GetByID(ctx, qr.ID)
	assert.ErrorIs(t, err, service.ErrQuoteRequestNotFound)

	for _, model := range []interface{}{&domain.Message{}, &domain.Modification{}, &domain.Notification{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("quote_request_id = ?", qr.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
}
