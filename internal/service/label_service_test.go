package service_test

import (
	"testing"
	"time"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// createLabelAt inserts a label with a fixed creation time so age ordering is deterministic
func createLabelAt(t *testing.T, db *gorm.DB, name string, kind domain.LabelKind, age time.Duration) *domain.Label {
	t.Helper()
	created := time.Now().UTC().Add(-age)
	label := &domain.Label{BaseModel: domain.BaseModel{CreatedAt: created, UpdatedAt: created}, Name: name, Kind: kind}
	require.NoError(t, db.Create(label).Error)
	return label
}

func TestLabelService_FixDuplicates(t *testing.T) {
	f := newFixture(t)
	urgent := createLabelAt(t, f.db, "Urgent", domain.LabelKindNone, 5*time.Hour)
	urgentDup := createLabelAt(t, f.db, " urgent", domain.LabelKindNone, 4*time.Hour)
	crane := createLabelAt(t, f.db, "Crane", domain.LabelKindNone, 3*time.Hour)
	craneDup := createLabelAt(t, f.db, "CRANE", domain.LabelKindPlanned, 2*time.Hour)
	other := createLabelAt(t, f.db, "Scaffolding", domain.LabelKindNone, time.Hour)

	touched := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithLabels(urgentDup.ID.String(), crane.ID.String(), craneDup.ID.String()))
	untouched := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithLabels(other.ID.String()))

	_, err := f.labels.FixDuplicates(as(domain.RoleUser, "Norway"))
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	result, err := f.labels.FixDuplicates(as(domain.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, domain.FixDuplicateLabelsResultDTO{
		DuplicatesRemoved:    2,
		QuoteRequestsUpdated: 1,
		KindsAssigned:        2,
	}, *result)

	assert.Equal(t, []string{urgent.ID.String(), crane.ID.String()}, []string(reload(t, f.db, touched.ID).Labels))
	assert.Equal(t, []string{other.ID.String()}, []string(reload(t, f.db, untouched.ID).Labels))

	var remaining []domain.Label
	require.NoError(t, f.db.Order("created_at ASC").Find(&remaining).Error)
	require.Len(t, remaining, 3)
	assert.Equal(t, domain.LabelKindUrgent, remaining[0].Kind)
	// the keeper inherits the kind of its duplicate
	assert.Equal(t, domain.LabelKindPlanned, remaining[1].Kind)
	assert.Equal(t, domain.LabelKindNone, remaining[2].Kind)

	t.Run("idempotent", func(t *testing.T) {
		result, err := f.labels.FixDuplicates(as(domain.RoleAdmin))
		require.NoError(t, err)
		assert.Equal(t, domain.FixDuplicateLabelsResultDTO{}, *result)
	})
}

func TestLabelService_FixDuplicatesKeepsTakenKinds(t *testing.T) {
	f := newFixture(t)
	typed := createLabelAt(t, f.db, "Hot", domain.LabelKindUrgent, 2*time.Hour)
	legacy := createLabelAt(t, f.db, "Urgent", domain.LabelKindNone, time.Hour)

	result, err := f.labels.FixDuplicates(as(domain.RoleAdmin))
	require.NoError(t, err)
	assert.Zero(t, result.KindsAssigned)

	var reloaded domain.Label
	require.NoError(t, f.db.First(&reloaded, "id = ?", legacy.ID).Error)
	assert.Equal(t, domain.LabelKindNone, reloaded.Kind)
	require.NoError(t, f.db.First(&reloaded, "id = ?", typed.ID).Error)
	assert.Equal(t, domain.LabelKindUrgent, reloaded.Kind)
}

func TestLabelService_CreateRejectsTakenKind(t *testing.T) {
	f := newFixture(t)
	ctx := as(domain.RoleUser, "Norway")

	created, err := f.labels.Create(ctx, &domain.CreateLabelRequest{Name: "Snooze", Kind: domain.LabelKindSnoozed})
	require.NoError(t, err)

	_, err = f.labels.Create(ctx, &domain.CreateLabelRequest{Name: "Later", Kind: domain.LabelKindSnoozed})
	assert.ErrorIs(t, err, service.ErrLabelKindTaken)

	// updating the holder itself keeps its kind
	_, err = f.labels.Update(ctx, created.ID, &domain.UpdateLabelRequest{Name: "Snoozed", Kind: domain.LabelKindSnoozed})
	assert.NoError(t, err)

	_, err = f.labels.Create(ctx, &domain.CreateLabelRequest{Name: "Bad", Kind: "vip"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestLabelService_DeleteDetachesLabel(t *testing.T) {
	f := newFixture(t)
	keep := testutil.CreateLabel(t, f.db, "Keep", domain.LabelKindNone)
	drop := testutil.CreateLabel(t, f.db, "Drop", domain.LabelKindNone)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden",
		testutil.WithLabels(keep.ID.String(), drop.ID.String()))

	assert.ErrorIs(t, f.labels.Delete(as(domain.RoleUser, "Norway"), drop.ID), service.ErrPermissionDenied)
	require.NoError(t, f.labels.Delete(as(domain.RoleAdmin), drop.ID))

	assert.Equal(t, []string{keep.ID.String()}, []string(reload(t, f.db, qr.ID).Labels))
	assert.ErrorIs(t, f.labels.Delete(as(domain.RoleAdmin), drop.ID), service.ErrLabelNotFound)
}
