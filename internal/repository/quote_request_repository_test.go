package repository_test

import (
	"context"
	"testing"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCtx(role domain.UserRole, countries ...string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{Role: role, Countries: countries})
}

func TestQuoteRequestRepository_ListVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)

	testutil.CreateQuoteRequest(t, db, "Norway", "Sweden")
	testutil.CreateQuoteRequest(t, db, "Denmark", "Norway")
	testutil.CreateQuoteRequest(t, db, "Denmark", "Finland")

	tests := []struct {
		name string
		ctx  context.Context
		want int64
	}{
		{"admin sees all", userCtx(domain.RoleAdmin), 3},
		{"creator or involved country", userCtx(domain.RoleUser, "Norway"), 2},
		{"several countries", userCtx(domain.RoleReadOnly, "Sweden", "Finland"), 2},
		{"no countries", userCtx(domain.RoleUser), 0},
		{"system context", context.Background(), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(tt.ctx, 1, 20, nil, repository.DefaultSortConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestQuoteRequestRepository_GetByIDHidesInvisible(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)
	qr := testutil.CreateQuoteRequest(t, db, "Denmark", "Finland")

	_, err := repo.GetByID(userCtx(domain.RoleUser, "Norway"), qr.ID)
	assert.Error(t, err)

	found, err := repo.GetByID(userCtx(domain.RoleUser, "Finland"), qr.ID)
	require.NoError(t, err)
	assert.Equal(t, qr.ID, found.ID)
}

func TestQuoteRequestRepository_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)
	label := testutil.CreateLabel(t, db, "Crane", domain.LabelKindNone)

	won := testutil.CreateQuoteRequest(t, db, "Norway", "Sweden", testutil.WithStatus(domain.QuoteStatusWon))
	labelled := testutil.CreateQuoteRequest(t, db, "Norway", "Denmark", testutil.WithLabels(label.ID.String()))
	testutil.CreateQuoteRequest(t, db, "Finland", "Denmark")

	t.Run("status", func(t *testing.T) {
		status := domain.QuoteStatusWon
		rows, total, err := repo.List(context.Background(), 1, 20, &repository.QuoteRequestFilters{Status: &status}, repository.DefaultSortConfig())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, won.ID, rows[0].ID)
	})

	t.Run("label", func(t *testing.T) {
		rows, err := repo.ListVisible(context.Background(), &repository.QuoteRequestFilters{LabelID: label.ID.String()})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, labelled.ID, rows[0].ID)
	})

	t.Run("country matches either side", func(t *testing.T) {
		rows, err := repo.ListVisible(context.Background(), &repository.QuoteRequestFilters{Country: "Denmark"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		rows, err := repo.ListVisible(context.Background(), &repository.QuoteRequestFilters{Search: "FINLAND"})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("pagination", func(t *testing.T) {
		rows, total, err := repo.List(context.Background(), 2, 2, nil, repository.SortConfig{Field: "createdAt", Order: repository.SortOrderAsc})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, rows, 1)
	})
}

func TestQuoteRequestRepository_WriteFlags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)
	ctx := context.Background()

	qr := testutil.CreateQuoteRequest(t, db, "Norway", "Sweden", testutil.WithLabels("a"))
	before, err := repo.GetByID(ctx, qr.ID)
	require.NoError(t, err)

	expected := repository.FlagStateOf(before)
	healed := *before
	healed.Urgent = true
	healed.Labels = []string{"a", "urgent-id"}

	written, err := repo.WriteFlags(ctx, &healed, expected)
	require.NoError(t, err)
	assert.True(t, written)

	after, err := repo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.True(t, after.Urgent)
	assert.Equal(t, []string{"a", "urgent-id"}, []string(after.Labels))
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt), "write-back must not bump updatedAt")

	// a stale expectation no longer matches the stored row
	written, err = repo.WriteFlags(ctx, &healed, expected)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestQuoteRequestRepository_ListWithDates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)

	testutil.CreateQuoteRequest(t, db, "Norway", "Sweden", testutil.WithDates(testutil.Date(1), testutil.Date(5)))
	testutil.CreateQuoteRequest(t, db, "Norway", "Sweden", testutil.WithDates(testutil.Date(1), nil))
	testutil.CreateQuoteRequest(t, db, "Norway", "Sweden")

	rows, err := repo.ListWithDates(userCtx(domain.RoleUser))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestQuoteRequestRepository_RenameCountry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRequestRepository(db)

	testutil.CreateQuoteRequest(t, db, "Norge", "Sweden")
	testutil.CreateQuoteRequest(t, db, "Sweden", "Norge")
	testutil.CreateQuoteRequest(t, db, "Sweden", "Finland")

	updated, err := repo.RenameCountry(context.Background(), "Norge", "Norway")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err := repo.CountByCountry(context.Background(), "Norway")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
