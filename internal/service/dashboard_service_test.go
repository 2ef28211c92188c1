package service_test

import (
	"testing"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(dtos []domain.QuoteRequestDTO) []string {
	out := make([]string, len(dtos))
	for i, d := range dtos {
		out[i] = d.ID.String()
	}
	return out
}

func TestDashboardService_Kanban(t *testing.T) {
	f := newFixture(t)
	labels := testutil.CreateSystemLabels(t, f.db)

	urgent := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden", testutil.WithFlags(true, false, false, false))
	waiting := testutil.CreateQuoteRequest(t, f.db, "Sweden", "Norway",
		testutil.WithLabels(labels[domain.LabelKindWaiting].ID.String()))
	standard := testutil.CreateQuoteRequest(t, f.db, "Norway", "Norway")
	snoozed := testutil.CreateQuoteRequest(t, f.db, "Norway", "Denmark",
		testutil.WithStatus(domain.QuoteStatusSnoozed),
		testutil.WithFlags(true, false, false, false),
		testutil.WithLabels(labels[domain.LabelKindUrgent].ID.String()))
	snoozedByLabel := testutil.CreateQuoteRequest(t, f.db, "Norway", "Denmark",
		testutil.WithLabels(labels[domain.LabelKindSnoozed].ID.String(), labels[domain.LabelKindProblems].ID.String()))
	testutil.CreateQuoteRequest(t, f.db, "Denmark", "Finland", testutil.WithFlags(true, false, false, false))

	board, err := f.dashboard.Kanban(as(domain.RoleUser, "Norway"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{urgent.ID.String()}, ids(board.UrgentOrProblems))
	assert.Equal(t, []string{waiting.ID.String()}, ids(board.Waiting))
	assert.Equal(t, []string{standard.ID.String()}, ids(board.Standard))
	assert.ElementsMatch(t, []string{snoozed.ID.String(), snoozedByLabel.ID.String()}, ids(board.Snoozed))
	// urgent and snoozed gain labels, waiting gains its boolean, snoozedByLabel gains problems
	assert.Equal(t, 4, board.Reconciled)

	// a second pass has nothing left to heal
	board, err = f.dashboard.Kanban(as(domain.RoleUser, "Norway"), nil)
	require.NoError(t, err)
	assert.Zero(t, board.Reconciled)
}

func TestDashboardService_KanbanWithoutSystemLabels(t *testing.T) {
	f := newFixture(t)
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden", testutil.WithFlags(false, true, false, false))

	board, err := f.dashboard.Kanban(as(domain.RoleAdmin), nil)
	require.NoError(t, err)
	assert.Len(t, board.UrgentOrProblems, 1)
	assert.Zero(t, board.Reconciled)
}

func TestDashboardService_ReconcileAll(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSystemLabels(t, f.db)
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden", testutil.WithFlags(true, false, false, false))
	testutil.CreateQuoteRequest(t, f.db, "Denmark", "Finland", testutil.WithFlags(false, false, false, true))
	testutil.CreateQuoteRequest(t, f.db, "Denmark", "Finland")

	_, err := f.dashboard.ReconcileAll(as(domain.RoleUser, "Norway"))
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	result, err := f.dashboard.ReconcileAll(as(domain.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileAllResultDTO{Scanned: 3, Healed: 2}, *result)
}

func TestDashboardService_Analytics(t *testing.T) {
	f := newFixture(t)
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden", testutil.WithStatus(domain.QuoteStatusWon))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden", testutil.WithStatus(domain.QuoteStatusWon))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Denmark", testutil.WithStatus(domain.QuoteStatusLost))
	testutil.CreateQuoteRequest(t, f.db, "Norway", "Denmark", testutil.WithStatus(domain.QuoteStatusCancelled))
	testutil.CreateQuoteRequest(t, f.db, "Sweden", "Norway", testutil.WithStatus(domain.QuoteStatusSnoozed))
	testutil.CreateQuoteRequest(t, f.db, "Finland", "Denmark")

	summary, err := f.dashboard.Analytics(as(domain.RoleUser, "Norway"))
	require.NoError(t, err)

	assert.Equal(t, int64(5), summary.Total)
	assert.Equal(t, int64(2), summary.ByStatus["Won"])
	assert.Equal(t, int64(0), summary.ByStatus["New"])
	assert.Equal(t, int64(1), summary.ByBucket["snoozed"])
	assert.InDelta(t, 2.0/3.0, summary.WinRate, 1e-9)

	byCountry := make(map[string]domain.CountryAnalyticsDTO)
	for _, c := range summary.ByCountry {
		byCountry[c.Country] = c
	}
	assert.Equal(t, domain.CountryAnalyticsDTO{Country: "Norway", Total: 4, Won: 2, Lost: 1, Open: 0}, byCountry["Norway"])
	assert.Equal(t, domain.CountryAnalyticsDTO{Country: "Sweden", Total: 1, Open: 1}, byCountry["Sweden"])
}
