// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/database"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// A single connection is used so every query sees the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Date returns midnight UTC of the day offset days from today
func Date(offset int) *time.Time {
	y, m, d := time.Now().UTC().Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &t
}

// CreateUser inserts a user profile
func CreateUser(t *testing.T, db *gorm.DB, email string, role domain.UserRole, countries ...string) *domain.UserProfile {
	t.Helper()
	uid := "uid-" + uuid.NewString()[:8]
	if countries == nil {
		countries = []string{}
	}
	user := &domain.UserProfile{
		UID:       &uid,
		Email:     email,
		Name:      email,
		Role:      role,
		Countries: countries,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateLabel inserts a label
func CreateLabel(t *testing.T, db *gorm.DB, name string, kind domain.LabelKind) *domain.Label {
	t.Helper()
	label := &domain.Label{Name: name, Kind: kind, Color: "#888888"}
	require.NoError(t, db.Create(label).Error)
	return label
}

// CreateSystemLabels inserts one label per system kind and returns them keyed by kind
func CreateSystemLabels(t *testing.T, db *gorm.DB) map[domain.LabelKind]*domain.Label {
	t.Helper()
	names := map[domain.LabelKind]string{
		domain.LabelKindUrgent:   "Urgent",
		domain.LabelKindProblems: "Problems",
		domain.LabelKindWaiting:  "Waiting for answer",
		domain.LabelKindPlanned:  "Planned",
		domain.LabelKindSnoozed:  "Snooze",
	}
	labels := make(map[domain.LabelKind]*domain.Label, len(names))
	for _, kind := range domain.SystemLabelKinds {
		labels[kind] = CreateLabel(t, db, names[kind], kind)
	}
	return labels
}

// QuoteRequestOption customizes a fixture quote request
type QuoteRequestOption func(*domain.QuoteRequest)

func WithStatus(status domain.QuoteStatus) QuoteRequestOption {
	return func(q *domain.QuoteRequest) { q.Status = status }
}

func WithLabels(ids ...string) QuoteRequestOption {
	return func(q *domain.QuoteRequest) { q.Labels = ids }
}

func WithDates(start, end *time.Time) QuoteRequestOption {
	return func(q *domain.QuoteRequest) {
		q.StartDate = start
		q.EndDate = end
	}
}

func WithFlags(urgent, problems, waiting, planned bool) QuoteRequestOption {
	return func(q *domain.QuoteRequest) {
		q.Urgent = urgent
		q.Problems = problems
		q.WaitingForAnswer = waiting
		q.Planned = planned
	}
}

// CreateQuoteRequest inserts a quote request between two countries
func CreateQuoteRequest(t *testing.T, db *gorm.DB, creator, involved string, opts ...QuoteRequestOption) *domain.QuoteRequest {
	t.Helper()
	qr := &domain.QuoteRequest{
		Title:           fmt.Sprintf("Quote %s→%s", creator, involved),
		CreatorCountry:  creator,
		InvolvedCountry: involved,
		CustomerName:    "Test Customer",
		Status:          domain.QuoteStatusNew,
		Labels:          []string{},
		Products:        []domain.Product{},
		Notes:           []domain.Note{},
		Attachments:     []domain.Attachment{},
		CreatedBy:       "tester@example.com",
	}
	for _, opt := range opts {
		opt(qr)
	}
	require.NoError(t, db.Create(qr).Error)
	return qr
}
