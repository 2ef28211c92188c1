package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToQuoteRequestDTO(t *testing.T) {
	snoozeID := uuid.NewString()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	qr := &domain.QuoteRequest{
		BaseModel:       domain.BaseModel{ID: uuid.New(), CreatedAt: time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)},
		Title:           "Scaffolding",
		CreatorCountry:  "Norway",
		InvolvedCountry: "Sweden",
		Status:          domain.QuoteStatusInProgress,
		Urgent:          true,
		Labels:          []string{snoozeID},
		StartDate:       &start,
	}
	special := labeling.SpecialLabels{domain.LabelKindSnoozed: snoozeID}

	dto := mapper.ToQuoteRequestDTO(qr, special)

	assert.Equal(t, "snoozed", dto.Bucket)
	assert.True(t, dto.Effective.Urgent)
	assert.True(t, dto.Effective.Snoozed)
	require.NotNil(t, dto.StartDate)
	assert.Equal(t, "2024-05-01", *dto.StartDate)
	assert.Nil(t, dto.EndDate)
	assert.Equal(t, "2024-04-01T09:30:00Z", dto.CreatedAt)
	assert.NotNil(t, dto.Products)
	assert.NotNil(t, dto.Notes)
	assert.NotNil(t, dto.Attachments)
}

func TestParseDate(t *testing.T) {
	d, err := mapper.ParseDate(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	empty := ""
	d, err = mapper.ParseDate(&empty)
	require.NoError(t, err)
	assert.Nil(t, d)

	day := "2024-06-15"
	d, err = mapper.ParseDate(&day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *d)

	ts := "2024-06-15T10:00:00+02:00"
	d, err = mapper.ParseDate(&ts)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC), *d)

	bad := "15/06/2024"
	_, err = mapper.ParseDate(&bad)
	assert.Error(t, err)
}

func TestToUserProfileDTO_EmptyCountries(t *testing.T) {
	dto := mapper.ToUserProfileDTO(&domain.UserProfile{Email: "a@b.c", Role: domain.RoleUser})
	assert.Equal(t, []string{}, dto.Countries)
	assert.Empty(t, dto.UID)
}
