// Package deadline plans deadline-warning notifications for quote requests.
// It decides which warnings are due; persistence and de-duplication against
// stored notifications are left to the caller.
package deadline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
)

// Settings controls deadline warnings for one country.
type Settings struct {
	StartDateWarningDays int
	EndDateWarningDays   int
	Enabled              bool
}

// DefaultSettings apply to countries without stored settings, and whenever
// settings cannot be read.
var DefaultSettings = Settings{
	StartDateWarningDays: 7,
	EndDateWarningDays:   3,
	Enabled:              true,
}

// FromModel converts stored settings.
func FromModel(m *domain.NotificationSettings) Settings {
	if m == nil {
		return DefaultSettings
	}
	return Settings{
		StartDateWarningDays: m.StartDateWarningDays,
		EndDateWarningDays:   m.EndDateWarningDays,
		Enabled:              m.Enabled,
	}
}

// DaysUntil returns the number of whole calendar days from now until date,
// comparing midnights in loc. Past dates yield negative values.
func DaysUntil(now, date time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	today := midnight(now.In(loc))
	target := midnight(date.In(loc))
	// round: days across a DST change are 23 or 25 hours long
	return int((target.Sub(today) + 12*time.Hour) / (24 * time.Hour))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Warning is one due deadline notification.
type Warning struct {
	QuoteRequestID uuid.UUID
	TargetCountry  string
	DeadlineType   domain.DeadlineType
	DaysUntil      int
	Date           time.Time
}

// Signature identifies a warning for de-duplication. Two warnings with the same
// signature describe the same notification.
type Signature struct {
	QuoteRequestID uuid.UUID
	TargetCountry  string
	Type           domain.NotificationType
	DeadlineType   domain.DeadlineType
	DaysUntil      int
}

func (w Warning) Signature() Signature {
	return Signature{
		QuoteRequestID: w.QuoteRequestID,
		TargetCountry:  w.TargetCountry,
		Type:           domain.NotificationTypeDeadlineWarning,
		DeadlineType:   w.DeadlineType,
		DaysUntil:      w.DaysUntil,
	}
}

// SettingsFunc returns the settings for a country.
type SettingsFunc func(country string) Settings

// Target returns the country warned about a request's deadlines: the creator
// country, or the involved country when the creator is unknown.
func Target(qr *domain.QuoteRequest) string {
	if qr.CreatorCountry != "" {
		return qr.CreatorCountry
	}
	return qr.InvolvedCountry
}

// Plan returns the warnings due for a request, at most one per deadline type.
// planned is the request's effective planned flag. Requests missing either
// date produce nothing. The target country's settings decide the windows.
//
// A start-date warning is due when the request is not planned, not closed, and
// the start date is between today and the country's start window inclusive.
// An end-date warning is due when the request is Won and the end date is
// between today and the country's end window inclusive.
func Plan(qr *domain.QuoteRequest, planned bool, settingsFor SettingsFunc, now time.Time, loc *time.Location) []Warning {
	if qr.StartDate == nil || qr.EndDate == nil {
		return nil
	}

	startDays := DaysUntil(now, *qr.StartDate, loc)
	endDays := DaysUntil(now, *qr.EndDate, loc)
	startCandidate := !planned && !qr.Status.IsClosed() && startDays >= 0
	endCandidate := qr.Status == domain.QuoteStatusWon && endDays >= 0
	if !startCandidate && !endCandidate {
		return nil
	}

	country := Target(qr)
	if country == "" {
		return nil
	}
	s := settingsFor(country)
	if !s.Enabled {
		return nil
	}

	var warnings []Warning
	if startCandidate && startDays <= s.StartDateWarningDays {
		warnings = append(warnings, Warning{
			QuoteRequestID: qr.ID,
			TargetCountry:  country,
			DeadlineType:   domain.DeadlineTypeStartDate,
			DaysUntil:      startDays,
			Date:           *qr.StartDate,
		})
	}
	if endCandidate && endDays <= s.EndDateWarningDays {
		warnings = append(warnings, Warning{
			QuoteRequestID: qr.ID,
			TargetCountry:  country,
			DeadlineType:   domain.DeadlineTypeEndDate,
			DaysUntil:      endDays,
			Date:           *qr.EndDate,
		})
	}
	return warnings
}

// Notification builds the notification document for a warning.
func Notification(w Warning, qr *domain.QuoteRequest) *domain.Notification {
	qrID := w.QuoteRequestID
	days := w.DaysUntil
	return &domain.Notification{
		TargetCountry:     w.TargetCountry,
		Type:              domain.NotificationTypeDeadlineWarning,
		Title:             title(w),
		Message:           message(w, qr),
		QuoteRequestID:    &qrID,
		DeadlineType:      w.DeadlineType,
		DaysUntilDeadline: &days,
	}
}

func title(w Warning) string {
	what := "Start date"
	if w.DeadlineType == domain.DeadlineTypeEndDate {
		what = "End date"
	}
	switch w.DaysUntil {
	case 0:
		return what + " is today"
	case 1:
		return what + " is tomorrow"
	default:
		return fmt.Sprintf("%s in %d days", what, w.DaysUntil)
	}
}

func message(w Warning, qr *domain.QuoteRequest) string {
	verb := "starts"
	if w.DeadlineType == domain.DeadlineTypeEndDate {
		verb = "ends"
	}
	return fmt.Sprintf("Quote request %q (%s → %s) %s on %s.",
		qr.Title, qr.CreatorCountry, qr.InvolvedCountry, verb, w.Date.Format("2006-01-02"))
}
