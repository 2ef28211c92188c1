package mapper

import (
	"time"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	// DateLayout is the wire format of quote request start and end dates
	DateLayout = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}

// ParseDate parses a wire date; an empty string means no date
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, err
		}
	}
	t = t.UTC()
	return &t, nil
}

// nonNil keeps JSON arrays as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ToUserProfileDTO converts UserProfile to UserProfileDTO
func ToUserProfileDTO(u *domain.UserProfile) domain.UserProfileDTO {
	dto := domain.UserProfileDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		BusinessUnit: u.BusinessUnit,
		Countries:    nonNil([]string(u.Countries)),
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
	if u.UID != nil {
		dto.UID = *u.UID
	}
	return dto
}

func ToCountryDTO(c *domain.Country) domain.CountryDTO {
	return domain.CountryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Code:      c.Code,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func ToCustomerDTO(c *domain.Customer) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:          c.ID,
		Name:        c.Name,
		Country:     c.Country,
		Address:     c.Address,
		ContactName: c.ContactName,
		Email:       c.Email,
		Phone:       c.Phone,
		Notes:       c.Notes,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

func ToJobsiteDTO(j *domain.Jobsite) domain.JobsiteDTO {
	return domain.JobsiteDTO{
		ID:         j.ID,
		CustomerID: j.CustomerID,
		Name:       j.Name,
		Address:    j.Address,
		Latitude:   j.Latitude,
		Longitude:  j.Longitude,
		CreatedAt:  formatTime(j.CreatedAt),
	}
}

func ToLabelDTO(l *domain.Label) domain.LabelDTO {
	return domain.LabelDTO{
		ID:    l.ID,
		Name:  l.Name,
		Color: l.Color,
		Kind:  l.Kind,
	}
}

// ToEffectiveFlagsDTO exposes a flag set
func ToEffectiveFlagsDTO(f labeling.Flags) domain.EffectiveFlagsDTO {
	return domain.EffectiveFlagsDTO{
		Urgent:   f.Has(labeling.Urgent),
		Problems: f.Has(labeling.Problems),
		Waiting:  f.Has(labeling.Waiting),
		Planned:  f.Has(labeling.Planned),
		Snoozed:  f.Has(labeling.Snoozed),
	}
}

// ToQuoteRequestDTO converts QuoteRequest to QuoteRequestDTO, including the
// effective flags and dashboard bucket computed against the special labels
func ToQuoteRequestDTO(qr *domain.QuoteRequest, special labeling.SpecialLabels) domain.QuoteRequestDTO {
	flags := labeling.Effective(qr, special)
	return domain.QuoteRequestDTO{
		ID:               qr.ID,
		Title:            qr.Title,
		CreatorCountry:   qr.CreatorCountry,
		InvolvedCountry:  qr.InvolvedCountry,
		CustomerID:       qr.CustomerID,
		CustomerName:     qr.CustomerName,
		Status:           qr.Status,
		Labels:           nonNil([]string(qr.Labels)),
		Urgent:           qr.Urgent,
		Problems:         qr.Problems,
		WaitingForAnswer: qr.WaitingForAnswer,
		Planned:          qr.Planned,
		StartDate:        formatDatePtr(qr.StartDate),
		EndDate:          formatDatePtr(qr.EndDate),
		Products:         nonNil([]domain.Product(qr.Products)),
		Notes:            nonNil([]domain.Note(qr.Notes)),
		Jobsite: domain.JobsiteLocationDTO{
			Address:   qr.JobsiteAddress,
			Latitude:  qr.JobsiteLatitude,
			Longitude: qr.JobsiteLongitude,
		},
		Attachments: nonNil([]domain.Attachment(qr.Attachments)),
		CreatedBy:   qr.CreatedBy,
		Effective:   ToEffectiveFlagsDTO(flags),
		Bucket:      string(labeling.BucketOf(flags)),
		CreatedAt:   formatTime(qr.CreatedAt),
		UpdatedAt:   formatTime(qr.UpdatedAt),
	}
}

func ToModificationDTO(m *domain.Modification) domain.ModificationDTO {
	return domain.ModificationDTO{
		ID:             m.ID,
		QuoteRequestID: m.QuoteRequestID,
		UserID:         m.UserID,
		UserEmail:      m.UserEmail,
		Field:          m.Field,
		OldValue:       m.OldValue,
		NewValue:       m.NewValue,
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

func ToMessageDTO(m *domain.Message) domain.MessageDTO {
	return domain.MessageDTO{
		ID:             m.ID,
		QuoteRequestID: m.QuoteRequestID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderCountry:  m.SenderCountry,
		Text:           m.Text,
		Attachments:    nonNil([]domain.Attachment(m.Attachments)),
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:                n.ID,
		TargetCountry:     n.TargetCountry,
		UserID:            n.UserID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		QuoteRequestID:    n.QuoteRequestID,
		DeadlineType:      n.DeadlineType,
		DaysUntilDeadline: n.DaysUntilDeadline,
		Read:              n.Read,
		ReadAt:            formatTimePtr(n.ReadAt),
		CreatedAt:         formatTime(n.CreatedAt),
	}
}

func ToNotificationSettingsDTO(country string, startDays, endDays int, enabled bool) domain.NotificationSettingsDTO {
	return domain.NotificationSettingsDTO{
		Country:              country,
		StartDateWarningDays: startDays,
		EndDateWarningDays:   endDays,
		Enabled:              enabled,
	}
}

func ToBroadcastDTO(b *domain.Broadcast) domain.BroadcastDTO {
	return domain.BroadcastDTO{
		ID:                b.ID,
		Title:             b.Title,
		Message:           b.Message,
		TargetCountries:   nonNil([]string(b.TargetCountries)),
		SentBy:            b.SentBy,
		NotificationCount: b.NotificationCount,
		CreatedAt:         formatTime(b.CreatedAt),
	}
}

func ToIdeaDTO(i *domain.Idea, likedByMe bool) domain.IdeaDTO {
	return domain.IdeaDTO{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Status:      i.Status,
		CreatedBy:   i.CreatedBy,
		LikeCount:   i.LikeCount,
		LikedByMe:   likedByMe,
		CreatedAt:   formatTime(i.CreatedAt),
	}
}

func ToErrorReportDTO(e *domain.ErrorReport) domain.ErrorReportDTO {
	return domain.ErrorReportDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Page:        e.Page,
		Severity:    e.Severity,
		Status:      e.Status,
		ReportedBy:  e.ReportedBy,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func ToTemplateDTO(t *domain.Template) domain.TemplateDTO {
	return domain.TemplateDTO{
		ID:             t.ID,
		Name:           t.Name,
		CreatorCountry: t.CreatorCountry,
		Products:       nonNil([]domain.Product(t.Products)),
		Notes:          t.Notes,
		Labels:         nonNil([]string(t.Labels)),
		CreatedAt:      formatTime(t.CreatedAt),
	}
}
