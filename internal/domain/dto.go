package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type UserProfileDTO struct {
	ID           uuid.UUID `json:"id"`
	UID          string    `json:"uid,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Role         UserRole  `json:"role"`
	BusinessUnit string    `json:"businessUnit,omitempty"`
	Countries    []string  `json:"countries"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

// SessionUserDTO describes the authenticated identity behind a request
type SessionUserDTO struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MeDTO is returned by the current-user endpoint
type MeDTO struct {
	User        SessionUserDTO  `json:"user"`
	UserProfile *UserProfileDTO `json:"userProfile"`
}

type CountryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

// CountryRenameResultDTO reports how many records a country rename touched
type CountryRenameResultDTO struct {
	Country              CountryDTO `json:"country"`
	QuoteRequestsUpdated int64      `json:"quoteRequestsUpdated"`
	UsersUpdated         int64      `json:"usersUpdated"`
	CustomersUpdated     int64      `json:"customersUpdated"`
	SettingsUpdated      int64      `json:"settingsUpdated"`
	NotificationsUpdated int64      `json:"notificationsUpdated"`
}

type CustomerDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Address     string    `json:"address,omitempty"`
	ContactName string    `json:"contactName,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type JobsiteDTO struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	DistanceKm *float64  `json:"distanceKm,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

type LabelDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
	Kind  LabelKind `json:"kind,omitempty"`
}

// FixDuplicateLabelsResultDTO summarizes a duplicate-label cleanup
type FixDuplicateLabelsResultDTO struct {
	DuplicatesRemoved    int `json:"duplicatesRemoved"`
	QuoteRequestsUpdated int `json:"quoteRequestsUpdated"`
	KindsAssigned        int `json:"kindsAssigned"`
}

// EffectiveFlagsDTO exposes the reconciled view of a quote request's special flags
type EffectiveFlagsDTO struct {
	Urgent   bool `json:"urgent"`
	Problems bool `json:"problems"`
	Waiting  bool `json:"waiting"`
	Planned  bool `json:"planned"`
	Snoozed  bool `json:"snoozed"`
}

type JobsiteLocationDTO struct {
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type QuoteRequestDTO struct {
	ID               uuid.UUID          `json:"id"`
	Title            string             `json:"title"`
	CreatorCountry   string             `json:"creatorCountry"`
	InvolvedCountry  string             `json:"involvedCountry"`
	CustomerID       *uuid.UUID         `json:"customerId,omitempty"`
	CustomerName     string             `json:"customerName,omitempty"`
	Status           QuoteStatus        `json:"status"`
	Labels           []string           `json:"labels"`
	Urgent           bool               `json:"urgent"`
	Problems         bool               `json:"problems"`
	WaitingForAnswer bool               `json:"waitingForAnswer"`
	Planned          bool               `json:"planned"`
	StartDate        *string            `json:"startDate,omitempty"`
	EndDate          *string            `json:"endDate,omitempty"`
	Products         []Product          `json:"products"`
	Notes            []Note             `json:"notes"`
	Jobsite          JobsiteLocationDTO `json:"jobsite"`
	Attachments      []Attachment       `json:"attachments"`
	CreatedBy        string             `json:"createdBy,omitempty"`
	Effective        EffectiveFlagsDTO  `json:"effective"`
	Bucket           string             `json:"bucket"`
	CreatedAt        string             `json:"createdAt"`
	UpdatedAt        string             `json:"updatedAt"`
}

// KanbanBoardDTO holds the four mutually exclusive dashboard columns
type KanbanBoardDTO struct {
	UrgentOrProblems []QuoteRequestDTO `json:"urgentOrProblems"`
	Waiting          []QuoteRequestDTO `json:"waiting"`
	Standard         []QuoteRequestDTO `json:"standard"`
	Snoozed          []QuoteRequestDTO `json:"snoozed"`
	Reconciled       int               `json:"reconciled"`
}

// ReconcileAllResultDTO summarizes a bulk reconciliation
type ReconcileAllResultDTO struct {
	Scanned int `json:"scanned"`
	Healed  int `json:"healed"`
	Failed  int `json:"failed"`
}

type ModificationDTO struct {
	ID             uuid.UUID `json:"id"`
	QuoteRequestID uuid.UUID `json:"quoteRequestId"`
	UserID         string    `json:"userId,omitempty"`
	UserEmail      string    `json:"userEmail,omitempty"`
	Field          string    `json:"field"`
	OldValue       string    `json:"oldValue"`
	NewValue       string    `json:"newValue"`
	CreatedAt      string    `json:"createdAt"`
}

type MessageDTO struct {
	ID             uuid.UUID    `json:"id"`
	QuoteRequestID uuid.UUID    `json:"quoteRequestId"`
	SenderID       string       `json:"senderId,omitempty"`
	SenderName     string       `json:"senderName,omitempty"`
	SenderCountry  string       `json:"senderCountry,omitempty"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments"`
	CreatedAt      string       `json:"createdAt"`
}

type NotificationDTO struct {
	ID                uuid.UUID        `json:"id"`
	TargetCountry     string           `json:"targetCountry"`
	UserID            *uuid.UUID       `json:"userId,omitempty"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	QuoteRequestID    *uuid.UUID       `json:"quoteRequestId,omitempty"`
	DeadlineType      DeadlineType     `json:"deadlineType,omitempty"`
	DaysUntilDeadline *int             `json:"daysUntilDeadline,omitempty"`
	Read              bool             `json:"read"`
	ReadAt            *string          `json:"readAt,omitempty"`
	CreatedAt         string           `json:"createdAt"`
}

// UnreadCountDTO holds the unread notification count
type UnreadCountDTO struct {
	Count int `json:"count"`
}

type NotificationSettingsDTO struct {
	Country              string `json:"country"`
	StartDateWarningDays int    `json:"startDateWarningDays"`
	EndDateWarningDays   int    `json:"endDateWarningDays"`
	Enabled              bool   `json:"enabled"`
}

type BroadcastDTO struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	TargetCountries   []string  `json:"targetCountries"`
	SentBy            string    `json:"sentBy,omitempty"`
	NotificationCount int       `json:"notificationCount"`
	CreatedAt         string    `json:"createdAt"`
}

// DeadlineScanResultDTO summarizes one deadline scan run
type DeadlineScanResultDTO struct {
	Scanned    int       `json:"scanned"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

type IdeaDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      IdeaStatus `json:"status"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	LikeCount   int        `json:"likeCount"`
	LikedByMe   bool       `json:"likedByMe"`
	CreatedAt   string     `json:"createdAt"`
}

type ErrorReportDTO struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Page        string              `json:"page,omitempty"`
	Severity    ErrorReportSeverity `json:"severity"`
	Status      ErrorReportStatus   `json:"status"`
	ReportedBy  string              `json:"reportedBy,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

type TemplateDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CreatorCountry string    `json:"creatorCountry,omitempty"`
	Products       []Product `json:"products"`
	Notes          string    `json:"notes,omitempty"`
	Labels         []string  `json:"labels"`
	CreatedAt      string    `json:"createdAt"`
}

// CountryAnalyticsDTO breaks quote request outcomes down for one creator country
type CountryAnalyticsDTO struct {
	Country string `json:"country"`
	Total   int64  `json:"total"`
	Won     int64  `json:"won"`
	Lost    int64  `json:"lost"`
	Open    int64  `json:"open"`
}

// AnalyticsSummaryDTO aggregates visible quote requests
type AnalyticsSummaryDTO struct {
	Total     int64                 `json:"total"`
	ByStatus  map[string]int64      `json:"byStatus"`
	ByBucket  map[string]int64      `json:"byBucket"`
	ByCountry []CountryAnalyticsDTO `json:"byCountry"`
	WinRate   float64               `json:"winRate"`
}
