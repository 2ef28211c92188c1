package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a new ID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole represents the access level of a user profile
type UserRole string

const (
	RoleSuperAdmin UserRole = "superAdmin"
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
	RoleReadOnly   UserRole = "readOnly"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser, RoleReadOnly:
		return true
	}
	return false
}

// Rank orders roles from least to most privileged
func (r UserRole) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// UserProfile is the application profile attached to an identity-provider account
type UserProfile struct {
	BaseModel
	UID          *string                     `gorm:"type:varchar(128);uniqueIndex"`
	Email        string                      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string                      `gorm:"type:varchar(200)"`
	Role         UserRole                    `gorm:"type:varchar(20);not null;default:user"`
	BusinessUnit string                      `gorm:"type:varchar(100)"`
	Countries    datatypes.JSONSlice[string] `gorm:"not null"`
}

func (UserProfile) TableName() string {
	return "users"
}

// Country is a business unit partition
type Country struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Code string `gorm:"type:varchar(10)"`
}

// Customer of an equipment rental
type Customer struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;index"`
	Country     string `gorm:"type:varchar(100);not null;index"`
	Address     string `gorm:"type:varchar(500)"`
	ContactName string `gorm:"type:varchar(200)"`
	Email       string `gorm:"type:varchar(255)"`
	Phone       string `gorm:"type:varchar(50)"`
	Notes       string `gorm:"type:text"`
}

// Jobsite is a geocoded site belonging to a customer
type Jobsite struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Address    string    `gorm:"type:varchar(500)"`
	Latitude   float64   `gorm:"not null"`
	Longitude  float64   `gorm:"not null"`
}

func (Jobsite) TableName() string {
	return "customer_jobsites"
}

// LabelKind tags a label as one of the system labels that drive classification.
// Custom labels carry the empty kind.
type LabelKind string

const (
	LabelKindNone     LabelKind = ""
	LabelKindUrgent   LabelKind = "urgent"
	LabelKindProblems LabelKind = "problems"
	LabelKindWaiting  LabelKind = "waiting"
	LabelKindPlanned  LabelKind = "planned"
	LabelKindSnoozed  LabelKind = "snoozed"
)

// SystemLabelKinds lists the system label kinds in their canonical order
var SystemLabelKinds = []LabelKind{
	LabelKindUrgent,
	LabelKindProblems,
	LabelKindWaiting,
	LabelKindPlanned,
	LabelKindSnoozed,
}

// IsValid reports whether the kind is empty or a known system kind
func (k LabelKind) IsValid() bool {
	if k == LabelKindNone {
		return true
	}
	for _, kind := range SystemLabelKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Label is a tag that can be attached to quote requests
type Label struct {
	BaseModel
	Name  string    `gorm:"type:varchar(100);not null;index"`
	Color string    `gorm:"type:varchar(20)"`
	Kind  LabelKind `gorm:"type:varchar(20);not null;default:''"`
}

// QuoteStatus represents the lifecycle state of a quote request
type QuoteStatus string

const (
	QuoteStatusNew        QuoteStatus = "New"
	QuoteStatusInProgress QuoteStatus = "In Progress"
	QuoteStatusSnoozed    QuoteStatus = "Snoozed"
	QuoteStatusWon        QuoteStatus = "Won"
	QuoteStatusLost       QuoteStatus = "Lost"
	QuoteStatusCancelled  QuoteStatus = "Cancelled"
)

// QuoteStatuses lists all valid quote request statuses
var QuoteStatuses = []QuoteStatus{
	QuoteStatusNew,
	QuoteStatusInProgress,
	QuoteStatusSnoozed,
	QuoteStatusWon,
	QuoteStatusLost,
	QuoteStatusCancelled,
}

// IsValid reports whether the status is a known status
func (s QuoteStatus) IsValid() bool {
	for _, status := range QuoteStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsClosed reports whether the request has reached a terminal outcome
func (s QuoteStatus) IsClosed() bool {
	return s == QuoteStatusWon || s == QuoteStatusLost || s == QuoteStatusCancelled
}

// Product is a requested equipment line
type Product struct {
	CatClass    string `json:"catClass"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// Note is a free-text comment on a quote request
type Note struct {
	Text      string    `json:"text"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment references a stored file
type Attachment struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy"`
}

// QuoteRequest is a rental quote coordinated between a creator and an involved country.
// The boolean flags and the special label IDs in Labels describe the same facts and are
// kept in agreement by reconciliation.
type QuoteRequest struct {
	BaseModel
	Title            string                          `gorm:"type:varchar(300);not null"`
	CreatorCountry   string                          `gorm:"type:varchar(100);not null;index"`
	InvolvedCountry  string                          `gorm:"type:varchar(100);not null;index"`
	CustomerID       *uuid.UUID                      `gorm:"type:uuid;index"`
	CustomerName     string                          `gorm:"type:varchar(200)"`
	Status           QuoteStatus                     `gorm:"type:varchar(20);not null;default:New;index"`
	Labels           datatypes.JSONSlice[string]     `gorm:"not null"`
	Urgent           bool                            `gorm:"not null;default:false"`
	Problems         bool                            `gorm:"not null;default:false"`
	WaitingForAnswer bool                            `gorm:"not null;default:false"`
	Planned          bool                            `gorm:"not null;default:false"`
	StartDate        *time.Time                      `gorm:"index"`
	EndDate          *time.Time                      `gorm:"index"`
	Products         datatypes.JSONSlice[Product]    `gorm:"not null"`
	Notes            datatypes.JSONSlice[Note]       `gorm:"not null"`
	JobsiteAddress   string                          `gorm:"type:varchar(500)"`
	JobsiteLatitude  *float64
	JobsiteLongitude *float64
	Attachments      datatypes.JSONSlice[Attachment] `gorm:"not null"`
	CreatedBy        string                          `gorm:"type:varchar(255)"`
}

// HasLabel reports whether the label ID is attached to the request
func (q *QuoteRequest) HasLabel(id string) bool {
	if id == "" {
		return false
	}
	for _, l := range q.Labels {
		if l == id {
			return true
		}
	}
	return false
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeDeadlineWarning NotificationType = "deadline_warning"
	NotificationTypeBroadcast       NotificationType = "broadcast"
	NotificationTypeStatusChange    NotificationType = "status_change"
	NotificationTypeMessage         NotificationType = "message"
)

// DeadlineType identifies which quote request date a deadline warning refers to
type DeadlineType string

const (
	DeadlineTypeStartDate DeadlineType = "start_date"
	DeadlineTypeEndDate   DeadlineType = "end_date"
)

// Notification is addressed to every user of a target country, or to a single user
type Notification struct {
	BaseModel
	TargetCountry     string           `gorm:"type:varchar(100);not null;index"`
	UserID            *uuid.UUID       `gorm:"type:uuid;index"`
	Type              NotificationType `gorm:"type:varchar(50);not null;index"`
	Title             string           `gorm:"type:varchar(200);not null"`
	Message           string           `gorm:"type:varchar(1000);not null"`
	QuoteRequestID    *uuid.UUID       `gorm:"type:uuid;index"`
	DeadlineType      DeadlineType     `gorm:"type:varchar(20)"`
	DaysUntilDeadline *int
	Read              bool `gorm:"column:read;not null;default:false;index"`
	ReadAt            *time.Time
}

// NotificationSettings configures deadline warnings for a country
type NotificationSettings struct {
	BaseModel
	Country              string `gorm:"type:varchar(100);not null;uniqueIndex"`
	StartDateWarningDays int    `gorm:"not null"`
	EndDateWarningDays   int    `gorm:"not null"`
	Enabled              bool   `gorm:"not null"`
}

// Broadcast records an announcement sent to one or more countries
type Broadcast struct {
	BaseModel
	Title             string                      `gorm:"type:varchar(200);not null"`
	Message           string                      `gorm:"type:varchar(1000);not null"`
	TargetCountries   datatypes.JSONSlice[string] `gorm:"not null"`
	SentBy            string                      `gorm:"type:varchar(255)"`
	NotificationCount int                         `gorm:"not null;default:0"`
}

// Message is a chat entry on a quote request
type Message struct {
	BaseModel
	QuoteRequestID uuid.UUID                       `gorm:"type:uuid;not null;index"`
	SenderID       string                          `gorm:"type:varchar(100)"`
	SenderName     string                          `gorm:"type:varchar(200)"`
	SenderCountry  string                          `gorm:"type:varchar(100)"`
	Text           string                          `gorm:"type:text;not null"`
	Attachments    datatypes.JSONSlice[Attachment] `gorm:"not null"`
}

// Modification records a single field change on a quote request
type Modification struct {
	BaseModel
	QuoteRequestID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID         string    `gorm:"type:varchar(100)"`
	UserEmail      string    `gorm:"type:varchar(255)"`
	Field          string    `gorm:"type:varchar(100);not null"`
	OldValue       string    `gorm:"type:text"`
	NewValue       string    `gorm:"type:text"`
}

// IdeaStatus tracks an improvement idea
type IdeaStatus string

const (
	IdeaStatusOpen     IdeaStatus = "open"
	IdeaStatusPlanned  IdeaStatus = "planned"
	IdeaStatusDone     IdeaStatus = "done"
	IdeaStatusRejected IdeaStatus = "rejected"
)

// Idea is a user-submitted improvement suggestion
type Idea struct {
	BaseModel
	Title       string     `gorm:"type:varchar(200);not null"`
	Description string     `gorm:"type:text"`
	Status      IdeaStatus `gorm:"type:varchar(20);not null;default:open"`
	CreatedBy   string     `gorm:"type:varchar(255)"`
	LikeCount   int        `gorm:"not null;default:0"`
}

// IdeaLike is one user's vote on an idea
type IdeaLike struct {
	BaseModel
	IdeaID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idea_likes_idea_user"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idea_likes_idea_user"`
}

// ErrorReportSeverity grades a reported problem
type ErrorReportSeverity string

const (
	SeverityLow    ErrorReportSeverity = "low"
	SeverityMedium ErrorReportSeverity = "medium"
	SeverityHigh   ErrorReportSeverity = "high"
)

// ErrorReportStatus tracks the handling of a reported problem
type ErrorReportStatus string

const (
	ErrorReportStatusOpen       ErrorReportStatus = "open"
	ErrorReportStatusInProgress ErrorReportStatus = "in_progress"
	ErrorReportStatusResolved   ErrorReportStatus = "resolved"
)

// ErrorReport is a user-submitted bug report
type ErrorReport struct {
	BaseModel
	Title       string              `gorm:"type:varchar(200);not null"`
	Description string              `gorm:"type:text"`
	Page        string              `gorm:"type:varchar(200)"`
	Severity    ErrorReportSeverity `gorm:"type:varchar(20);not null;default:medium"`
	Status      ErrorReportStatus   `gorm:"type:varchar(20);not null;default:open"`
	ReportedBy  string              `gorm:"type:varchar(255)"`
}

// Template prefills new quote requests
type Template struct {
	BaseModel
	Name           string                       `gorm:"type:varchar(200);not null"`
	CreatorCountry string                       `gorm:"type:varchar(100)"`
	Products       datatypes.JSONSlice[Product] `gorm:"not null"`
	Notes          string                       `gorm:"type:text"`
	Labels         datatypes.JSONSlice[string]  `gorm:"not null"`
}

func (Template) TableName() string {
	return "quote_request_templates"
}

func emptyIfNil[T any](s datatypes.JSONSlice[T]) datatypes.JSONSlice[T] {
	if s == nil {
		return datatypes.JSONSlice[T]{}
	}
	return s
}

// BeforeSave stores empty JSON arrays instead of null
func (q *QuoteRequest) BeforeSave(tx *gorm.DB) error {
	q.Labels = emptyIfNil(q.Labels)
	q.Products = emptyIfNil(q.Products)
	q.Notes = emptyIfNil(q.Notes)
	q.Attachments = emptyIfNil(q.Attachments)
	return nil
}

func (u *UserProfile) BeforeSave(tx *gorm.DB) error {
	u.Countries = emptyIfNil(u.Countries)
	return nil
}

func (b *Broadcast) BeforeSave(tx *gorm.DB) error {
	b.TargetCountries = emptyIfNil(b.TargetCountries)
	return nil
}

func (m *Message) BeforeSave(tx *gorm.DB) error {
	m.Attachments = emptyIfNil(m.Attachments)
	return nil
}

func (t *Template) BeforeSave(tx *gorm.DB) error {
	t.Products = emptyIfNil(t.Products)
	t.Labels = emptyIfNil(t.Labels)
	return nil
}
