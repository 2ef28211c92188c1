package domain

// Request payloads. Validation tags are enforced by the HTTP layer.

type CreateSessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type UpdateUserRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Role         *UserRole `json:"role,omitempty" validate:"omitempty,oneof=superAdmin admin user readOnly"`
	BusinessUnit *string   `json:"businessUnit,omitempty" validate:"omitempty,max=100"`
	Countries    []string  `json:"countries,omitempty" validate:"omitempty,dive,required,max=100"`
}

type CreateCountryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code,omitempty" validate:"omitempty,max=10"`
}

type UpdateCountryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code,omitempty" validate:"omitempty,max=10"`
}

type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Country     string `json:"country" validate:"required,max=100"`
	Address     string `json:"address,omitempty" validate:"max=500"`
	ContactName string `json:"contactName,omitempty" validate:"max=200"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty" validate:"max=50"`
	Notes       string `json:"notes,omitempty"`
}

type UpdateCustomerRequest = CreateCustomerRequest

type CreateJobsiteRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Address   string  `json:"address,omitempty" validate:"max=500"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type UpdateJobsiteRequest = CreateJobsiteRequest

type CreateLabelRequest struct {
	Name  string    `json:"name" validate:"required,max=100"`
	Color string    `json:"color,omitempty" validate:"max=20"`
	Kind  LabelKind `json:"kind,omitempty" validate:"omitempty,oneof=urgent problems waiting planned snoozed"`
}

type UpdateLabelRequest = CreateLabelRequest

type JobsiteInput struct {
	Address   string   `json:"address,omitempty" validate:"max=500"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type CreateQuoteRequestRequest struct {
	Title            string       `json:"title" validate:"required,max=300"`
	CreatorCountry   string       `json:"creatorCountry" validate:"required,max=100"`
	InvolvedCountry  string       `json:"involvedCountry" validate:"required,max=100"`
	CustomerID       *string      `json:"customerId,omitempty" validate:"omitempty,uuid"`
	CustomerName     string       `json:"customerName,omitempty" validate:"max=200"`
	Status           QuoteStatus  `json:"status,omitempty" validate:"omitempty,oneof=New 'In Progress' Snoozed Won Lost Cancelled"`
	Labels           []string     `json:"labels,omitempty"`
	Urgent           bool         `json:"urgent"`
	Problems         bool         `json:"problems"`
	WaitingForAnswer bool         `json:"waitingForAnswer"`
	Planned          bool         `json:"planned"`
	StartDate        *string      `json:"startDate,omitempty"`
	EndDate          *string      `json:"endDate,omitempty"`
	Products         []Product    `json:"products,omitempty" validate:"dive"`
	Notes            string       `json:"notes,omitempty"`
	Jobsite          JobsiteInput `json:"jobsite"`
}

type UpdateQuoteRequestRequest struct {
	Title           *string       `json:"title,omitempty" validate:"omitempty,max=300"`
	CreatorCountry  *string       `json:"creatorCountry,omitempty" validate:"omitempty,max=100"`
	InvolvedCountry *string       `json:"involvedCountry,omitempty" validate:"omitempty,max=100"`
	CustomerID      *string       `json:"customerId,omitempty" validate:"omitempty,uuid"`
	CustomerName    *string       `json:"customerName,omitempty" validate:"omitempty,max=200"`
	StartDate       *string       `json:"startDate,omitempty"`
	EndDate         *string       `json:"endDate,omitempty"`
	Products        []Product     `json:"products,omitempty" validate:"omitempty,dive"`
	Jobsite         *JobsiteInput `json:"jobsite,omitempty"`
}

type UpdateStatusRequest struct {
	Status QuoteStatus `json:"status" validate:"required,oneof=New 'In Progress' Snoozed Won Lost Cancelled"`
}

// UpdateFlagsRequest sets or clears special flags. Nil fields are left unchanged.
type UpdateFlagsRequest struct {
	Urgent           *bool `json:"urgent,omitempty"`
	Problems         *bool `json:"problems,omitempty"`
	WaitingForAnswer *bool `json:"waitingForAnswer,omitempty"`
	Planned          *bool `json:"planned,omitempty"`
	Snoozed          *bool `json:"snoozed,omitempty"`
}

type AddNoteRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

type CreateMessageRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

type UpdateNotificationSettingsRequest struct {
	StartDateWarningDays int  `json:"startDateWarningDays" validate:"gte=0,lte=365"`
	EndDateWarningDays   int  `json:"endDateWarningDays" validate:"gte=0,lte=365"`
	Enabled              bool `json:"enabled"`
}

type CreateBroadcastRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Message         string   `json:"message" validate:"required,max=1000"`
	TargetCountries []string `json:"targetCountries" validate:"required,min=1,dive,required"`
}

type CreateIdeaRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
}

type UpdateIdeaStatusRequest struct {
	Status IdeaStatus `json:"status" validate:"required,oneof=open planned done rejected"`
}

type CreateErrorReportRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description,omitempty" validate:"max=5000"`
	Page        string              `json:"page,omitempty" validate:"max=200"`
	Severity    ErrorReportSeverity `json:"severity,omitempty" validate:"omitempty,oneof=low medium high"`
}

type UpdateErrorReportStatusRequest struct {
	Status ErrorReportStatus `json:"status" validate:"required,oneof=open in_progress resolved"`
}

type CreateTemplateRequest struct {
	Name           string    `json:"name" validate:"required,max=200"`
	CreatorCountry string    `json:"creatorCountry,omitempty" validate:"max=100"`
	Products       []Product `json:"products,omitempty" validate:"dive"`
	Notes          string    `json:"notes,omitempty"`
	Labels         []string  `json:"labels,omitempty"`
}

// CreateFromTemplateRequest supplies the fields a template does not carry
type CreateFromTemplateRequest struct {
	Title           string  `json:"title" validate:"required,max=300"`
	CreatorCountry  string  `json:"creatorCountry,omitempty" validate:"max=100"`
	InvolvedCountry string  `json:"involvedCountry" validate:"required,max=100"`
	CustomerName    string  `json:"customerName,omitempty" validate:"max=200"`
	StartDate       *string `json:"startDate,omitempty"`
	EndDate         *string `json:"endDate,omitempty"`
}
