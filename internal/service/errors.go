package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when a user profile is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrCannotRemoveLastSuperAdmin is returned when demoting the only super admin
	ErrCannotRemoveLastSuperAdmin = errors.New("cannot remove the last super admin")

	// ErrInvalidRole is returned when an unknown role is provided
	ErrInvalidRole = errors.New("invalid role")

	ErrQuoteRequestNotFound = errors.New("quote request not found")
	ErrLabelNotFound        = errors.New("label not found")
	ErrCountryNotFound      = errors.New("country not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrJobsiteNotFound      = errors.New("jobsite not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrIdeaNotFound         = errors.New("idea not found")
	ErrErrorReportNotFound  = errors.New("error report not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")

	// ErrLabelKindTaken is returned when a second label claims a system kind
	ErrLabelKindTaken = errors.New("another label already has this kind")

	// ErrCountryExists is returned when a country name is already used
	ErrCountryExists = errors.New("country already exists")

	// ErrCountryInUse is returned when deleting a country still referenced by quote requests
	ErrCountryInUse = errors.New("country is referenced by quote requests")

	// ErrCustomerInUse is returned when deleting a customer still referenced by quote requests
	ErrCustomerInUse = errors.New("customer is referenced by quote requests")

	// ErrInvalidDateRange is returned when an end date precedes the start date
	ErrInvalidDateRange = errors.New("end date must not be before start date")

	// ErrFileTooLarge is returned when an upload exceeds the configured limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrScanInProgress is returned when another deadline scan holds the lock
	ErrScanInProgress = errors.New("deadline scan already in progress")
)
