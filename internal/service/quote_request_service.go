package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/geo"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuoteRequestService struct {
	quoteRepo        *repository.QuoteRequestRepository
	labelRepo        *repository.LabelRepository
	customerRepo     *repository.CustomerRepository
	modificationRepo *repository.ModificationRepository
	messageRepo      *repository.MessageRepository
	notificationRepo *repository.NotificationRepository
	reconciler       *Reconciler
	notifications    *NotificationService
	storage          storage.Storage
	maxUploadBytes   int64
	logger           *zap.Logger
	db               *gorm.DB
}

func NewQuoteRequestService(
	quoteRepo *repository.QuoteRequestRepository,
	labelRepo *repository.LabelRepository,
	customerRepo *repository.CustomerRepository,
	modificationRepo *repository.ModificationRepository,
	messageRepo *repository.MessageRepository,
	notificationRepo *repository.NotificationRepository,
	reconciler *Reconciler,
	notifications *NotificationService,
	fileStorage storage.Storage,
	maxUploadBytes int64,
	logger *zap.Logger,
	db *gorm.DB,
) *QuoteRequestService {
	return &QuoteRequestService{
		quoteRepo:        quoteRepo,
		labelRepo:        labelRepo,
		customerRepo:     customerRepo,
		modificationRepo: modificationRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		reconciler:       reconciler,
		notifications:    notifications,
		storage:          fileStorage,
		maxUploadBytes:   maxUploadBytes,
		logger:           logger,
		db:               db,
	}
}

// load fetches a visible quote request
func (s *QuoteRequestService) load(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	qr, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrQuoteRequestNotFound, "get quote request")
	}
	return qr, nil
}

// loadForWrite fetches a visible quote request and checks the caller may edit it
func (s *QuoteRequestService) loadForWrite(ctx context.Context, id uuid.UUID) (*auth.UserContext, *domain.QuoteRequest, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, nil, err
	}
	qr, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return userCtx, qr, nil
}

func parseDates(start, end *string) (*time.Time, *time.Time, error) {
	startDate, err := mapper.ParseDate(start)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
	}
	endDate, err := mapper.ParseDate(end)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, nil, ErrInvalidDateRange
	}
	return startDate, endDate, nil
}

func validateJobsite(j domain.JobsiteInput) error {
	if (j.Latitude == nil) != (j.Longitude == nil) {
		return fmt.Errorf("%w: jobsite latitude and longitude must be set together", ErrInvalidInput)
	}
	if j.Latitude != nil && !geo.Valid(*j.Latitude, *j.Longitude) {
		return fmt.Errorf("%w: jobsite coordinates out of range", ErrInvalidInput)
	}
	return nil
}

// resolveCustomer returns the customer ID and display name for a request
func (s *QuoteRequestService) resolveCustomer(ctx context.Context, rawID *string, name string) (*uuid.UUID, string, error) {
	if rawID == nil || *rawID == "" {
		return nil, name, nil
	}
	id, err := uuid.Parse(*rawID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid customer id", ErrInvalidInput)
	}
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", notFoundOr(err, ErrCustomerNotFound, "get customer")
	}
	if name == "" {
		name = customer.Name
	}
	return &customer.ID, name, nil
}

// knownLabels keeps the label IDs that exist, dropping duplicates
func knownLabels(ids []string, labels []domain.Label) ([]string, error) {
	exists := make(map[string]bool, len(labels))
	for _, l := range labels {
		exists[l.ID.String()] = true
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if !exists[id] {
			return nil, fmt.Errorf("%w: unknown label %s", ErrInvalidInput, id)
		}
		if !slices.Contains(kept, id) {
			kept = append(kept, id)
		}
	}
	return kept, nil
}

// Create stores a new quote request. The creator country must be one of the
// caller's countries unless the caller is an admin.
func (s *QuoteRequestService) Create(ctx context.Context, req *domain.CreateQuoteRequestRequest) (*domain.QuoteRequestDTO, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.CanAccessCountry(req.CreatorCountry) {
		return nil, fmt.Errorf("%w: cannot create quote requests for %s", ErrPermissionDenied, req.CreatorCountry)
	}

	startDate, endDate, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := validateJobsite(req.Jobsite); err != nil {
		return nil, err
	}
	customerID, customerName, err := s.resolveCustomer(ctx, req.CustomerID, req.CustomerName)
	if err != nil {
		return nil, err
	}

	labels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	labelIDs, err := knownLabels(req.Labels, labels)
	if err != nil {
		return nil, err
	}
	special := labeling.Resolve(labels)

	status := req.Status
	if status == "" {
		status = domain.QuoteStatusNew
	}

	qr := &domain.QuoteRequest{
		Title:            strings.TrimSpace(req.Title),
		CreatorCountry:   req.CreatorCountry,
		InvolvedCountry:  req.InvolvedCountry,
		CustomerID:       customerID,
		CustomerName:     customerName,
		Status:           status,
		Labels:           labelIDs,
		Urgent:           req.Urgent,
		Problems:         req.Problems,
		WaitingForAnswer: req.WaitingForAnswer,
		Planned:          req.Planned,
		StartDate:        startDate,
		EndDate:          endDate,
		Products:         req.Products,
		JobsiteAddress:   req.Jobsite.Address,
		JobsiteLatitude:  req.Jobsite.Latitude,
		JobsiteLongitude: req.Jobsite.Longitude,
		CreatedBy:        userCtx.Email,
	}
	if text := strings.TrimSpace(req.Notes); text != "" {
		qr.Notes = []domain.Note{{Text: text, User: userCtx.Email, CreatedAt: time.Now().UTC()}}
	}
	labeling.Reconcile(qr, special).Apply(qr)

	if err := s.quoteRepo.Create(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	s.logger.Info("quote request created",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("creatorCountry", qr.CreatorCountry),
		zap.String("involvedCountry", qr.InvolvedCountry),
		zap.String("createdBy", userCtx.Email))

	dto := mapper.ToQuoteRequestDTO(qr, special)
	return &dto, nil
}

// GetByID returns a visible quote request, healing its flags on the way
func (s *QuoteRequestService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequestDTO, error) {
	qr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}
	s.reconciler.Heal(ctx, qr, special)

	dto := mapper.ToQuoteRequestDTO(qr, special)
	return &dto, nil
}

// List returns a page of visible quote requests, healing each row
func (s *QuoteRequestService) List(ctx context.Context, page, pageSize int, filters *repository.QuoteRequestFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = normalizePagination(page, pageSize)

	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}

	requests, total, err := s.quoteRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote requests: %w", err)
	}

	dtos := make([]domain.QuoteRequestDTO, len(requests))
	for i := range requests {
		s.reconciler.Heal(ctx, &requests[i], special)
		dtos[i] = mapper.ToQuoteRequestDTO(&requests[i], special)
	}
	return paginated(dtos, total, page, pageSize), nil
}

// Update changes the editable fields and records one modification per change
func (s *QuoteRequestService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequestRequest) (*domain.QuoteRequestDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []domain.Modification
	track := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, domain.Modification{Field: field, OldValue: oldValue, NewValue: newValue})
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		track("title", qr.Title, title)
		qr.Title = title
	}
	if req.CreatorCountry != nil {
		track("creatorCountry", qr.CreatorCountry, *req.CreatorCountry)
		qr.CreatorCountry = *req.CreatorCountry
	}
	if req.InvolvedCountry != nil {
		track("involvedCountry", qr.InvolvedCountry, *req.InvolvedCountry)
		qr.InvolvedCountry = *req.InvolvedCountry
	}
	if !userCtx.CanAccessQuoteRequest(qr) {
		return nil, fmt.Errorf("%w: the quote request would no longer be visible to you", ErrPermissionDenied)
	}

	if req.CustomerID != nil || req.CustomerName != nil {
		name := qr.CustomerName
		if req.CustomerName != nil {
			name = *req.CustomerName
		}
		rawID := req.CustomerID
		if rawID == nil && qr.CustomerID != nil {
			current := qr.CustomerID.String()
			rawID = &current
		}
		customerID, customerName, err := s.resolveCustomer(ctx, rawID, name)
		if err != nil {
			return nil, err
		}
		track("customerId", uuidString(qr.CustomerID), uuidString(customerID))
		track("customerName", qr.CustomerName, customerName)
		qr.CustomerID = customerID
		qr.CustomerName = customerName
	}

	if req.StartDate != nil || req.EndDate != nil {
		start := datePtrString(qr.StartDate)
		if req.StartDate != nil {
			start = req.StartDate
		}
		end := datePtrString(qr.EndDate)
		if req.EndDate != nil {
			end = req.EndDate
		}
		startDate, endDate, err := parseDates(start, end)
		if err != nil {
			return nil, err
		}
		track("startDate", dateString(qr.StartDate), dateString(startDate))
		track("endDate", dateString(qr.EndDate), dateString(endDate))
		qr.StartDate = startDate
		qr.EndDate = endDate
	}

	if req.Products != nil {
		if !slices.Equal([]domain.Product(qr.Products), req.Products) {
			track("products", productSummary(qr.Products), productSummary(req.Products))
		}
		qr.Products = req.Products
	}

	if req.Jobsite != nil {
		if err := validateJobsite(*req.Jobsite); err != nil {
			return nil, err
		}
		track("jobsite", qr.JobsiteAddress, req.Jobsite.Address)
		qr.JobsiteAddress = req.Jobsite.Address
		qr.JobsiteLatitude = req.Jobsite.Latitude
		qr.JobsiteLongitude = req.Jobsite.Longitude
	}

	if len(changes) == 0 {
		return s.toDTO(ctx, qr)
	}

	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to update quote request: %w", err)
	}
	s.recordModifications(ctx, qr.ID, userCtx, changes)

	s.logger.Info("quote request updated",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.Int("changedFields", len(changes)),
		zap.String("updatedBy", userCtx.Email))

	return s.toDTO(ctx, qr)
}

// UpdateStatus changes the status and notifies the other country
func (s *QuoteRequestService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) (*domain.QuoteRequestDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr.Status == status {
		return s.toDTO(ctx, qr)
	}

	old := qr.Status
	qr.Status = status
	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	s.recordModifications(ctx, qr.ID, userCtx, []domain.Modification{
		{Field: "status", OldValue: string(old), NewValue: string(status)},
	})

	s.logger.Info("quote request status changed",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("from", string(old)),
		zap.String("to", string(status)),
		zap.String("changedBy", userCtx.Email))

	if target := otherCountry(qr, userCtx); target != "" {
		qrID := qr.ID
		s.notifications.NotifyCountry(ctx, &domain.Notification{
			TargetCountry:  target,
			Type:           domain.NotificationTypeStatusChange,
			Title:          fmt.Sprintf("Status changed to %s", status),
			Message:        fmt.Sprintf("%q changed from %s to %s by %s", qr.Title, old, status, userCtx.Email),
			QuoteRequestID: &qrID,
		})
	}

	return s.toDTO(ctx, qr)
}

// UpdateFlags sets or clears special flags. Both stored representations are
// updated together, so unlike reconciliation this may clear flags.
func (s *QuoteRequestService) UpdateFlags(ctx context.Context, id uuid.UUID, req *domain.UpdateFlagsRequest) (*domain.QuoteRequestDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}

	before := labeling.Effective(qr, special)
	requested := []struct {
		flag  labeling.Flag
		value *bool
	}{
		{labeling.Urgent, req.Urgent},
		{labeling.Problems, req.Problems},
		{labeling.Waiting, req.WaitingForAnswer},
		{labeling.Planned, req.Planned},
		{labeling.Snoozed, req.Snoozed},
	}
	for _, r := range requested {
		if r.value != nil {
			labeling.Set(qr, special, r.flag, *r.value)
		}
	}
	after := labeling.Effective(qr, special)
	if after == before {
		dto := mapper.ToQuoteRequestDTO(qr, special)
		return &dto, nil
	}

	var changes []domain.Modification
	for _, r := range requested {
		if before.Has(r.flag) != after.Has(r.flag) {
			changes = append(changes, domain.Modification{
				Field:    string(labeling.KindOf(r.flag)),
				OldValue: strconv.FormatBool(before.Has(r.flag)),
				NewValue: strconv.FormatBool(after.Has(r.flag)),
			})
		}
	}

	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to update flags: %w", err)
	}
	s.recordModifications(ctx, qr.ID, userCtx, changes)

	s.logger.Info("quote request flags updated",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("flags", after.String()),
		zap.String("updatedBy", userCtx.Email))

	dto := mapper.ToQuoteRequestDTO(qr, special)
	return &dto, nil
}

// AddLabel attaches a label. Attaching a special label also sets its flag.
func (s *QuoteRequestService) AddLabel(ctx context.Context, id, labelID uuid.UUID) (*domain.QuoteRequestDTO, error) {
	return s.changeLabel(ctx, id, labelID, true)
}

// RemoveLabel detaches a label. Detaching a special label also clears its flag.
func (s *QuoteRequestService) RemoveLabel(ctx context.Context, id, labelID uuid.UUID) (*domain.QuoteRequestDTO, error) {
	return s.changeLabel(ctx, id, labelID, false)
}

func (s *QuoteRequestService) changeLabel(ctx context.Context, id, labelID uuid.UUID, attach bool) (*domain.QuoteRequestDTO, error) {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	label, err := s.labelRepo.GetByID(ctx, labelID)
	if err != nil {
		return nil, notFoundOr(err, ErrLabelNotFound, "get label")
	}
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}

	lid := label.ID.String()
	if qr.HasLabel(lid) == attach {
		dto := mapper.ToQuoteRequestDTO(qr, special)
		return &dto, nil
	}

	if kind, ok := special.KindOfLabel(lid); ok {
		flag, _ := labeling.FlagOf(kind)
		labeling.Set(qr, special, flag, attach)
	} else if attach {
		qr.Labels = append(qr.Labels, lid)
	} else {
		qr.Labels = slices.DeleteFunc(slices.Clone(qr.Labels), func(v string) bool { return v == lid })
	}

	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to update labels: %w", err)
	}

	mod := domain.Modification{Field: "labels", NewValue: label.Name}
	if !attach {
		mod = domain.Modification{Field: "labels", OldValue: label.Name}
	}
	s.recordModifications(ctx, qr.ID, userCtx, []domain.Modification{mod})

	dto := mapper.ToQuoteRequestDTO(qr, special)
	return &dto, nil
}

// AddNote appends a note signed by the caller
func (s *QuoteRequestService) AddNote(ctx context.Context, id uuid.UUID, text string) (*domain.QuoteRequestDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrInvalidInput)
	}
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	qr.Notes = append(qr.Notes, domain.Note{Text: text, User: userCtx.Email, CreatedAt: time.Now().UTC()})
	if err := s.quoteRepo.Update(ctx, qr); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	return s.toDTO(ctx, qr)
}

// Reconcile heals one quote request on demand
func (s *QuoteRequestService) Reconcile(ctx context.Context, id uuid.UUID) (*domain.QuoteRequestDTO, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ListModifications returns the change history of a visible quote request
func (s *QuoteRequestService) ListModifications(ctx context.Context, id uuid.UUID, limit int) ([]domain.ModificationDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	mods, err := s.modificationRepo.ListByQuoteRequest(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list modifications: %w", err)
	}
	dtos := make([]domain.ModificationDTO, len(mods))
	for i := range mods {
		dtos[i] = mapper.ToModificationDTO(&mods[i])
	}
	return dtos, nil
}

// Delete removes a quote request with its messages, history and notifications.
// Stored files are removed afterwards on a best-effort basis.
func (s *QuoteRequestService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, qr, err := s.loadForWrite(ctx, id)
	if err != nil {
		return err
	}

	messages, err := s.messageRepo.ListByQuoteRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messageRepo.WithTx(tx).DeleteByQuoteRequest(ctx, id); err != nil {
			return err
		}
		if err := s.modificationRepo.WithTx(tx).DeleteByQuoteRequest(ctx, id); err != nil {
			return err
		}
		if err := s.notificationRepo.WithTx(tx).DeleteByQuoteRequest(ctx, id); err != nil {
			return err
		}
		return s.quoteRepo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete quote request: %w", err)
	}

	keys := make([]string, 0, len(qr.Attachments))
	for _, a := range qr.Attachments {
		keys = append(keys, a.URL)
	}
	for _, m := range messages {
		for _, a := range m.Attachments {
			keys = append(keys, a.URL)
		}
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete stored file",
				zap.String("quoteRequestId", id.String()),
				zap.String("key", key),
				zap.Error(err))
		}
	}

	s.logger.Info("quote request deleted",
		zap.String("quoteRequestId", id.String()),
		zap.String("deletedBy", userCtx.Email))
	return nil
}

func (s *QuoteRequestService) toDTO(ctx context.Context, qr *domain.QuoteRequest) (*domain.QuoteRequestDTO, error) {
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuoteRequestDTO(qr, special)
	return &dto, nil
}

// recordModifications stores change history. Failures are logged only.
func (s *QuoteRequestService) recordModifications(ctx context.Context, quoteRequestID uuid.UUID, userCtx *auth.UserContext, changes []domain.Modification) {
	if len(changes) == 0 {
		return
	}
	for i := range changes {
		changes[i].QuoteRequestID = quoteRequestID
		changes[i].UserID = userCtx.UID
		changes[i].UserEmail = userCtx.Email
	}
	if err := s.modificationRepo.CreateBatch(ctx, changes); err != nil {
		s.logger.Warn("failed to record modifications",
			zap.String("quoteRequestId", quoteRequestID.String()),
			zap.Error(err))
	}
}

// otherCountry returns the country on the opposite side of the request from
// the caller, or "" when both sides are the same country.
func otherCountry(qr *domain.QuoteRequest, userCtx *auth.UserContext) string {
	if qr.CreatorCountry == qr.InvolvedCountry {
		return ""
	}
	for _, c := range userCtx.Countries {
		if strings.EqualFold(c, qr.InvolvedCountry) {
			return qr.CreatorCountry
		}
	}
	return qr.InvolvedCountry
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(mapper.DateLayout)
}

func datePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateString(t)
	return &s
}

func productSummary(products []domain.Product) string {
	parts := make([]string, len(products))
	for i, p := range products {
		parts[i] = fmt.Sprintf("%dx %s", p.Quantity, p.CatClass)
	}
	return strings.Join(parts, ", ")
}

