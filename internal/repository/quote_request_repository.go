package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuoteRequestFilters narrows quote request listings
type QuoteRequestFilters struct {
	Status     *domain.QuoteStatus
	Country    string // matches creator or involved country
	CustomerID *uuid.UUID
	LabelID    string
	Search     string
}

// quoteRequestSortFields maps API sort fields to columns
var quoteRequestSortFields = map[string]string{
	"updatedAt":       "updated_at",
	"createdAt":       "created_at",
	"title":           "title",
	"status":          "status",
	"startDate":       "start_date",
	"endDate":         "end_date",
	"creatorCountry":  "creator_country",
	"involvedCountry": "involved_country",
}

// FlagState is the stored flag representation a conditional write expects to replace
type FlagState struct {
	Urgent           bool
	Problems         bool
	WaitingForAnswer bool
	Planned          bool
	LabelCount       int
}

// FlagStateOf captures the stored flag representation of a quote request
func FlagStateOf(qr *domain.QuoteRequest) FlagState {
	return FlagState{
		Urgent:           qr.Urgent,
		Problems:         qr.Problems,
		WaitingForAnswer: qr.WaitingForAnswer,
		Planned:          qr.Planned,
		LabelCount:       len(qr.Labels),
	}
}

type QuoteRequestRepository struct {
	db *gorm.DB
}

func NewQuoteRequestRepository(db *gorm.DB) *QuoteRequestRepository {
	return &QuoteRequestRepository{db: db}
}

func (r *QuoteRequestRepository) Create(ctx context.Context, qr *domain.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

// GetByID returns a quote request visible to the caller
func (r *QuoteRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	var qr domain.QuoteRequest
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyCountryFilter(ctx, query)
	if err := query.First(&qr).Error; err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *QuoteRequestRepository) Update(ctx context.Context, qr *domain.QuoteRequest) error {
	return r.db.WithContext(ctx).Save(qr).Error
}

func (r *QuoteRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.QuoteRequest{}, "id = ?", id).Error
}

func (r *QuoteRequestRepository) applyFilters(query *gorm.DB, filters *QuoteRequestFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Country != "" {
		query = query.Where("(creator_country = ? OR involved_country = ?)", filters.Country, filters.Country)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.LabelID != "" {
		clause, args := jsonArrayContains(r.db, "labels", filters.LabelID)
		query = query.Where(clause, args...)
	}
	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?)", searchPattern, searchPattern)
	}
	return query
}

// List returns a page of visible quote requests
func (r *QuoteRequestRepository) List(ctx context.Context, page, pageSize int, filters *QuoteRequestFilters, sort SortConfig) ([]domain.QuoteRequest, int64, error) {
	var requests []domain.QuoteRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.QuoteRequest{})
	query = ApplyCountryFilter(ctx, query)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	orderClause := BuildOrderClause(sort, quoteRequestSortFields, "updated_at")
	err := query.Offset(offset).Limit(pageSize).Order(orderClause).Find(&requests).Error

	return requests, total, err
}

// ListVisible returns every quote request visible to the caller, newest first
func (r *QuoteRequestRepository) ListVisible(ctx context.Context, filters *QuoteRequestFilters) ([]domain.QuoteRequest, error) {
	var requests []domain.QuoteRequest
	query := r.db.WithContext(ctx).Model(&domain.QuoteRequest{})
	query = ApplyCountryFilter(ctx, query)
	query = r.applyFilters(query, filters)
	err := query.Order("updated_at DESC").Find(&requests).Error
	return requests, err
}

// ListWithDates returns all quote requests that have both a start and an end
// date. It ignores caller visibility and is meant for system scans.
func (r *QuoteRequestRepository) ListWithDates(ctx context.Context) ([]domain.QuoteRequest, error) {
	var requests []domain.QuoteRequest
	err := r.db.WithContext(ctx).
		Where("start_date IS NOT NULL AND end_date IS NOT NULL").
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// ForEachBatch walks every quote request in primary key order, batchSize rows at a time
func (r *QuoteRequestRepository) ForEachBatch(ctx context.Context, batchSize int, fn func(batch []domain.QuoteRequest) error) error {
	var batch []domain.QuoteRequest
	result := r.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}

// WriteFlags stores the flag booleans and label IDs of qr, but only if the
// stored row still matches expected. It reports whether a row was written.
// The update does not touch updated_at.
func (r *QuoteRequestRepository) WriteFlags(ctx context.Context, qr *domain.QuoteRequest, expected FlagState) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("id = ?", qr.ID).
		Where("urgent = ? AND problems = ? AND waiting_for_answer = ? AND planned = ?",
			expected.Urgent, expected.Problems, expected.WaitingForAnswer, expected.Planned).
		Where(jsonArrayLength(r.db, "labels")+" = ?", expected.LabelCount).
		UpdateColumns(map[string]interface{}{
			"urgent":             qr.Urgent,
			"problems":           qr.Problems,
			"waiting_for_answer": qr.WaitingForAnswer,
			"planned":            qr.Planned,
			"labels":             qr.Labels,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReplaceLabels overwrites the label IDs of a quote request without touching updated_at
func (r *QuoteRequestRepository) ReplaceLabels(ctx context.Context, id uuid.UUID, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	return r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("id = ?", id).
		UpdateColumn("labels", datatypes.JSONSlice[string](labels)).Error
}

// RenameCountry rewrites creator and involved country references
func (r *QuoteRequestRepository) RenameCountry(ctx context.Context, from, to string) (int64, error) {
	creator := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("creator_country = ?", from).
		UpdateColumn("creator_country", to)
	if creator.Error != nil {
		return 0, creator.Error
	}
	involved := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("involved_country = ?", from).
		UpdateColumn("involved_country", to)
	if involved.Error != nil {
		return 0, involved.Error
	}
	return creator.RowsAffected + involved.RowsAffected, nil
}

// CountByCountry reports how many quote requests reference a country
func (r *QuoteRequestRepository) CountByCountry(ctx context.Context, country string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("creator_country = ? OR involved_country = ?", country, country).
		Count(&count).Error
	return count, err
}

// CountByCustomer reports how many quote requests reference a customer
func (r *QuoteRequestRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// WithTx returns a repository bound to tx
func (r *QuoteRequestRepository) WithTx(tx *gorm.DB) *QuoteRequestRepository {
	return &QuoteRequestRepository{db: tx}
}
