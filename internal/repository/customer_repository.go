package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyCountryFilterWithColumn(ctx, query, "country")
	err := query.First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// Delete removes a customer together with its jobsites
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Jobsite{}, "customer_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Customer{}, "id = ?", id).Error
	})
}

func (r *CustomerRepository) List(ctx context.Context, page, pageSize int, search, country string) ([]domain.Customer, int64, error) {
	var customers []domain.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Customer{})
	query = ApplyCountryFilterWithColumn(ctx, query, "country")

	if country != "" {
		query = query.Where("country = ?", country)
	}
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ?)", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&customers).Error

	return customers, total, err
}

// RenameCountry moves customers from one country name to another
func (r *CustomerRepository) RenameCountry(ctx context.Context, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Customer{}).
		Where("country = ?", from).
		UpdateColumn("country", to)
	return result.RowsAffected, result.Error
}

// CreateJobsite adds a jobsite to a customer
func (r *CustomerRepository) CreateJobsite(ctx context.Context, jobsite *domain.Jobsite) error {
	return r.db.WithContext(ctx).Create(jobsite).Error
}

func (r *CustomerRepository) GetJobsite(ctx context.Context, id uuid.UUID) (*domain.Jobsite, error) {
	var jobsite domain.Jobsite
	err := r.db.WithContext(ctx).First(&jobsite, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &jobsite, nil
}

func (r *CustomerRepository) UpdateJobsite(ctx context.Context, jobsite *domain.Jobsite) error {
	return r.db.WithContext(ctx).Save(jobsite).Error
}

func (r *CustomerRepository) DeleteJobsite(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Jobsite{}, "id = ?", id).Error
}

// ListJobsites returns the jobsites of one customer
func (r *CustomerRepository) ListJobsites(ctx context.Context, customerID uuid.UUID) ([]domain.Jobsite, error) {
	var jobsites []domain.Jobsite
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("name ASC").
		Find(&jobsites).Error
	return jobsites, err
}

// ListJobsitesInBox returns visible jobsites inside a lat/lng bounding box
func (r *CustomerRepository) ListJobsitesInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]domain.Jobsite, error) {
	var jobsites []domain.Jobsite
	query := r.db.WithContext(ctx).
		Model(&domain.Jobsite{}).
		Joins("JOIN customers ON customers.id = customer_jobsites.customer_id").
		Where("customer_jobsites.latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("customer_jobsites.longitude BETWEEN ? AND ?", minLng, maxLng)
	query = ApplyCountryFilterWithColumn(ctx, query, "customers.country")
	err := query.Find(&jobsites).Error
	return jobsites, err
}

// WithTx returns a repository bound to tx
func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}
