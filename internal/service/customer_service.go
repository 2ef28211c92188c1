package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/geo"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultNearbyRadiusKm = 25.0
	maxNearbyRadiusKm     = 500.0
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	quoteRepo    *repository.QuoteRequestRepository
	logger       *zap.Logger
}

func NewCustomerService(
	customerRepo *repository.CustomerRepository,
	quoteRepo *repository.QuoteRequestRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		quoteRepo:    quoteRepo,
		logger:       logger,
	}
}

func (s *CustomerService) checkCountry(userCtx *auth.UserContext, country string) error {
	if !userCtx.CanAccessCountry(country) {
		return ErrPermissionDenied
	}
	return nil
}

func applyCustomerRequest(c *domain.Customer, req *domain.CreateCustomerRequest) {
	c.Name = strings.TrimSpace(req.Name)
	c.Country = strings.TrimSpace(req.Country)
	c.Address = req.Address
	c.ContactName = req.ContactName
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = req.Phone
	c.Notes = req.Notes
}

func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	customer := &domain.Customer{}
	applyCustomerRequest(customer, req)
	if err := s.checkCountry(userCtx, customer.Country); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	s.logger.Info("customer created",
		zap.String("customerId", customer.ID.String()),
		zap.String("name", customer.Name),
		zap.String("country", customer.Country))

	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCustomerNotFound, "get customer")
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) List(ctx context.Context, page, pageSize int, search, country string) (*domain.PaginatedResponse, error) {
	page, pageSize = normalizePagination(page, pageSize)

	customers, total, err := s.customerRepo.List(ctx, page, pageSize, search, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = mapper.ToCustomerDTO(&customers[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCustomerNotFound, "get customer")
	}
	applyCustomerRequest(customer, req)
	if err := s.checkCountry(userCtx, customer.Country); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

// Delete removes a customer and its jobsites. Customers still linked to quote
// requests are kept.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireWriter(ctx); err != nil {
		return err
	}
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrCustomerNotFound, "get customer")
	}
	refs, err := s.quoteRepo.CountByCustomer(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to count quote requests: %w", err)
	}
	if refs > 0 {
		return ErrCustomerInUse
	}
	if err := s.customerRepo.Delete(ctx, customer.ID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	s.logger.Info("customer deleted", zap.String("customerId", customer.ID.String()), zap.String("name", customer.Name))
	return nil
}

func (s *CustomerService) ListJobsites(ctx context.Context, customerID uuid.UUID) ([]domain.JobsiteDTO, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, notFoundOr(err, ErrCustomerNotFound, "get customer")
	}
	jobsites, err := s.customerRepo.ListJobsites(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobsites: %w", err)
	}
	dtos := make([]domain.JobsiteDTO, len(jobsites))
	for i := range jobsites {
		dtos[i] = mapper.ToJobsiteDTO(&jobsites[i])
	}
	return dtos, nil
}

func applyJobsiteRequest(j *domain.Jobsite, req *domain.CreateJobsiteRequest) error {
	if !geo.Valid(req.Latitude, req.Longitude) {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	j.Name = strings.TrimSpace(req.Name)
	j.Address = req.Address
	j.Latitude = req.Latitude
	j.Longitude = req.Longitude
	return nil
}

func (s *CustomerService) CreateJobsite(ctx context.Context, customerID uuid.UUID, req *domain.CreateJobsiteRequest) (*domain.JobsiteDTO, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, ErrCustomerNotFound, "get customer")
	}

	jobsite := &domain.Jobsite{CustomerID: customer.ID}
	if err := applyJobsiteRequest(jobsite, req); err != nil {
		return nil, err
	}
	if err := s.customerRepo.CreateJobsite(ctx, jobsite); err != nil {
		return nil, fmt.Errorf("failed to create jobsite: %w", err)
	}

	dto := mapper.ToJobsiteDTO(jobsite)
	return &dto, nil
}

// loadJobsite returns a jobsite whose customer is visible to the caller
func (s *CustomerService) loadJobsite(ctx context.Context, id uuid.UUID) (*domain.Jobsite, error) {
	jobsite, err := s.customerRepo.GetJobsite(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrJobsiteNotFound, "get jobsite")
	}
	if _, err := s.customerRepo.GetByID(ctx, jobsite.CustomerID); err != nil {
		return nil, notFoundOr(err, ErrJobsiteNotFound, "get customer")
	}
	return jobsite, nil
}

func (s *CustomerService) UpdateJobsite(ctx context.Context, id uuid.UUID, req *domain.UpdateJobsiteRequest) (*domain.JobsiteDTO, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	jobsite, err := s.loadJobsite(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyJobsiteRequest(jobsite, req); err != nil {
		return nil, err
	}
	if err := s.customerRepo.UpdateJobsite(ctx, jobsite); err != nil {
		return nil, fmt.Errorf("failed to update jobsite: %w", err)
	}
	dto := mapper.ToJobsiteDTO(jobsite)
	return &dto, nil
}

func (s *CustomerService) DeleteJobsite(ctx context.Context, id uuid.UUID) error {
	if _, err := requireWriter(ctx); err != nil {
		return err
	}
	jobsite, err := s.loadJobsite(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.DeleteJobsite(ctx, jobsite.ID); err != nil {
		return fmt.Errorf("failed to delete jobsite: %w", err)
	}
	return nil
}

// Nearby lists visible jobsites within radiusKm of a point, nearest first.
// A zero radius falls back to the default.
func (s *CustomerService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]domain.JobsiteDTO, error) {
	if !geo.Valid(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		return nil, fmt.Errorf("%w: radius must not exceed %.0f km", ErrInvalidInput, maxNearbyRadiusKm)
	}

	center := geo.Point(lat, lng)
	box := geo.Bounds(center, radiusKm)
	candidates, err := s.customerRepo.ListJobsitesInBox(ctx, box.Min.Lat(), box.Max.Lat(), box.Min.Lon(), box.Max.Lon())
	if err != nil {
		return nil, fmt.Errorf("failed to list jobsites: %w", err)
	}

	matches := geo.Nearby(candidates, center, radiusKm)
	dtos := make([]domain.JobsiteDTO, len(matches))
	for i := range matches {
		dtos[i] = mapper.ToJobsiteDTO(&matches[i].Jobsite)
		d := matches[i].DistanceKm
		dtos[i].DistanceKm = &d
	}
	return dtos, nil
}
