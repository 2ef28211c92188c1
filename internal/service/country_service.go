package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CountryService manages the country registry. Countries are referenced by
// name across the data set, so a rename rewrites every reference.
type CountryService struct {
	countryRepo      *repository.CountryRepository
	quoteRepo        *repository.QuoteRequestRepository
	userRepo         *repository.UserRepository
	customerRepo     *repository.CustomerRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
	db               *gorm.DB
}

func NewCountryService(
	countryRepo *repository.CountryRepository,
	quoteRepo *repository.QuoteRequestRepository,
	userRepo *repository.UserRepository,
	customerRepo *repository.CustomerRepository,
	notificationRepo *repository.NotificationRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *CountryService {
	return &CountryService{
		countryRepo:      countryRepo,
		quoteRepo:        quoteRepo,
		userRepo:         userRepo,
		customerRepo:     customerRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		db:               db,
	}
}

func (s *CountryService) List(ctx context.Context) ([]domain.CountryDTO, error) {
	countries, err := s.countryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	dtos := make([]domain.CountryDTO, len(countries))
	for i := range countries {
		dtos[i] = mapper.ToCountryDTO(&countries[i])
	}
	return dtos, nil
}

func (s *CountryService) nameTaken(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.countryRepo.GetByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check country name: %w", err)
	}
	if existing.ID != self {
		return ErrCountryExists
	}
	return nil
}

func (s *CountryService) Create(ctx context.Context, req *domain.CreateCountryRequest) (*domain.CountryDTO, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: country name is required", ErrInvalidInput)
	}
	if err := s.nameTaken(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	country := &domain.Country{Name: name, Code: strings.ToUpper(strings.TrimSpace(req.Code))}
	if err := s.countryRepo.Create(ctx, country); err != nil {
		return nil, fmt.Errorf("failed to create country: %w", err)
	}
	s.logger.Info("country created", zap.String("countryId", country.ID.String()), zap.String("name", country.Name))

	dto := mapper.ToCountryDTO(country)
	return &dto, nil
}

// Update changes a country's name or code. A new name is cascaded to quote
// requests, users, customers, notification settings and notifications inside
// one transaction.
func (s *CountryService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCountryRequest) (*domain.CountryRenameResultDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	country, err := s.countryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCountryNotFound, "get country")
	}

	newName := strings.TrimSpace(req.Name)
	if newName == "" {
		return nil, fmt.Errorf("%w: country name is required", ErrInvalidInput)
	}
	if err := s.nameTaken(ctx, newName, country.ID); err != nil {
		return nil, err
	}

	oldName := country.Name
	result := &domain.CountryRenameResultDTO{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		country.Name = newName
		country.Code = strings.ToUpper(strings.TrimSpace(req.Code))
		if err := s.countryRepo.WithTx(tx).Update(ctx, country); err != nil {
			return err
		}
		if oldName == newName {
			return nil
		}

		var err error
		if result.QuoteRequestsUpdated, err = s.quoteRepo.WithTx(tx).RenameCountry(ctx, oldName, newName); err != nil {
			return fmt.Errorf("quote requests: %w", err)
		}
		if result.UsersUpdated, err = s.userRepo.WithTx(tx).RenameCountry(ctx, oldName, newName); err != nil {
			return fmt.Errorf("users: %w", err)
		}
		if result.CustomersUpdated, err = s.customerRepo.WithTx(tx).RenameCountry(ctx, oldName, newName); err != nil {
			return fmt.Errorf("customers: %w", err)
		}
		notificationRepo := s.notificationRepo.WithTx(tx)
		if result.SettingsUpdated, err = notificationRepo.RenameSettingsCountry(ctx, oldName, newName); err != nil {
			return fmt.Errorf("notification settings: %w", err)
		}
		if result.NotificationsUpdated, err = notificationRepo.RenameCountry(ctx, oldName, newName); err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update country: %w", err)
	}

	result.Country = mapper.ToCountryDTO(country)
	if oldName != newName {
		s.logger.Info("country renamed",
			zap.String("countryId", country.ID.String()),
			zap.String("from", oldName),
			zap.String("to", newName),
			zap.Int64("quoteRequests", result.QuoteRequestsUpdated),
			zap.Int64("users", result.UsersUpdated),
			zap.Int64("customers", result.CustomersUpdated),
			zap.Int64("settings", result.SettingsUpdated),
			zap.Int64("notifications", result.NotificationsUpdated),
			zap.String("renamedBy", userCtx.Email))
	}
	return result, nil
}

// Delete removes a country that no quote request references
func (s *CountryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	country, err := s.countryRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrCountryNotFound, "get country")
	}
	inUse, err := s.quoteRepo.CountByCountry(ctx, country.Name)
	if err != nil {
		return fmt.Errorf("failed to count quote requests: %w", err)
	}
	if inUse > 0 {
		return ErrCountryInUse
	}
	if err := s.countryRepo.Delete(ctx, country.ID); err != nil {
		return fmt.Errorf("failed to delete country: %w", err)
	}
	s.logger.Info("country deleted", zap.String("countryId", country.ID.String()), zap.String("name", country.Name))
	return nil
}
