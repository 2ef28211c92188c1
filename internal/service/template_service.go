package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

// TemplateService manages reusable quote request templates
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	labelRepo    *repository.LabelRepository
	quotes       *QuoteRequestService
	logger       *zap.Logger
}

func NewTemplateService(
	templateRepo *repository.TemplateRepository,
	labelRepo *repository.LabelRepository,
	quotes *QuoteRequestService,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		labelRepo:    labelRepo,
		quotes:       quotes,
		logger:       logger,
	}
}

// List returns shared templates plus those of country. Non-admins must have
// access to the requested country.
func (s *TemplateService) List(ctx context.Context, country string) ([]domain.TemplateDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if country != "" && !userCtx.CanAccessCountry(country) {
		return nil, ErrPermissionDenied
	}
	if country == "" && !userCtx.SeesAllCountries() {
		country = userCtx.PrimaryCountry()
	}

	templates, err := s.templateRepo.List(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	dtos := make([]domain.TemplateDTO, len(templates))
	for i := range templates {
		dtos[i] = mapper.ToTemplateDTO(&templates[i])
	}
	return dtos, nil
}

func (s *TemplateService) Create(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.TemplateDTO, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	country := strings.TrimSpace(req.CreatorCountry)
	if country != "" && !userCtx.CanAccessCountry(country) {
		return nil, ErrPermissionDenied
	}

	allLabels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	labels, err := knownLabels(req.Labels, allLabels)
	if err != nil {
		return nil, err
	}

	template := &domain.Template{
		Name:           strings.TrimSpace(req.Name),
		CreatorCountry: country,
		Products:       req.Products,
		Notes:          req.Notes,
		Labels:         labels,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	s.logger.Info("template created", zap.String("templateId", template.ID.String()), zap.String("name", template.Name))

	dto := mapper.ToTemplateDTO(template)
	return &dto, nil
}

func (s *TemplateService) load(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrTemplateNotFound, "get template")
	}
	if template.CreatorCountry != "" && !userCtx.CanAccessCountry(template.CreatorCountry) {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireWriter(ctx); err != nil {
		return err
	}
	template, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.templateRepo.Delete(ctx, template.ID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.logger.Info("template deleted", zap.String("templateId", template.ID.String()))
	return nil
}

// CreateQuoteRequest starts a new quote request from a template. The template
// supplies products, labels and the initial note; the request supplies the rest.
func (s *TemplateService) CreateQuoteRequest(ctx context.Context, id uuid.UUID, req *domain.CreateFromTemplateRequest) (*domain.QuoteRequestDTO, error) {
	userCtx, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	template, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	creator := strings.TrimSpace(req.CreatorCountry)
	if creator == "" {
		creator = template.CreatorCountry
	}
	if creator == "" {
		creator = userCtx.PrimaryCountry()
	}

	// labels deleted since the template was saved are dropped
	allLabels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	labels := make([]string, 0, len(template.Labels))
	for _, l := range allLabels {
		if slices.Contains(template.Labels, l.ID.String()) {
			labels = append(labels, l.ID.String())
		}
	}

	return s.quotes.Create(ctx, &domain.CreateQuoteRequestRequest{
		Title:           req.Title,
		CreatorCountry:  creator,
		InvolvedCountry: req.InvolvedCountry,
		CustomerName:    req.CustomerName,
		Status:          domain.QuoteStatusNew,
		Labels:          labels,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Products:        append([]domain.Product(nil), template.Products...),
		Notes:           template.Notes,
	})
}
