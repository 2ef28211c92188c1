package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

// IdeaService handles the feature-idea board
type IdeaService struct {
	ideaRepo *repository.IdeaRepository
	logger   *zap.Logger
}

func NewIdeaService(ideaRepo *repository.IdeaRepository, logger *zap.Logger) *IdeaService {
	return &IdeaService{ideaRepo: ideaRepo, logger: logger}
}

func (s *IdeaService) List(ctx context.Context, status string) ([]domain.IdeaDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	ideas, err := s.ideaRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	liked, err := s.ideaRepo.LikedBy(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	dtos := make([]domain.IdeaDTO, len(ideas))
	for i := range ideas {
		dtos[i] = mapper.ToIdeaDTO(&ideas[i], liked[ideas[i].ID])
	}
	return dtos, nil
}

func (s *IdeaService) Create(ctx context.Context, req *domain.CreateIdeaRequest) (*domain.IdeaDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	idea := &domain.Idea{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      domain.IdeaStatusOpen,
		CreatedBy:   userCtx.Email,
	}
	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}
	s.logger.Info("idea created", zap.String("ideaId", idea.ID.String()), zap.String("createdBy", idea.CreatedBy))

	dto := mapper.ToIdeaDTO(idea, false)
	return &dto, nil
}

// Like adds the caller's like. Liking twice is a no-op.
func (s *IdeaService) Like(ctx context.Context, id uuid.UUID) (*domain.IdeaDTO, error) {
	return s.setLike(ctx, id, true)
}

// Unlike removes the caller's like. Unliking an idea not liked is a no-op.
func (s *IdeaService) Unlike(ctx context.Context, id uuid.UUID) (*domain.IdeaDTO, error) {
	return s.setLike(ctx, id, false)
}

func (s *IdeaService) setLike(ctx context.Context, id uuid.UUID, like bool) (*domain.IdeaDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if userCtx.UserID == uuid.Nil {
		return nil, ErrPermissionDenied
	}
	if _, err := s.ideaRepo.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, ErrIdeaNotFound, "get idea")
	}

	if like {
		_, err = s.ideaRepo.Like(ctx, id, userCtx.UserID)
	} else {
		_, err = s.ideaRepo.Unlike(ctx, id, userCtx.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update like: %w", err)
	}

	idea, err := s.ideaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrIdeaNotFound, "get idea")
	}
	dto := mapper.ToIdeaDTO(idea, like)
	return &dto, nil
}

func (s *IdeaService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IdeaStatus) (*domain.IdeaDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.IdeaStatusOpen, domain.IdeaStatusPlanned, domain.IdeaStatusDone, domain.IdeaStatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown idea status %q", ErrInvalidInput, status)
	}

	idea, err := s.ideaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrIdeaNotFound, "get idea")
	}
	if err := s.ideaRepo.UpdateStatus(ctx, idea.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update idea status: %w", err)
	}
	idea.Status = status

	liked, err := s.ideaRepo.LikedBy(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	dto := mapper.ToIdeaDTO(idea, liked[idea.ID])
	return &dto, nil
}
