package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity is a verified identity-provider account
type Identity = auth.Identity

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Bootstrap resolves the profile for a signed-in identity. Profiles are found by
// UID first, then by email (claiming pre-provisioned profiles), and are created
// with the default role and no countries otherwise.
func (s *UserService) Bootstrap(ctx context.Context, id Identity) (*domain.UserProfile, error) {
	if id.UID == "" {
		return nil, fmt.Errorf("%w: identity has no uid", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByUID(ctx, id.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get user by uid: %w", err)
	}

	if id.Email != "" {
		user, err = s.userRepo.GetByEmail(ctx, id.Email)
		switch {
		case err == nil:
			if user.UID != nil && *user.UID != id.UID {
				s.logger.Warn("email already linked to another account",
					zap.String("userId", user.ID.String()),
					zap.String("email", user.Email))
				return nil, ErrConflict
			}
			if err := s.userRepo.AttachUID(ctx, user.ID, id.UID); err != nil {
				return nil, fmt.Errorf("failed to attach uid: %w", err)
			}
			uid := id.UID
			user.UID = &uid
			s.logger.Info("user profile linked", zap.String("userId", user.ID.String()), zap.String("email", user.Email))
			return user, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	uid := id.UID
	user = &domain.UserProfile{
		UID:       &uid,
		Email:     strings.ToLower(strings.TrimSpace(id.Email)),
		Name:      id.Name,
		Role:      domain.RoleUser,
		Countries: []string{},
	}
	if user.Email == "" {
		user.Email = uid
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent sign-in
		if existing, getErr := s.userRepo.GetByUID(ctx, id.UID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	s.logger.Info("user profile created", zap.String("userId", user.ID.String()), zap.String("email", user.Email))
	return user, nil
}

// Me describes the caller. API-key callers have no profile.
func (s *UserService) Me(ctx context.Context) (*domain.MeDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	me := &domain.MeDTO{
		User: domain.SessionUserDTO{
			UID:   userCtx.UID,
			Email: userCtx.Email,
			Name:  userCtx.DisplayName,
		},
	}
	if userCtx.IsSystem || userCtx.UserID == uuid.Nil {
		return me, nil
	}

	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "get user")
	}
	dto := mapper.ToUserProfileDTO(user)
	me.UserProfile = &dto
	return me, nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := s.userRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserProfileDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserProfileDTO(&users[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// Update changes a profile's role, countries, business unit or name.
// Super admin only; the last super admin cannot be demoted.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserProfileDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "get user")
	}

	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		if user.Role == domain.RoleSuperAdmin && *req.Role != domain.RoleSuperAdmin {
			count, err := s.userRepo.CountByRole(ctx, domain.RoleSuperAdmin)
			if err != nil {
				return nil, fmt.Errorf("failed to count super admins: %w", err)
			}
			if count <= 1 {
				return nil, ErrCannotRemoveLastSuperAdmin
			}
		}
		user.Role = *req.Role
	}
	if req.Countries != nil {
		user.Countries = normalizeCountries(req.Countries)
	}
	if req.BusinessUnit != nil {
		user.BusinessUnit = strings.TrimSpace(*req.BusinessUnit)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user profile updated",
		zap.String("userId", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.Strings("countries", user.Countries),
		zap.String("updatedBy", userCtx.Email))

	dto := mapper.ToUserProfileDTO(user)
	return &dto, nil
}

func normalizeCountries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
