package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"gorm.io/gorm"
)

const defaultPageSize = 20

// normalizePagination clamps page to >= 1 and pageSize to [1, MaxPageSize]
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	return page, pageSize
}

func paginated(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// notFoundOr maps gorm.ErrRecordNotFound to sentinel and wraps anything else
func notFoundOr(err error, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// actorEmail returns the email of the caller, or "system" for unauthenticated jobs
func actorEmail(ctx context.Context) string {
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.Email != "" {
		return userCtx.Email
	}
	return "system"
}

// requireUser returns the caller or ErrUnauthorized
func requireUser(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return userCtx, nil
}

// requireAdmin returns the caller if they are an admin or super admin
func requireAdmin(ctx context.Context) (*auth.UserContext, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// requireWriter returns the caller if their role allows mutations
func requireWriter(ctx context.Context) (*auth.UserContext, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.CanWrite() {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}
