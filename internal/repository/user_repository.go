package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	var user domain.UserProfile
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUID retrieves a profile by its identity-provider UID
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches the email case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at ASC").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AttachUID links an existing profile to an identity-provider account
func (r *UserRepository) AttachUID(ctx context.Context, id uuid.UUID, uid string) error {
	return r.db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("id = ?", id).
		Update("uid", uid).Error
}

func (r *UserRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.UserProfile, int64, error) {
	var users []domain.UserProfile
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.UserProfile{})
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("email ASC").Find(&users).Error

	return users, total, err
}

// CountByRole counts profiles holding a role
func (r *UserRepository) CountByRole(ctx context.Context, role domain.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserProfile{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// RenameCountry replaces a country in every user's country list
func (r *UserRepository) RenameCountry(ctx context.Context, from, to string) (int64, error) {
	var users []domain.UserProfile
	clause, args := jsonArrayContains(r.db, "countries", from)
	if err := r.db.WithContext(ctx).Where(clause, args...).Find(&users).Error; err != nil {
		return 0, err
	}

	var updated int64
	for _, u := range users {
		countries := make([]string, 0, len(u.Countries))
		seen := make(map[string]bool, len(u.Countries))
		for _, c := range u.Countries {
			if c == from {
				c = to
			}
			if seen[c] {
				continue
			}
			seen[c] = true
			countries = append(countries, c)
		}
		err := r.db.WithContext(ctx).
			Model(&domain.UserProfile{}).
			Where("id = ?", u.ID).
			UpdateColumn("countries", datatypes.JSONSlice[string](countries)).Error
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}
