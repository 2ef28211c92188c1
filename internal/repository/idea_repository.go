package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"gorm.io/gorm"
)

type IdeaRepository struct {
	db *gorm.DB
}

func NewIdeaRepository(db *gorm.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

func (r *IdeaRepository) Create(ctx context.Context, idea *domain.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *IdeaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	var idea domain.Idea
	err := r.db.WithContext(ctx).First(&idea, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// List returns ideas ordered by popularity, then recency
func (r *IdeaRepository) List(ctx context.Context, status string) ([]domain.Idea, error) {
	var ideas []domain.Idea
	query := r.db.WithContext(ctx).Model(&domain.Idea{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("like_count DESC, created_at DESC").Find(&ideas).Error
	return ideas, err
}

func (r *IdeaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IdeaStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Idea{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// LikedBy returns the IDs of ideas the user has liked
func (r *IdeaRepository) LikedBy(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.IdeaLike{}).
		Where("user_id = ?", userID).
		Pluck("idea_id", &ids).Error
	if err != nil {
		return nil, err
	}
	liked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// Like records a vote and bumps the counter. It reports false when the user
// had already liked the idea.
func (r *IdeaRepository) Like(ctx context.Context, ideaID, userID uuid.UUID) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.IdeaLike{}).
			Where("idea_id = ? AND user_id = ?", ideaID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&domain.IdeaLike{IdeaID: ideaID, UserID: userID}).Error; err != nil {
			return err
		}
		added = true
		return tx.Model(&domain.Idea{}).
			Where("id = ?", ideaID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	return added, err
}

// Unlike removes a vote. It reports false when there was none.
func (r *IdeaRepository) Unlike(ctx context.Context, ideaID, userID uuid.UUID) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.IdeaLike{}, "idea_id = ? AND user_id = ?", ideaID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&domain.Idea{}).
			Where("id = ? AND like_count > 0", ideaID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	return removed, err
}
