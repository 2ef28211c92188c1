package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LabelService struct {
	labelRepo *repository.LabelRepository
	quoteRepo *repository.QuoteRequestRepository
	logger    *zap.Logger
	db        *gorm.DB
}

func NewLabelService(
	labelRepo *repository.LabelRepository,
	quoteRepo *repository.QuoteRequestRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *LabelService {
	return &LabelService{
		labelRepo: labelRepo,
		quoteRepo: quoteRepo,
		logger:    logger,
		db:        db,
	}
}

func (s *LabelService) List(ctx context.Context) ([]domain.LabelDTO, error) {
	labels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	dtos := make([]domain.LabelDTO, len(labels))
	for i := range labels {
		dtos[i] = mapper.ToLabelDTO(&labels[i])
	}
	return dtos, nil
}

// checkKindFree fails when another label already holds a system kind
func (s *LabelService) checkKindFree(ctx context.Context, kind domain.LabelKind, self uuid.UUID) error {
	if kind == domain.LabelKindNone {
		return nil
	}
	existing, err := s.labelRepo.GetByKind(ctx, kind)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check label kind: %w", err)
	}
	if existing.ID != self {
		return ErrLabelKindTaken
	}
	return nil
}

func (s *LabelService) Create(ctx context.Context, req *domain.CreateLabelRequest) (*domain.LabelDTO, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown label kind %q", ErrInvalidInput, req.Kind)
	}
	if err := s.checkKindFree(ctx, req.Kind, uuid.Nil); err != nil {
		return nil, err
	}

	label := &domain.Label{
		Name:  strings.TrimSpace(req.Name),
		Color: req.Color,
		Kind:  req.Kind,
	}
	if err := s.labelRepo.Create(ctx, label); err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	s.logger.Info("label created",
		zap.String("labelId", label.ID.String()),
		zap.String("name", label.Name),
		zap.String("kind", string(label.Kind)))

	dto := mapper.ToLabelDTO(label)
	return &dto, nil
}

func (s *LabelService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLabelRequest) (*domain.LabelDTO, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown label kind %q", ErrInvalidInput, req.Kind)
	}
	label, err := s.labelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrLabelNotFound, "get label")
	}
	if err := s.checkKindFree(ctx, req.Kind, label.ID); err != nil {
		return nil, err
	}

	label.Name = strings.TrimSpace(req.Name)
	label.Color = req.Color
	label.Kind = req.Kind
	if err := s.labelRepo.Update(ctx, label); err != nil {
		return nil, fmt.Errorf("failed to update label: %w", err)
	}

	dto := mapper.ToLabelDTO(label)
	return &dto, nil
}

// Delete removes a label and detaches it from every quote request
func (s *LabelService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	label, err := s.labelRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrLabelNotFound, "get label")
	}
	lid := label.ID.String()

	detached := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quoteRepo := s.quoteRepo.WithTx(tx)
		err := quoteRepo.ForEachBatch(ctx, reconcileBatchSize, func(batch []domain.QuoteRequest) error {
			for _, qr := range batch {
				if !qr.HasLabel(lid) {
					continue
				}
				kept := slices.DeleteFunc(slices.Clone([]string(qr.Labels)), func(v string) bool { return v == lid })
				if err := quoteRepo.ReplaceLabels(ctx, qr.ID, kept); err != nil {
					return err
				}
				detached++
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.labelRepo.WithTx(tx).Delete(ctx, label.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}

	s.logger.Info("label deleted",
		zap.String("labelId", lid),
		zap.String("name", label.Name),
		zap.Int("quoteRequestsUpdated", detached))
	return nil
}

// FixDuplicates merges labels whose normalized names collide. The oldest label
// of each group is kept and every quote request is rewritten to reference it.
// Labels with a special name but no kind get the matching system kind when it
// is still free. Admin only.
func (s *LabelService) FixDuplicates(ctx context.Context) (*domain.FixDuplicateLabelsResultDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.FixDuplicateLabelsResultDTO{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		labelRepo := s.labelRepo.WithTx(tx)
		quoteRepo := s.quoteRepo.WithTx(tx)

		labels, err := labelRepo.List(ctx)
		if err != nil {
			return err
		}
		plan := planLabelMerge(labels)

		if len(plan.replace) > 0 {
			err = quoteRepo.ForEachBatch(ctx, reconcileBatchSize, func(batch []domain.QuoteRequest) error {
				for _, qr := range batch {
					rewritten, changed := rewriteLabels(qr.Labels, plan.replace)
					if !changed {
						continue
					}
					if err := quoteRepo.ReplaceLabels(ctx, qr.ID, rewritten); err != nil {
						return err
					}
					result.QuoteRequestsUpdated++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		removed, err := labelRepo.DeleteMany(ctx, plan.duplicates)
		if err != nil {
			return err
		}
		result.DuplicatesRemoved = int(removed)

		for _, a := range plan.kinds {
			if err := labelRepo.SetKind(ctx, a.id, a.kind); err != nil {
				return err
			}
			result.KindsAssigned++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fix duplicate labels: %w", err)
	}

	s.logger.Info("duplicate labels fixed",
		zap.Int("duplicatesRemoved", result.DuplicatesRemoved),
		zap.Int("quoteRequestsUpdated", result.QuoteRequestsUpdated),
		zap.Int("kindsAssigned", result.KindsAssigned),
		zap.String("triggeredBy", userCtx.Email))
	return result, nil
}

type kindAssignment struct {
	id   uuid.UUID
	kind domain.LabelKind
}

type labelMergePlan struct {
	// replace maps a duplicate label ID to the ID of the label that absorbs it
	replace    map[string]string
	duplicates []uuid.UUID
	kinds      []kindAssignment
}

// planLabelMerge groups labels (oldest first) by normalized name. The first of
// each group is the keeper; it inherits the first kind found in its group.
func planLabelMerge(labels []domain.Label) labelMergePlan {
	plan := labelMergePlan{replace: make(map[string]string)}

	keepers := make(map[string]*domain.Label)
	var order []string
	inherited := make(map[uuid.UUID]domain.LabelKind)
	for i := range labels {
		l := &labels[i]
		name := labeling.NormalizeName(l.Name)
		keeper, ok := keepers[name]
		if !ok {
			keepers[name] = l
			order = append(order, name)
			continue
		}
		plan.replace[l.ID.String()] = keeper.ID.String()
		plan.duplicates = append(plan.duplicates, l.ID)
		if keeper.Kind == domain.LabelKindNone && l.Kind != domain.LabelKindNone {
			if _, set := inherited[keeper.ID]; !set {
				inherited[keeper.ID] = l.Kind
			}
		}
	}

	taken := make(map[domain.LabelKind]bool)
	for _, name := range order {
		if k := keepers[name].Kind; k != domain.LabelKindNone {
			taken[k] = true
		}
	}
	for _, name := range order {
		keeper := keepers[name]
		if keeper.Kind != domain.LabelKindNone {
			continue
		}
		kind, ok := inherited[keeper.ID]
		if !ok {
			kind, ok = labeling.LegacyKind(keeper.Name)
		}
		if !ok || taken[kind] {
			continue
		}
		taken[kind] = true
		plan.kinds = append(plan.kinds, kindAssignment{id: keeper.ID, kind: kind})
	}
	return plan
}

// rewriteLabels maps duplicates to their keepers and drops repeated IDs
func rewriteLabels(ids []string, replace map[string]string) ([]string, bool) {
	out := make([]string, 0, len(ids))
	changed := false
	for _, id := range ids {
		if keeper, ok := replace[id]; ok {
			id = keeper
			changed = true
		}
		if slices.Contains(out, id) {
			changed = true
			continue
		}
		out = append(out, id)
	}
	return out, changed
}
