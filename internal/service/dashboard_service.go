package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// healConcurrency bounds parallel write-backs while building the board
const healConcurrency = 4

const reconcileBatchSize = 200

type DashboardService struct {
	quoteRepo  *repository.QuoteRequestRepository
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewDashboardService(
	quoteRepo *repository.QuoteRequestRepository,
	reconciler *Reconciler,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		quoteRepo:  quoteRepo,
		reconciler: reconciler,
		logger:     logger,
	}
}

// loadVisible fetches the visible quote requests and the special label index concurrently
func (s *DashboardService) loadVisible(ctx context.Context, filters *repository.QuoteRequestFilters) ([]domain.QuoteRequest, labeling.SpecialLabels, error) {
	var requests []domain.QuoteRequest
	var special labeling.SpecialLabels

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = s.quoteRepo.ListVisible(gctx, filters)
		if err != nil {
			return fmt.Errorf("failed to list quote requests: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		special, err = s.reconciler.SpecialLabels(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return requests, special, nil
}

// Kanban classifies the visible quote requests into the four dashboard
// columns, healing each on the way. Columns keep the newest first.
func (s *DashboardService) Kanban(ctx context.Context, filters *repository.QuoteRequestFilters) (*domain.KanbanBoardDTO, error) {
	requests, special, err := s.loadVisible(ctx, filters)
	if err != nil {
		return nil, err
	}

	var healed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(healConcurrency)
	for i := range requests {
		qr := &requests[i]
		g.Go(func() error {
			if written, _ := s.reconciler.Heal(ctx, qr, special); written {
				healed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	board := &domain.KanbanBoardDTO{
		UrgentOrProblems: []domain.QuoteRequestDTO{},
		Waiting:          []domain.QuoteRequestDTO{},
		Standard:         []domain.QuoteRequestDTO{},
		Snoozed:          []domain.QuoteRequestDTO{},
		Reconciled:       int(healed.Load()),
	}
	for i := range requests {
		dto := mapper.ToQuoteRequestDTO(&requests[i], special)
		switch labeling.Bucket(dto.Bucket) {
		case labeling.BucketSnoozed:
			board.Snoozed = append(board.Snoozed, dto)
		case labeling.BucketUrgentOrProblems:
			board.UrgentOrProblems = append(board.UrgentOrProblems, dto)
		case labeling.BucketWaiting:
			board.Waiting = append(board.Waiting, dto)
		default:
			board.Standard = append(board.Standard, dto)
		}
	}

	s.logger.Debug("kanban board built",
		zap.Int("requests", len(requests)),
		zap.Int("reconciled", board.Reconciled))
	return board, nil
}

// ReconcileAll heals every stored quote request. Admin only.
func (s *DashboardService) ReconcileAll(ctx context.Context) (*domain.ReconcileAllResultDTO, error) {
	userCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	special, err := s.reconciler.SpecialLabels(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.ReconcileAllResultDTO{}
	err = s.quoteRepo.ForEachBatch(ctx, reconcileBatchSize, func(batch []domain.QuoteRequest) error {
		for i := range batch {
			result.Scanned++
			written, err := s.reconciler.Heal(ctx, &batch[i], special)
			switch {
			case err != nil:
				result.Failed++
			case written:
				result.Healed++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan quote requests: %w", err)
	}

	s.logger.Info("reconciled all quote requests",
		zap.Int("scanned", result.Scanned),
		zap.Int("healed", result.Healed),
		zap.Int("failed", result.Failed),
		zap.String("triggeredBy", userCtx.Email))
	return result, nil
}

// Analytics aggregates the visible quote requests by status, bucket and creator country
func (s *DashboardService) Analytics(ctx context.Context) (*domain.AnalyticsSummaryDTO, error) {
	requests, special, err := s.loadVisible(ctx, nil)
	if err != nil {
		return nil, err
	}

	summary := &domain.AnalyticsSummaryDTO{
		ByStatus:  make(map[string]int64, len(domain.QuoteStatuses)),
		ByBucket:  make(map[string]int64, len(labeling.Buckets)),
		ByCountry: []domain.CountryAnalyticsDTO{},
	}
	for _, st := range domain.QuoteStatuses {
		summary.ByStatus[string(st)] = 0
	}
	for _, b := range labeling.Buckets {
		summary.ByBucket[string(b)] = 0
	}

	countryIndex := make(map[string]int)
	for i := range requests {
		qr := &requests[i]
		summary.Total++
		summary.ByStatus[string(qr.Status)]++
		summary.ByBucket[string(labeling.Classify(qr, special))]++

		idx, ok := countryIndex[qr.CreatorCountry]
		if !ok {
			idx = len(summary.ByCountry)
			countryIndex[qr.CreatorCountry] = idx
			summary.ByCountry = append(summary.ByCountry, domain.CountryAnalyticsDTO{Country: qr.CreatorCountry})
		}
		c := &summary.ByCountry[idx]
		c.Total++
		switch qr.Status {
		case domain.QuoteStatusWon:
			c.Won++
		case domain.QuoteStatusLost:
			c.Lost++
		case domain.QuoteStatusCancelled:
		default:
			c.Open++
		}
	}

	won := summary.ByStatus[string(domain.QuoteStatusWon)]
	lost := summary.ByStatus[string(domain.QuoteStatusLost)]
	if won+lost > 0 {
		summary.WinRate = float64(won) / float64(won+lost)
	}
	return summary, nil
}
