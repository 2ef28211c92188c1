package service

import (
	"context"
	"fmt"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/labeling"
	"github.com/loxconnect/connect-api/internal/metrics"
	"github.com/loxconnect/connect-api/internal/repository"
	"go.uber.org/zap"
)

// Reconciler heals the flag and label representations of quote requests as
// they are read. Write-back failures are logged and counted and never fail
// the read that triggered them.
type Reconciler struct {
	quoteRepo *repository.QuoteRequestRepository
	labelRepo *repository.LabelRepository
	logger    *zap.Logger
}

func NewReconciler(
	quoteRepo *repository.QuoteRequestRepository,
	labelRepo *repository.LabelRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		quoteRepo: quoteRepo,
		labelRepo: labelRepo,
		logger:    logger,
	}
}

// SpecialLabels loads the label set and resolves the system label index
func (r *Reconciler) SpecialLabels(ctx context.Context) (labeling.SpecialLabels, error) {
	labels, err := r.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return labeling.Resolve(labels), nil
}

// Heal reconciles qr in memory and, when the stored form differs, writes the
// healed form back conditionally. It reports whether a row was written. The
// returned error has already been logged; read paths may ignore it.
func (r *Reconciler) Heal(ctx context.Context, qr *domain.QuoteRequest, special labeling.SpecialLabels) (bool, error) {
	res := labeling.Reconcile(qr, special)
	if !res.Changed {
		return false, nil
	}

	expected := repository.FlagStateOf(qr)
	res.Apply(qr)

	written, err := r.quoteRepo.WriteFlags(ctx, qr, expected)
	if err != nil {
		metrics.ReconcileWrites.WithLabelValues("failed").Inc()
		r.logger.Warn("failed to write back reconciled flags",
			zap.String("quoteRequestId", qr.ID.String()),
			zap.Error(err))
		return false, err
	}
	if !written {
		metrics.ReconcileWrites.WithLabelValues("conflict").Inc()
		r.logger.Debug("reconcile write-back skipped, row changed concurrently",
			zap.String("quoteRequestId", qr.ID.String()))
		return false, nil
	}

	metrics.ReconcileWrites.WithLabelValues("healed").Inc()
	r.logger.Info("healed quote request flags",
		zap.String("quoteRequestId", qr.ID.String()),
		zap.String("flags", res.Flags.String()))
	return true, nil
}
