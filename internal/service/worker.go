package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// RecalculationStore defines the methods the worker needs
type RecalculationStore interface {
	MarkRecalculationRequested(ctx context.Context, ids []string, at time.Time) error
}

// RecalculationWorker processes recalculation jobs
type RecalculationWorker struct {
	Store   RecalculationStore
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Constructor
func NewRecalculationWorker(store RecalculationStore, logger *zap.Logger, m *metrics.Metrics) *RecalculationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalculationWorker{Store: store, Logger: logger, Metrics: m}
}

// Process stamps the request time on every item of job. A returned error
// makes the queue retry the job.
func (w *RecalculationWorker) Process(ctx context.Context, job model.RecalculationJob) error {
	if len(job.CampaignItemIDs) == 0 {
		w.Logger.Warn("recalculation job without items", zap.String("job_id", job.ID))
		return nil
	}
	at := job.RequestedAt
	if at.IsZero() {
		at = time.Now()
	}

	if err := w.Store.MarkRecalculationRequested(ctx, job.CampaignItemIDs, at); err != nil {
		w.Metrics.IncRecalculation("retry")
		w.Logger.Warn("failed to mark recalculation", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.Metrics.IncRecalculation("processed")
	w.Logger.Info("recalculation requested",
		zap.String("job_id", job.ID),
		zap.String("record_id", job.RecordID),
		zap.Int("items", len(job.CampaignItemIDs)),
	)
	return nil
}
