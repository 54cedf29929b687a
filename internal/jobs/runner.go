// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atoms-tech/requirements-engine/internal/analysis"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// jobTimeout bounds one background analysis run.
const jobTimeout = 10 * time.Minute

// Runner executes queued analysis jobs in background goroutines.
type Runner struct {
	store    *Store
	analyzer *analysis.Analyzer
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a Runner over the given store and analyzer.
func NewRunner(store *Store, analyzer *analysis.Analyzer, logger *zap.Logger) *Runner {
	return &Runner{store: store, analyzer: analyzer, logger: logger}
}

// Start records a QUEUED job, launches its analysis in the background,
// and returns immediately. Expired jobs are pruned opportunistically.
func (r *Runner) Start(ctx context.Context, req *types.AnalysisRequest) (*types.Job, error) {
	if pruned, err := r.store.Prune(ctx); err != nil {
		r.logger.Warn("job prune failed", zap.Error(err))
	} else if pruned > 0 {
		r.logger.Info("pruned expired jobs", zap.Int64("count", pruned))
	}

	job, err := r.store.Create(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(job.RunID, req)
	}()

	return job, nil
}

// Wait blocks until all in-flight jobs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(runID string, req *types.AnalysisRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := r.logger.With(
		zap.String("run_id", runID),
		zap.String("organization_id", req.OrganizationID),
	)
	log.Info("starting analysis job")

	if err := r.store.MarkRunning(ctx, runID); err != nil {
		log.Error("marking job running failed", zap.Error(err))
		return
	}

	result, err := r.analyzer.Run(ctx, req)
	if err != nil {
		log.Error("analysis job failed", zap.Error(err))
		if ferr := r.store.Fail(ctx, runID, err.Error()); ferr != nil {
			log.Error("recording job failure failed", zap.Error(ferr))
		}
		return
	}

	if err := r.store.Complete(ctx, runID, result); err != nil {
		log.Error("recording job result failed", zap.Error(err))
		return
	}
	log.Info("analysis job completed")
}
