package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/infra/metrics"
	"fitness-ai-planner/internal/usecase"
)

// CleanupWorker periodically deletes terminal jobs past retention.
type CleanupWorker struct {
	interval time.Duration
	jobUC    usecase.JobUseCase
	log      *zerolog.Logger
}

func NewCleanupWorker(interval time.Duration, jobUC usecase.JobUseCase, logger *zerolog.Logger) *CleanupWorker {
	l := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{interval: interval, jobUC: jobUC, log: &l}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.jobUC.CleanupOld(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("cleanup sweep error")
			}
			if n > 0 {
				metrics.AddJobsCleaned(n)
			}
		}
	}
}
