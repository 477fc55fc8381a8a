package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/infra/metrics"
	"fitness-ai-planner/internal/usecase"
)

// RetryWorker periodically resets retryable failed jobs back to pending.
type RetryWorker struct {
	interval time.Duration
	limit    int
	jobUC    usecase.JobUseCase
	log      *zerolog.Logger
}

func NewRetryWorker(interval time.Duration, limit int, jobUC usecase.JobUseCase, logger *zerolog.Logger) *RetryWorker {
	l := logger.With().Str("component", "RetryWorker").Logger()
	return &RetryWorker{interval: interval, limit: limit, jobUC: jobUC, log: &l}
}

func (w *RetryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("starting retry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping retry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.jobUC.RetryFailed(ctx, w.limit)
			if err != nil {
				w.log.Error().Err(err).Msg("retry sweep error")
			}
			if n > 0 {
				metrics.AddJobsRetried(n)
			}
		}
	}
}
