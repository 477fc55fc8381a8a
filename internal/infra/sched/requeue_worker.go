package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/usecase"
)

// RequeueWorker re-offers pending jobs whose queue entry was lost (process
// crash, dropped submit, Redis flush). The job row is the source of truth;
// this sweep closes the gap between row and queue.
type RequeueWorker struct {
	interval time.Duration
	limit    int
	jobUC    usecase.JobUseCase
	log      *zerolog.Logger
}

func NewRequeueWorker(interval time.Duration, limit int, jobUC usecase.JobUseCase, logger *zerolog.Logger) *RequeueWorker {
	l := logger.With().Str("component", "RequeueWorker").Logger()
	return &RequeueWorker{interval: interval, limit: limit, jobUC: jobUC, log: &l}
}

func (w *RequeueWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("starting requeue worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping requeue worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.jobUC.RequeueStale(ctx, w.limit); err != nil {
				w.log.Error().Err(err).Msg("requeue sweep error")
			}
		}
	}
}
