package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/adapter"
	"fitness-ai-planner/internal/domain/ports/queue"
	"fitness-ai-planner/internal/domain/ports/repository"
	"fitness-ai-planner/internal/infra/metrics"
	"fitness-ai-planner/internal/usecase"
)

const msgRetryExhausted = "maximum retry attempts exceeded"

// Options bound a single generation attempt.
type Options struct {
	Temperature       float64
	MaxOutputTokens   int
	PromptTokenBudget int
	DequeueTimeout    time.Duration
}

// Processor consumes job ids from the queue and runs the execution
// pipeline. The pending->processing claim is a conditional database
// update, so overlapping consumers (including other instances) race
// safely: exactly one wins, the rest drop the id.
type Processor struct {
	jobs  repository.GenerationJobRepository
	users repository.UserRepository
	plans repository.PlanRepository
	queue queue.JobQueue
	ai    adapter.CompletionAdapter
	opts  Options
	log   *zerolog.Logger
}

func NewProcessor(
	jobs repository.GenerationJobRepository,
	users repository.UserRepository,
	plans repository.PlanRepository,
	q queue.JobQueue,
	ai adapter.CompletionAdapter,
	opts Options,
	logger *zerolog.Logger,
) *Processor {
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = 2 * time.Second
	}
	l := logger.With().Str("component", "Processor").Logger()
	return &Processor{jobs: jobs, users: users, plans: plans, queue: q, ai: ai, opts: opts, log: &l}
}

// Start blocks consuming the queue and handing jobs to the pool.
// Run it in a goroutine.
func (p *Processor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("job processor started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("job processor stopping")
			return
		default:
		}

		id, err := p.queue.Dequeue(ctx, p.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error().Err(err).Msg("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if depth, err := p.queue.Depth(ctx); err == nil {
			metrics.SetQueueDepth(depth)
		}
		if id == "" {
			continue
		}

		jobID := id
		if err := pool.Submit(func(ctx context.Context) error {
			p.Process(ctx, jobID)
			return nil
		}); err != nil {
			// Pool saturated: leave the job pending for the requeue sweep.
			p.log.Warn().Err(err).Str("job_id", jobID).Msg("submit rejected")
		}
	}
}

// Process runs one attempt of the execution pipeline for jobID.
func (p *Processor) Process(ctx context.Context, jobID string) {
	log := p.log.With().Str("job_id", jobID).Logger()

	job, err := p.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("job vanished before processing")
		} else {
			log.Error().Err(err).Msg("job load failed")
		}
		return
	}
	if job.Status != model.JobStatusPending {
		log.Debug().Str("status", string(job.Status)).Msg("job not pending, skipping")
		return
	}

	// Retry cap is enforced before any work: the generation service is
	// never called for an exhausted job.
	if job.RetriesExhausted() {
		if ok, err := p.jobs.MarkFailed(ctx, nil, job.ID, msgRetryExhausted); err != nil {
			log.Error().Err(err).Msg("exhausted-fail write failed")
		} else if ok {
			metrics.IncJobProcessed(string(model.JobStatusFailed))
			log.Warn().Int("attempts", job.Attempts).Msg("retry cap reached, job failed")
		}
		return
	}

	claimed, err := p.jobs.Claim(ctx, nil, job.ID)
	if err != nil {
		log.Error().Err(err).Msg("claim failed")
		return
	}
	if !claimed {
		log.Debug().Msg("lost claim race")
		return
	}

	start := time.Now()
	result, genErr := p.generate(ctx, job)

	if genErr != nil {
		ok, err := p.jobs.MarkFailed(ctx, nil, job.ID, failureMessage(genErr))
		if err != nil {
			log.Error().Err(err).Msg("failure write failed")
			return
		}
		if !ok {
			log.Info().Msg("job cancelled mid-flight, failure suppressed")
			return
		}
		metrics.IncJobProcessed(string(model.JobStatusFailed))
		metrics.ObserveJobDuration(string(job.Kind), time.Since(start).Seconds())
		log.Error().Err(genErr).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}

	ok, err := p.jobs.MarkCompleted(ctx, nil, job.ID, result)
	if err != nil {
		log.Error().Err(err).Msg("completion write failed")
		return
	}
	if !ok {
		// The row moved out of processing (owner cancelled) while the
		// provider call was in flight; the late result is dropped.
		log.Info().Msg("job cancelled mid-flight, completion suppressed")
		return
	}
	metrics.IncJobProcessed(string(model.JobStatusCompleted))
	metrics.ObserveJobDuration(string(job.Kind), time.Since(start).Seconds())
	log.Info().Dur("duration", time.Since(start)).Msg("job completed")

	// Best-effort materialization: generation succeeding is the unit of
	// success, storage of the expanded plan is not.
	job.Result = result
	group, entries, err := model.Materialize(job, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("materialization build failed")
		return
	}
	if err := p.plans.SaveGroup(ctx, nil, group, entries); err != nil {
		log.Error().Err(err).Msg("materialization save failed")
		return
	}
	log.Info().Str("group_id", group.ID).Msg("plan materialized")
}

// generate runs steps 4-8 of the pipeline: profile, prompt, precheck,
// completion call, parse.
func (p *Processor) generate(ctx context.Context, job *model.GenerationJob) (*model.WeeklyPlan, error) {
	owner, err := p.users.FindByID(ctx, nil, job.UserID)
	if err != nil {
		return nil, domain.ErrProfileIncomplete
	}
	profile, err := owner.Snapshot()
	if err != nil {
		return nil, err
	}
	job.Profile = profile

	prompt := usecase.BuildPrompt(profile, job.Prompt, job.Kind)
	role := usecase.SystemRole(job.Kind)

	if p.opts.PromptTokenBudget > 0 {
		if tokens, err := p.ai.CountTokens(ctx, prompt); err == nil && tokens > p.opts.PromptTokenBudget {
			metrics.PrecheckBlocked(p.ai.ModelName())
			return nil, domain.ErrAIInputTooLong
		}
	}

	callStart := time.Now()
	text, usage, err := p.ai.Complete(ctx, role, prompt, adapter.CompletionOptions{
		Temperature:     p.opts.Temperature,
		MaxOutputTokens: p.opts.MaxOutputTokens,
	})
	latencyMs := int(time.Since(callStart) / time.Millisecond)
	metrics.ObserveAICall(p.ai.ModelName(), usage.PromptTokens, usage.CompletionTokens, latencyMs, err == nil)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domain.ErrAIEmptyResponse
	}

	plan, err := usecase.ParsePlan(text)
	if err != nil {
		// The raw text is logged for diagnosis but never persisted on
		// the job.
		p.log.Debug().Str("job_id", job.ID).Str("raw", truncate(text, 512)).Err(err).Msg("unparseable completion")
		return nil, err
	}
	return plan, nil
}

// failureMessage maps a pipeline error onto the fixed user-facing text
// recorded on the job row.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAIInvalidCredentials):
		return "AI service credentials are invalid"
	case errors.Is(err, domain.ErrAIRateLimited):
		return "AI service rate limit exceeded, please try again later"
	case errors.Is(err, domain.ErrAIInputTooLong):
		return "request is too long for the AI model"
	case errors.Is(err, domain.ErrAIUnavailable):
		return "AI service is unavailable, please try again later"
	case errors.Is(err, domain.ErrAIEmptyResponse):
		return "AI service returned an empty response"
	case errors.Is(err, domain.ErrProfileIncomplete):
		return "user profile is incomplete"
	default:
		return "could not process AI response"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
