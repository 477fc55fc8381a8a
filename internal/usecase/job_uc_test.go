//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/usecase"
)

func defaultPolicy() usecase.JobPolicy {
	return usecase.JobPolicy{
		MaxRetries:    3,
		RetentionDays: 30,
		SubmitLimit:   5,
		SubmitWindow:  time.Minute,
		RequeueAfter:  5 * time.Minute,
	}
}

// weeklyResult builds a valid seven-day plan for seeding completed jobs.
func weeklyResult() *model.WeeklyPlan {
	plan := &model.WeeklyPlan{
		Title:       "Cut Week",
		Description: "A moderate deficit week.",
	}
	for i := 0; i < model.PlanDays; i++ {
		plan.Days = append(plan.Days, model.DayPlan{
			Content:  fmt.Sprintf("day %d meals", i+1),
			Calories: 1800,
		})
	}
	return plan
}

func seedJob(repo *MockJobRepo, userID string, status model.JobStatus, createdAt time.Time) *model.GenerationJob {
	job := &model.GenerationJob{
		ID:         ulid.Make().String(),
		UserID:     userID,
		Kind:       model.JobKindDiet,
		Prompt:     "low carb please",
		Status:     status,
		MaxRetries: 3,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	repo.Seed(job)
	return job
}

func TestJobUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should return a pending job id immediately and enqueue it", func(t *testing.T) {
		jobs := NewMockJobRepo()
		q := NewMockQueue()
		limiter := &MockLimiter{Allowed: true}
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), q, limiter, defaultPolicy(), newTestLogger())

		id, err := uc.Create(ctx, "user-1", model.JobKindDiet, "high protein, no dairy")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if id == "" {
			t.Fatal("expected a job id")
		}

		stored := jobs.Get(id)
		if stored == nil {
			t.Fatal("expected the job to be persisted")
		}
		if stored.Status != model.JobStatusPending {
			t.Errorf("expected status 'pending', got '%s'", stored.Status)
		}
		if stored.Attempts != 0 {
			t.Errorf("expected 0 attempts at submission, got %d", stored.Attempts)
		}
		if got := q.Queued(); len(got) != 1 || got[0] != id {
			t.Errorf("expected job id on the queue, got %v", got)
		}
	})

	t.Run("should reject an unknown kind", func(t *testing.T) {
		uc := usecase.NewJobUseCase(NewMockJobRepo(), NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", model.JobKind("meditation_generation"), "relax me")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("should reject an over-length prompt", func(t *testing.T) {
		uc := usecase.NewJobUseCase(NewMockJobRepo(), NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", model.JobKindDiet, strings.Repeat("x", model.MaxPromptLen+1))
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("should refuse submission when the rate limit is hit", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: false}, defaultPolicy(), newTestLogger())

		_, err := uc.Create(ctx, "user-1", model.JobKindWorkout, "push pull legs")
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got: %v", err)
		}
	})

	t.Run("should allow submission when the limiter itself fails", func(t *testing.T) {
		jobs := NewMockJobRepo()
		limiter := &MockLimiter{Allowed: false, Err: errors.New("redis down")}
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), limiter, defaultPolicy(), newTestLogger())

		id, err := uc.Create(ctx, "user-1", model.JobKindDiet, "anything")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if jobs.Get(id) == nil {
			t.Error("expected the job to be persisted despite the limiter outage")
		}
	})

	t.Run("should still persist the job when enqueue fails", func(t *testing.T) {
		jobs := NewMockJobRepo()
		q := NewMockQueue()
		q.EnqueueFunc = func(ctx context.Context, jobID string) error { return errors.New("queue down") }
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), q, &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		id, err := uc.Create(ctx, "user-1", model.JobKindDiet, "anything")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if jobs.Get(id) == nil {
			t.Error("expected a durable pending row for the requeue sweep to find")
		}
	})
}

func TestJobUseCase_Status(t *testing.T) {
	ctx := context.Background()
	jobs := NewMockJobRepo()
	uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

	cases := []struct {
		status   model.JobStatus
		progress int
	}{
		{model.JobStatusPending, 0},
		{model.JobStatusProcessing, 50},
		{model.JobStatusCompleted, 100},
		{model.JobStatusFailed, 0},
		{model.JobStatusCancelled, 0},
	}
	for _, tc := range cases {
		job := seedJob(jobs, "user-1", tc.status, time.Now())
		snap, err := uc.Status(ctx, job.ID, "user-1")
		if err != nil {
			t.Fatalf("%s: expected no error, got: %v", tc.status, err)
		}
		if snap.Progress != tc.progress {
			t.Errorf("%s: expected progress %d, got %d", tc.status, tc.progress, snap.Progress)
		}
	}

	t.Run("should hide other users' jobs behind not-found", func(t *testing.T) {
		job := seedJob(jobs, "user-1", model.JobStatusPending, time.Now())
		_, err := uc.Status(ctx, job.ID, "user-2")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestJobUseCase_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel a pending job", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusPending, time.Now())

		if err := uc.Cancel(ctx, job.ID, "user-1"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got := jobs.Get(job.ID).Status; got != model.JobStatusCancelled {
			t.Errorf("expected status 'cancelled', got '%s'", got)
		}
	})

	t.Run("should refuse to cancel a completed job", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusCompleted, time.Now())

		err := uc.Cancel(ctx, job.ID, "user-1")
		if !errors.Is(err, domain.ErrNotCancellable) {
			t.Fatalf("expected ErrNotCancellable, got: %v", err)
		}
		if got := jobs.Get(job.ID).Status; got != model.JobStatusCompleted {
			t.Errorf("expected the job to stay 'completed', got '%s'", got)
		}
	})

	t.Run("should report not-found for unknown ids", func(t *testing.T) {
		uc := usecase.NewJobUseCase(NewMockJobRepo(), NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		err := uc.Cancel(ctx, "no-such-job", "user-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestJobUseCase_SaveResult(t *testing.T) {
	ctx := context.Background()

	t.Run("should materialize seven sequential day entries", func(t *testing.T) {
		jobs := NewMockJobRepo()
		plans := NewMockPlanRepo()
		uc := usecase.NewJobUseCase(jobs, plans, NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		job := seedJob(jobs, "user-1", model.JobStatusCompleted, time.Now())
		job.Result = weeklyResult()
		jobs.Seed(job)

		out, err := uc.SaveResult(ctx, job.ID, "user-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.GroupID == "" || out.SavedID == "" {
			t.Fatal("expected group and entry ids in the outcome")
		}
		if out.Redirect != "/plans/"+out.GroupID {
			t.Errorf("unexpected redirect: %s", out.Redirect)
		}

		group, err := plans.FindGroupByID(ctx, nil, out.GroupID)
		if err != nil {
			t.Fatalf("expected the group to be stored, got: %v", err)
		}
		if group.Title != "Cut Week" {
			t.Errorf("expected group title from the result, got '%s'", group.Title)
		}

		entries, _ := plans.ListEntriesByGroup(ctx, nil, out.GroupID)
		if len(entries) != model.PlanDays {
			t.Fatalf("expected %d entries, got %d", model.PlanDays, len(entries))
		}
		if entries[0].ID != out.SavedID {
			t.Errorf("expected SavedID to reference the first day's entry")
		}
		for i := 1; i < len(entries); i++ {
			want := entries[i-1].Day.AddDate(0, 0, 1)
			if !entries[i].Day.Equal(want) {
				t.Errorf("entry %d: expected day %v, got %v", i, want, entries[i].Day)
			}
		}
	})

	t.Run("should refuse jobs that are not completed", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusProcessing, time.Now())

		_, err := uc.SaveResult(ctx, job.ID, "user-1")
		if !errors.Is(err, domain.ErrJobNotCompleted) {
			t.Fatalf("expected ErrJobNotCompleted, got: %v", err)
		}
	})

	t.Run("should refuse completed jobs without a result", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusCompleted, time.Now())

		_, err := uc.SaveResult(ctx, job.ID, "user-1")
		if !errors.Is(err, domain.ErrEmptyResult) {
			t.Fatalf("expected ErrEmptyResult, got: %v", err)
		}
	})
}

func TestJobUseCase_RetryFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("should reset the oldest retryable jobs up to the limit", func(t *testing.T) {
		jobs := NewMockJobRepo()
		q := NewMockQueue()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), q, &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		base := time.Now().Add(-time.Hour)
		var ids []string
		for i := 0; i < 8; i++ {
			job := seedJob(jobs, "user-1", model.JobStatusFailed, base.Add(time.Duration(i)*time.Minute))
			job.Attempts = 1
			job.LastError = "AI service is unavailable, please try again later"
			jobs.Seed(job)
			ids = append(ids, job.ID)
		}

		n, err := uc.RetryFailed(ctx, 5)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if n != 5 {
			t.Fatalf("expected 5 jobs reset, got %d", n)
		}
		for i, id := range ids {
			j := jobs.Get(id)
			if i < 5 {
				if j.Status != model.JobStatusPending {
					t.Errorf("job %d: expected 'pending', got '%s'", i, j.Status)
				}
				if j.LastError != "" {
					t.Errorf("job %d: expected the error to be cleared", i)
				}
				if j.Attempts != 1 {
					t.Errorf("job %d: expected attempts preserved, got %d", i, j.Attempts)
				}
			} else if j.Status != model.JobStatusFailed {
				t.Errorf("job %d: expected to stay 'failed', got '%s'", i, j.Status)
			}
		}
		if got := q.Queued(); len(got) != 5 {
			t.Errorf("expected 5 requeued ids, got %d", len(got))
		}
	})

	t.Run("should skip jobs whose attempts reached the cap", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

		job := seedJob(jobs, "user-1", model.JobStatusFailed, time.Now())
		job.Attempts = 3
		jobs.Seed(job)

		n, err := uc.RetryFailed(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected no jobs reset, got %d", n)
		}
	})
}

func TestJobUseCase_CleanupOld(t *testing.T) {
	ctx := context.Background()
	jobs := NewMockJobRepo()
	uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

	old := seedJob(jobs, "user-1", model.JobStatusCompleted, time.Now().AddDate(0, 0, -31))
	old.CompletedAt = time.Now().AddDate(0, 0, -31)
	jobs.Seed(old)

	recent := seedJob(jobs, "user-1", model.JobStatusCompleted, time.Now().AddDate(0, 0, -29))
	recent.CompletedAt = time.Now().AddDate(0, 0, -29)
	jobs.Seed(recent)

	// Non-terminal rows are never reaped no matter how old.
	stuck := seedJob(jobs, "user-1", model.JobStatusProcessing, time.Now().AddDate(0, 0, -60))

	n, err := uc.CleanupOld(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job deleted, got %d", n)
	}
	if jobs.Get(old.ID) != nil {
		t.Error("expected the 31-day-old job to be gone")
	}
	if jobs.Get(recent.ID) == nil {
		t.Error("expected the 29-day-old job to survive")
	}
	if jobs.Get(stuck.ID) == nil {
		t.Error("expected the processing job to survive")
	}
}

func TestJobUseCase_RequeueStale(t *testing.T) {
	ctx := context.Background()
	jobs := NewMockJobRepo()
	q := NewMockQueue()
	uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), q, &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())

	stale := seedJob(jobs, "user-1", model.JobStatusPending, time.Now().Add(-time.Hour))
	seedJob(jobs, "user-1", model.JobStatusPending, time.Now())

	n, err := uc.RequeueStale(ctx, 10)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job requeued, got %d", n)
	}
	if got := q.Queued(); len(got) != 1 || got[0] != stale.ID {
		t.Errorf("expected the stale id on the queue, got %v", got)
	}
}

func TestJobUseCase_Await(t *testing.T) {
	ctx := context.Background()

	t.Run("should return once the job reaches a terminal state", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusProcessing, time.Now())

		go func() {
			time.Sleep(30 * time.Millisecond)
			jobs.MarkCompleted(ctx, nil, job.ID, weeklyResult())
		}()

		snap, err := uc.Await(ctx, job.ID, "user-1", 10*time.Millisecond, time.Second)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if snap.Status != model.JobStatusCompleted {
			t.Errorf("expected 'completed', got '%s'", snap.Status)
		}
		if snap.Result == nil {
			t.Error("expected the result in the final snapshot")
		}
	})

	t.Run("should time out on a job that never finishes", func(t *testing.T) {
		jobs := NewMockJobRepo()
		uc := usecase.NewJobUseCase(jobs, NewMockPlanRepo(), NewMockQueue(), &MockLimiter{Allowed: true}, defaultPolicy(), newTestLogger())
		job := seedJob(jobs, "user-1", model.JobStatusProcessing, time.Now())

		snap, err := uc.Await(ctx, job.ID, "user-1", 10*time.Millisecond, 50*time.Millisecond)
		if !errors.Is(err, domain.ErrAwaitTimeout) {
			t.Fatalf("expected ErrAwaitTimeout, got: %v", err)
		}
		if snap == nil || snap.Status != model.JobStatusProcessing {
			t.Error("expected the last snapshot alongside the timeout")
		}
	})
}
