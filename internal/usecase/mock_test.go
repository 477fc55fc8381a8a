//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/queue"
	"fitness-ai-planner/internal/domain/ports/repository"
)

// ---- Mock GenerationJobRepository ----

// MockJobRepo is an in-memory GenerationJobRepository whose transition
// methods follow the same precondition rules as the postgres repo. Each
// method can be overridden per-test via its Func field.
type MockJobRepo struct {
	mu    sync.RWMutex
	store map[string]*model.GenerationJob

	CreateFunc        func(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error)
	ClaimFunc         func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	MarkCompletedFunc func(ctx context.Context, tx repository.Tx, id string, result *model.WeeklyPlan) (bool, error)
	MarkFailedFunc    func(ctx context.Context, tx repository.Tx, id string, msg string) (bool, error)
}

var _ repository.GenerationJobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{store: make(map[string]*model.GenerationJob)}
}

// Seed inserts a job bypassing validation, for arranging test state.
func (m *MockJobRepo) Seed(job *model.GenerationJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
}

// Get returns the stored job without the not-found error dance.
func (m *MockJobRepo) Get(id string) *model.GenerationJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.store[id]; ok {
		cp := *j
		return &cp
	}
	return nil
}

func (m *MockJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MockJobRepo) Claim(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.Status != model.JobStatusPending {
		return false, nil
	}
	j.Status = model.JobStatusProcessing
	j.Attempts++
	j.StartedAt = time.Now()
	j.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockJobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, result *model.WeeklyPlan) (bool, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, tx, id, result)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.Status != model.JobStatusProcessing {
		return false, nil
	}
	j.Status = model.JobStatusCompleted
	j.Result = result
	j.LastError = ""
	j.CompletedAt = time.Now()
	j.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, msg string) (bool, error) {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, id, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return false, nil
	}
	if j.Status != model.JobStatusPending && j.Status != model.JobStatusProcessing {
		return false, nil
	}
	j.Status = model.JobStatusFailed
	j.LastError = msg
	j.CompletedAt = time.Now()
	j.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockJobRepo) Cancel(ctx context.Context, tx repository.Tx, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.UserID != userID {
		return false, nil
	}
	if j.Status != model.JobStatusPending && j.Status != model.JobStatusProcessing {
		return false, nil
	}
	j.Status = model.JobStatusCancelled
	j.CompletedAt = time.Now()
	j.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockJobRepo) ResetForRetry(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.Status != model.JobStatusFailed || j.Attempts >= j.MaxRetries {
		return false, nil
	}
	j.Status = model.JobStatusPending
	j.LastError = ""
	j.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockJobRepo) ListRetryable(ctx context.Context, tx repository.Tx, limit int) ([]*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GenerationJob
	for _, j := range m.store {
		if j.Status == model.JobStatusFailed && j.Attempts < j.MaxRetries {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockJobRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Duration, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cut := time.Now().Add(-olderThan)
	var out []string
	for _, j := range m.store {
		if j.Status == model.JobStatusPending && j.UpdatedAt.Before(cut) {
			out = append(out, j.ID)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockJobRepo) DeleteTerminalOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, j := range m.store {
		if !j.Terminal() {
			continue
		}
		ts := j.CompletedAt
		if ts.IsZero() {
			ts = j.UpdatedAt
		}
		if ts.Before(cutoff) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu      sync.RWMutex
	groups  map[string]*model.PlanGroup
	entries map[string][]*model.PlanEntry // by group id

	SaveGroupFunc func(ctx context.Context, tx repository.Tx, group *model.PlanGroup, entries []*model.PlanEntry) error
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{
		groups:  make(map[string]*model.PlanGroup),
		entries: make(map[string][]*model.PlanEntry),
	}
}

func (m *MockPlanRepo) SaveGroup(ctx context.Context, tx repository.Tx, group *model.PlanGroup, entries []*model.PlanEntry) error {
	if m.SaveGroupFunc != nil {
		return m.SaveGroupFunc(ctx, tx, group, entries)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g := *group
	m.groups[group.ID] = &g
	cp := make([]*model.PlanEntry, len(entries))
	for i, e := range entries {
		ec := *e
		cp[i] = &ec
	}
	m.entries[group.ID] = cp
	return nil
}

func (m *MockPlanRepo) FindGroupByID(ctx context.Context, tx repository.Tx, id string) (*model.PlanGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockPlanRepo) ListEntriesByGroup(ctx context.Context, tx repository.Tx, groupID string) ([]*model.PlanEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.entries[groupID]
	out := make([]*model.PlanEntry, len(src))
	for i, e := range src {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (m *MockPlanRepo) ListGroupsByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PlanGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PlanGroup
	for _, g := range m.groups {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (m *MockPlanRepo) DeleteGroup(ctx context.Context, tx repository.Tx, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok || g.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.groups, id)
	delete(m.entries, id)
	return nil
}

// ---- Mock JobQueue ----

type MockQueue struct {
	mu  sync.Mutex
	ids []string

	EnqueueFunc func(ctx context.Context, jobID string) error
}

var _ queue.JobQueue = (*MockQueue)(nil)

func NewMockQueue() *MockQueue { return &MockQueue{} }

func (m *MockQueue) Enqueue(ctx context.Context, jobID string) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, jobID)
	return nil
}

func (m *MockQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ids) == 0 {
		return "", nil
	}
	id := m.ids[0]
	m.ids = m.ids[1:]
	return id, nil
}

func (m *MockQueue) Depth(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.ids)), nil
}

// Queued returns a snapshot of the pending ids.
func (m *MockQueue) Queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}

// ---- Mock SubmitLimiter ----

type MockLimiter struct {
	mu      sync.Mutex
	Allowed bool
	Err     error
	Calls   int
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Allowed, m.Err
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
