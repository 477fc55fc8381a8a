package queue

import (
	"context"
	"time"
)

// JobQueue is the durable hand-off between job submission and execution.
// Submission pushes an id; workers block on Dequeue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks up to timeout and returns "" when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)

	Depth(ctx context.Context) (int64, error)
}
