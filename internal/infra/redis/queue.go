package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"fitness-ai-planner/internal/domain/ports/queue"
)

var _ queue.JobQueue = (*JobQueue)(nil)

// JobQueue is a Redis list carrying ready job ids. Submission LPUSHes,
// workers BRPOP. The job row in Postgres stays the source of truth; the
// list is only the hand-off, so a lost id is recovered by the requeue
// sweep rather than by queue-side durability tricks.
type JobQueue struct {
	client RedisClient
	key    string
}

func NewJobQueue(client RedisClient, key string) *JobQueue {
	if key == "" {
		key = "jobs:generation:ready"
	}
	return &JobQueue{client: client, key: key}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.LPush(ctx, q.key, jobID)
}

func (q *JobQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", err
	}
	// BRPOP returns [key, value]
	if len(res) != 2 {
		return "", nil
	}
	return res[1], nil
}

func (q *JobQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key)
}
