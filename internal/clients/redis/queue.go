package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Krisnegi/rag-knowledge-engine/internal/logger"
	"github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

// DefaultQueueName matches what the scrape worker drains.
const DefaultQueueName = "scraping_queue"

// JobQueue is a durable FIFO handoff channel. Push appends to the tail;
// Pop blocks until a message arrives at the head. Delivery is
// at-least-once: consumers must tolerate a redelivered job.
type JobQueue interface {
	Push(ctx context.Context, job types.ScrapeJob) error
	Pop(ctx context.Context, timeout time.Duration) (*types.ScrapeJob, error)
	Close() error
}

type jobQueue struct {
	log   *logger.Logger
	rdb   *goredis.Client
	queue string
}

func NewJobQueue(log *logger.Logger) (JobQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		addr = "localhost:6379"
	}
	queue := strings.TrimSpace(os.Getenv("REDIS_QUEUE"))
	if queue == "" {
		queue = DefaultQueueName
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &jobQueue{
		log:   log.With("client", "RedisJobQueue"),
		rdb:   rdb,
		queue: queue,
	}, nil
}

// Push is LPUSH; the worker drains with BRPOP from the other end, so
// per-producer submission order is preserved.
func (q *jobQueue) Push(ctx context.Context, job types.ScrapeJob) error {
	if q == nil || q.rdb == nil {
		return fmt.Errorf("job queue not initialized")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.queue, raw).Err()
}

func (q *jobQueue) Pop(ctx context.Context, timeout time.Duration) (*types.ScrapeJob, error) {
	if q == nil || q.rdb == nil {
		return nil, fmt.Errorf("job queue not initialized")
	}
	res, err := q.rdb.BRPop(ctx, timeout, q.queue).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply of length %d", len(res))
	}
	var job types.ScrapeJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("malformed job payload: %w", err)
	}
	return &job, nil
}

func (q *jobQueue) Close() error {
	if q == nil || q.rdb == nil {
		return nil
	}
	return q.rdb.Close()
}
