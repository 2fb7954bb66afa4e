package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

const (
	IngestionQueue = "ingestion"
	EmbeddingQueue = "embedding"
)

// Policy is the per-job retry contract. Redelivery after a handler failure is
// delayed by BackoffBase doubling each attempt; past MaxAttempts the job goes
// dead and the handler is responsible for having left terminal state behind.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BackoffBase: 1500 * time.Millisecond}
}

// Backoff returns the redelivery delay after the given (1-based) attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Client is the enqueue side of the durable queue. It is constructed once at
// startup and handed to whoever needs to schedule work; there is no package
// level shared connection.
type Client struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.JobRepo
}

func NewClient(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRepo) *Client {
	return &Client{
		db:   db,
		log:  baseLog.With("component", "QueueClient"),
		repo: repo,
	}
}

// Enqueue schedules payload under jobKey. A live job already holding the key
// makes this a no-op; callers rely on that for dedup rather than checking
// first.
func (c *Client) Enqueue(ctx context.Context, queueName, jobKey string, payload any, p Policy) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	job := &types.Job{
		Queue:         queueName,
		JobKey:        jobKey,
		Payload:       datatypes.JSON(raw),
		MaxAttempts:   p.MaxAttempts,
		BackoffBaseMS: int(p.BackoffBase / time.Millisecond),
	}
	inserted, err := c.repo.Enqueue(ctx, c.db, job)
	if err != nil {
		return fmt.Errorf("enqueue %s/%s: %w", queueName, jobKey, err)
	}
	if !inserted {
		c.log.Debug("Job deduplicated", "queue", queueName, "job_key", jobKey)
	}
	return nil
}
