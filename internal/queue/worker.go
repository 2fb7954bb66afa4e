package queue

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

// Worker services every registered queue with a small fixed pool of loops.
// Each loop polls, claims one runnable job under SKIP LOCKED, and dispatches
// it to the queue's handler. Coordination with delete/undo races lives inside
// the handlers (guarded store writes), never in shared memory here.
type Worker struct {
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.JobRepo
	registry     *Registry
	concurrency  int
	pollInterval time.Duration
	staleRunning time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRepo, registry *Registry, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "QueueWorker"),
		repo:         repo,
		registry:     registry,
		concurrency:  concurrency,
		pollInterval: 1 * time.Second,
		staleRunning: 30 * time.Minute,
	}
}

// Start launches concurrency loops per registered queue and returns
// immediately. Loops exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, queueName := range w.registry.Queues() {
		w.log.Info("Starting worker pool", "queue", queueName, "concurrency", w.concurrency)
		for i := 0; i < w.concurrency; i++ {
			workerID := i + 1
			qn := queueName
			g.Go(func() error {
				w.runLoop(ctx, qn, workerID)
				return nil
			})
		}
	}
	go func() {
		_ = g.Wait()
		w.log.Info("All worker loops stopped")
	}()
}

func (w *Worker) runLoop(ctx context.Context, queueName string, workerID int) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "queue", queueName, "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(ctx, w.db, queueName, w.staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "queue", queueName, "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.dispatch(ctx, job, workerID)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, job *types.Job, workerID int) {
	h, ok := w.registry.Get(job.Queue)
	if !ok {
		w.log.Warn("No handler registered for queue", "queue", job.Queue, "job_id", job.ID)
		_ = w.repo.MarkDead(ctx, w.db, job.ID, "no handler registered for queue="+job.Queue)
		return
	}

	runErr := w.runGuarded(ctx, h, job, workerID)
	if runErr == nil {
		if err := w.repo.MarkDone(ctx, w.db, job.ID); err != nil {
			w.log.Warn("MarkDone failed", "job_id", job.ID, "error", err)
		}
		return
	}

	if job.Attempts >= job.MaxAttempts {
		w.log.Warn("Job exhausted attempts",
			"queue", job.Queue,
			"job_id", job.ID,
			"job_key", job.JobKey,
			"attempts", job.Attempts,
			"error", runErr,
		)
		if err := w.repo.MarkDead(ctx, w.db, job.ID, runErr.Error()); err != nil {
			w.log.Warn("MarkDead failed", "job_id", job.ID, "error", err)
		}
		return
	}

	p := Policy{MaxAttempts: job.MaxAttempts, BackoffBase: time.Duration(job.BackoffBaseMS) * time.Millisecond}
	delay := p.Backoff(job.Attempts)
	if err := w.repo.Reschedule(ctx, w.db, job.ID, time.Now().Add(delay), runErr.Error()); err != nil {
		w.log.Warn("Reschedule failed", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) runGuarded(ctx context.Context, h Handler, job *types.Job, workerID int) (runErr error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic",
				"queue", job.Queue,
				"job_id", job.ID,
				"worker_id", workerID,
				"panic", r,
			)
			runErr = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(ctx, job)
}
