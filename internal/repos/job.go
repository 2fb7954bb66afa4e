package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

// JobRepo is the durable queue table. Delivery is at-least-once: a claim
// marks the row running and bumps attempts; a crash mid-handler leaves a
// stale running row that a later claim reclaims.
type JobRepo interface {
	// Enqueue inserts the job unless a live job already holds (queue, job_key),
	// in which case it is a no-op. Returns false when deduplicated.
	Enqueue(ctx context.Context, tx *gorm.DB, job *types.Job) (bool, error)
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, queue string, staleRunning time.Duration) (*types.Job, error)
	Reschedule(ctx context.Context, tx *gorm.DB, id uuid.UUID, runAfter time.Time, lastError string) error
	MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	MarkDead(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Enqueue(ctx context.Context, tx *gorm.DB, job *types.Job) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if job == nil || job.Queue == "" || job.JobKey == "" {
		return false, errors.New("job queue and job_key are required")
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	if job.RunAfter.IsZero() {
		job.RunAfter = now
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	job.Status = types.JobQueued

	// The conflict target is the partial unique index on (queue, job_key)
	// over live rows, so a dead or finished job never blocks a re-enqueue.
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(job)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, queue string, staleRunning time.Duration) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.Job
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.Job
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
				queue = ?
				AND (
					(status = ? AND run_after <= ?)
					OR (status = ? AND locked_at IS NOT NULL AND locked_at < ?)
				)
			`, queue, types.JobQueued, now, types.JobRunning, staleCutoff).
			Order("run_after ASC, created_at ASC")
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     types.JobRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		job.Status = types.JobRunning
		job.Attempts++
		job.LockedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRepo) Reschedule(ctx context.Context, tx *gorm.DB, id uuid.UUID, runAfter time.Time, lastError string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.JobQueued,
			"run_after":  runAfter,
			"last_error": lastError,
			"locked_at":  nil,
			"updated_at": time.Now(),
		}).Error
}

func (r *jobRepo) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	// Finished jobs are removed so the dedup index frees the key immediately.
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Job{}).Error
}

func (r *jobRepo) MarkDead(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.JobDead,
			"last_error": lastError,
			"locked_at":  nil,
			"updated_at": time.Now(),
		}).Error
}
