package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/queue"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/services"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

const (
	// embedLocalRetries bounds the retries inside one delivery; the queue's
	// redelivery policy is the outer bound.
	embedLocalRetries = 2
	embedRetryDelay   = 1500 * time.Millisecond
	// embedTerminalAttempts is compared against the post-increment attempt
	// counter on the content row. Each delivery increments exactly once.
	embedTerminalAttempts = 3
)

// EmbeddingHandler converts recorded text into a vector. The vector column is
// written in the same guarded update that flips the status to success, so the
// pair can never be observed half-set.
type EmbeddingHandler struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentRepo
	embedder    services.Embedder
	notifier    services.PipelineNotifier
}

func NewEmbeddingHandler(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentRepo repos.ContentRepo,
	embedder services.Embedder,
	notifier services.PipelineNotifier,
) *EmbeddingHandler {
	return &EmbeddingHandler{
		db:          db,
		log:         baseLog.With("worker", "EmbeddingHandler"),
		contentRepo: contentRepo,
		embedder:    embedder,
		notifier:    notifier,
	}
}

func (h *EmbeddingHandler) Queue() string { return queue.EmbeddingQueue }

func (h *EmbeddingHandler) Run(ctx context.Context, job *types.Job) error {
	var p types.EmbeddingJobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		h.log.Error("Malformed embedding payload", "job_id", job.ID, "error", err)
		return nil
	}

	c, err := h.contentRepo.GetByID(ctx, h.db, p.ContentID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if c == nil || c.IsDeleted {
		h.log.Debug("Content missing or deleted, skipping embedding", "content_id", p.ContentID)
		return nil
	}
	if c.EmbeddingStatus == types.EmbeddingSuccess {
		h.log.Debug("Embedding already present, skipping", "content_id", p.ContentID)
		return nil
	}

	// Dedup by job key means at most one live embedding job per item, so
	// this read-then-increment is the single authoritative counting point.
	attempts := c.EmbeddingAttempts + 1
	if err := h.contentRepo.IncrementEmbeddingAttempts(ctx, h.db, p.ContentID); err != nil {
		return fmt.Errorf("increment embedding attempts: %w", err)
	}

	vec, embedErr := services.EmbedWithRetry(ctx, h.embedder, p.Text, embedLocalRetries, embedRetryDelay)
	if embedErr != nil {
		status := types.EmbeddingPending
		if attempts >= embedTerminalAttempts {
			status = types.EmbeddingFailed
		}
		if _, uerr := h.contentRepo.UpdateIfLive(ctx, h.db, p.ContentID, map[string]interface{}{
			"embedding_status": status,
			"embedding_error":  embedErr.Error(),
		}); uerr != nil {
			h.log.Error("Record embedding failure failed", "content_id", p.ContentID, "error", uerr)
		}
		if status == types.EmbeddingFailed {
			h.notifier.ContentFailed(c.OwnerUserID, p.ContentID, "embedding", embedErr.Error())
		}
		return embedErr
	}

	ok, err := h.contentRepo.UpdateIfLive(ctx, h.db, p.ContentID, map[string]interface{}{
		"embedding":        types.EncodeVector(vec),
		"embedding_status": types.EmbeddingSuccess,
		"embedding_error":  "",
	})
	if err != nil {
		return fmt.Errorf("commit embedding result: %w", err)
	}
	if !ok {
		h.log.Info("Content deleted mid-embedding, discarding result", "content_id", p.ContentID)
		return nil
	}

	h.notifier.ContentEmbedded(c.OwnerUserID, p.ContentID)
	h.log.Info("Embedding stored", "content_id", p.ContentID, "dims", len(vec))
	return nil
}
