package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/queue"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/services"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

// IngestionHandler resolves a saved reference into text. Deliveries are
// at-least-once and may race a delete or undo for the same item, so every
// store write is guarded: a record that vanished or got soft-deleted since
// the job was claimed is left untouched and the delivery is a no-op.
type IngestionHandler struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentRepo
	extractor   services.Extractor
	queueClient *queue.Client
	notifier    services.PipelineNotifier
	policy      queue.Policy
}

func NewIngestionHandler(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentRepo repos.ContentRepo,
	extractor services.Extractor,
	queueClient *queue.Client,
	notifier services.PipelineNotifier,
	policy queue.Policy,
) *IngestionHandler {
	return &IngestionHandler{
		db:          db,
		log:         baseLog.With("worker", "IngestionHandler"),
		contentRepo: contentRepo,
		extractor:   extractor,
		queueClient: queueClient,
		notifier:    notifier,
		policy:      policy,
	}
}

func (h *IngestionHandler) Queue() string { return queue.IngestionQueue }

func (h *IngestionHandler) Run(ctx context.Context, job *types.Job) error {
	var p types.IngestionJobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		h.log.Error("Malformed ingestion payload", "job_id", job.ID, "error", err)
		return nil
	}

	c, err := h.contentRepo.GetByID(ctx, h.db, p.ContentID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if c == nil || c.IsDeleted {
		h.log.Debug("Content missing or deleted, skipping ingestion", "content_id", p.ContentID)
		return nil
	}
	if c.IngestionStatus == types.IngestionSuccess || c.IngestionStatus == types.IngestionSkipped {
		// The text may have been committed while the follow-up enqueue failed.
		// Enqueue dedupes on the content id, so re-issuing it here is safe.
		if c.EmbeddingStatus == types.EmbeddingPending && strings.TrimSpace(c.TextContent) != "" {
			if err := h.queueClient.Enqueue(ctx, queue.EmbeddingQueue, p.ContentID.String(),
				types.EmbeddingJobPayload{ContentID: p.ContentID, Text: c.TextContent}, h.policy); err != nil {
				return fmt.Errorf("enqueue embedding: %w", err)
			}
			h.log.Info("Re-issued embedding job for ingested content", "content_id", p.ContentID)
			return nil
		}
		h.log.Debug("Content already ingested, skipping", "content_id", p.ContentID)
		return nil
	}

	if err := h.contentRepo.IncrementIngestionAttempts(ctx, h.db, p.ContentID); err != nil {
		return fmt.Errorf("increment ingestion attempts: %w", err)
	}

	text, extractErr := h.extractor.Extract(ctx, p.Link, p.Kind)
	if extractErr == nil && strings.TrimSpace(text) == "" {
		extractErr = &services.ExtractionError{Reason: "extracted text is empty"}
	}
	if extractErr != nil {
		if _, uerr := h.contentRepo.UpdateIfLive(ctx, h.db, p.ContentID, map[string]interface{}{
			"ingestion_status": types.IngestionFailed,
			"ingestion_error":  extractErr.Error(),
		}); uerr != nil {
			h.log.Error("Record ingestion failure failed", "content_id", p.ContentID, "error", uerr)
		}
		h.notifier.ContentFailed(c.OwnerUserID, p.ContentID, "ingestion", extractErr.Error())
		return extractErr
	}

	ok, err := h.contentRepo.UpdateIfLive(ctx, h.db, p.ContentID, map[string]interface{}{
		"text_content":     text,
		"ingestion_status": types.IngestionSuccess,
		"ingestion_error":  "",
		"embedding_status": types.EmbeddingPending,
	})
	if err != nil {
		return fmt.Errorf("commit ingestion result: %w", err)
	}
	if !ok {
		// Deleted between extraction and commit: discard the result rather
		// than resurrecting the record.
		h.log.Info("Content deleted mid-ingestion, discarding result", "content_id", p.ContentID)
		return nil
	}

	if err := h.queueClient.Enqueue(ctx, queue.EmbeddingQueue, p.ContentID.String(),
		types.EmbeddingJobPayload{ContentID: p.ContentID, Text: text}, h.policy); err != nil {
		return fmt.Errorf("enqueue embedding: %w", err)
	}

	h.notifier.ContentIngested(c.OwnerUserID, p.ContentID)
	h.log.Info("Ingestion complete", "content_id", p.ContentID, "kind", p.Kind)
	return nil
}
