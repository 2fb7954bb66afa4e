package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/queue"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

type ContentConfig struct {
	UndoWindow  time.Duration
	Retention   time.Duration
	QueuePolicy queue.Policy
}

func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		UndoWindow:  30 * 24 * time.Hour,
		Retention:   30 * 24 * time.Hour,
		QueuePolicy: queue.DefaultPolicy(),
	}
}

type CreateContentInput struct {
	Kind  types.ContentKind
	Title string
	Link  string
	Text  string
	Tags  []string
}

// ContentService applies user commands to the content store and schedules
// pipeline work. Validation and conflicts fail synchronously; extraction and
// embedding failures only ever surface as recorded state on the row.
type ContentService interface {
	Create(ctx context.Context, ownerUserID uuid.UUID, in CreateContentInput) (*types.Content, error)
	List(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Content, error)
	ListBin(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Content, error)
	Get(ctx context.Context, ownerUserID, contentID uuid.UUID) (*types.Content, error)
	SoftDelete(ctx context.Context, ownerUserID, contentID uuid.UUID) error
	Undo(ctx context.Context, ownerUserID, contentID uuid.UUID) error
	HardDelete(ctx context.Context, ownerUserID, contentID uuid.UUID) error
	ManualText(ctx context.Context, ownerUserID, contentID uuid.UUID, text string) (*types.Content, error)
	RetryIngestion(ctx context.Context, ownerUserID, contentID uuid.UUID) error
	RetryEmbedding(ctx context.Context, ownerUserID, contentID uuid.UUID) error
	// PurgeExpired hard-deletes everything soft-deleted on or before
	// now - retention. Safe to run repeatedly.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentRepo
	tagService  TagService
	queueClient *queue.Client
	cfg         ContentConfig
	now         func() time.Time
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentRepo repos.ContentRepo,
	tagService TagService,
	queueClient *queue.Client,
	cfg ContentConfig,
) ContentService {
	return &contentService{
		db:          db,
		log:         baseLog.With("service", "ContentService"),
		contentRepo: contentRepo,
		tagService:  tagService,
		queueClient: queueClient,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *contentService) Create(ctx context.Context, ownerUserID uuid.UUID, in CreateContentInput) (*types.Content, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", apperr.ErrValidation)
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", apperr.ErrValidation, in.Kind)
	}
	text := strings.TrimSpace(in.Text)
	link := strings.TrimSpace(in.Link)
	if in.Kind == types.KindNote && text == "" {
		return nil, fmt.Errorf("%w: note requires text", apperr.ErrValidation)
	}
	if in.Kind.NeedsIngestion() && link == "" {
		return nil, fmt.Errorf("%w: %s requires a source link", apperr.ErrValidation, in.Kind)
	}

	tagIDs, err := s.tagService.Resolve(ctx, nil, in.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &types.Content{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(tagIDs) > 0 {
		c.TagIDs = types.EncodeTagIDs(tagIDs)
	}
	if in.Kind == types.KindNote {
		c.TextContent = text
		c.IngestionStatus = types.IngestionSkipped
		c.EmbeddingStatus = types.EmbeddingPending
	} else {
		c.SourceLink = link
		c.IngestionStatus = types.IngestionPending
		c.EmbeddingStatus = types.EmbeddingUnset
	}

	if _, err := s.contentRepo.Create(ctx, nil, []*types.Content{c}); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	if in.Kind == types.KindNote {
		err = s.queueClient.Enqueue(ctx, queue.EmbeddingQueue, c.ID.String(),
			types.EmbeddingJobPayload{ContentID: c.ID, Text: text}, s.cfg.QueuePolicy)
	} else {
		err = s.queueClient.Enqueue(ctx, queue.IngestionQueue, c.ID.String(),
			types.IngestionJobPayload{ContentID: c.ID, Kind: in.Kind, Link: link}, s.cfg.QueuePolicy)
	}
	if err != nil {
		// The row exists; the user can retry the stage explicitly.
		s.log.Error("Enqueue after create failed", "content_id", c.ID, "error", err)
	}

	return c, nil
}

func (s *contentService) List(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Content, error) {
	return s.contentRepo.ListByOwner(ctx, nil, ownerUserID)
}

func (s *contentService) ListBin(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Content, error) {
	return s.contentRepo.ListBin(ctx, nil, ownerUserID)
}

func (s *contentService) Get(ctx context.Context, ownerUserID, contentID uuid.UUID) (*types.Content, error) {
	c, err := s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

func (s *contentService) SoftDelete(ctx context.Context, ownerUserID, contentID uuid.UUID) error {
	ok, err := s.contentRepo.SoftDelete(ctx, nil, ownerUserID, contentID, s.now())
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	// In-flight jobs for this item are not canceled; workers re-check the
	// deletion flag before committing results.
	return nil
}

func (s *contentService) Undo(ctx context.Context, ownerUserID, contentID uuid.UUID) error {
	c, err := s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return err
	}
	if c == nil || !c.IsDeleted || c.DeletedAt == nil {
		return apperr.ErrNotFound
	}
	// Exactly at the window boundary still restores.
	if s.now().Sub(*c.DeletedAt) > s.cfg.UndoWindow {
		return apperr.ErrWindowExpired
	}
	ok, err := s.contentRepo.Restore(ctx, nil, ownerUserID, contentID, *c.DeletedAt)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if !ok {
		// deletedAt moved under us (re-delete or purge); treat as gone.
		return apperr.ErrNotFound
	}
	return nil
}

func (s *contentService) HardDelete(ctx context.Context, ownerUserID, contentID uuid.UUID) error {
	ok, err := s.contentRepo.HardDelete(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return fmt.Errorf("hard delete: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

// ManualText lets the user supply the resolved text directly, bypassing a
// stuck or failed extraction. Valid from any ingestion state.
func (s *contentService) ManualText(ctx context.Context, ownerUserID, contentID uuid.UUID, text string) (*types.Content, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", apperr.ErrValidation)
	}
	c, err := s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.IsDeleted {
		return nil, apperr.ErrNotFound
	}

	// The old vector was computed from the old text; drop it so the vector is
	// only ever present alongside a successful embedding of the current text.
	ok, err := s.contentRepo.UpdateIfLive(ctx, nil, contentID, map[string]interface{}{
		"text_content":     text,
		"ingestion_status": types.IngestionSuccess,
		"ingestion_error":  "",
		"embedding_status": types.EmbeddingPending,
		"embedding_error":  "",
		"embedding":        datatypes.JSON(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("manual text: %w", err)
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}

	if err := s.queueClient.Enqueue(ctx, queue.EmbeddingQueue, contentID.String(),
		types.EmbeddingJobPayload{ContentID: contentID, Text: text}, s.cfg.QueuePolicy); err != nil {
		s.log.Error("Enqueue embedding after manual text failed", "content_id", contentID, "error", err)
	}

	c, err = s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

func (s *contentService) RetryIngestion(ctx context.Context, ownerUserID, contentID uuid.UUID) error {
	c, err := s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return err
	}
	if c == nil || c.IsDeleted {
		return apperr.ErrNotFound
	}
	if !c.IngestionStatus.Retryable() {
		return fmt.Errorf("%w: ingestion already succeeded", apperr.ErrConflict)
	}
	if !c.Kind.NeedsIngestion() {
		return fmt.Errorf("%w: %s content is never ingested", apperr.ErrConflict, c.Kind)
	}

	ok, err := s.contentRepo.UpdateIfLive(ctx, nil, contentID, map[string]interface{}{
		"ingestion_status": types.IngestionPending,
		"ingestion_error":  "",
	})
	if err != nil {
		return fmt.Errorf("reset ingestion: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return s.queueClient.Enqueue(ctx, queue.IngestionQueue, contentID.String(),
		types.IngestionJobPayload{ContentID: contentID, Kind: c.Kind, Link: c.SourceLink}, s.cfg.QueuePolicy)
}

func (s *contentService) RetryEmbedding(ctx context.Context, ownerUserID, contentID uuid.UUID) error {
	c, err := s.contentRepo.GetOwned(ctx, nil, ownerUserID, contentID)
	if err != nil {
		return err
	}
	if c == nil || c.IsDeleted {
		return apperr.ErrNotFound
	}
	if !c.EmbeddingStatus.Retryable() {
		return fmt.Errorf("%w: embedding already succeeded", apperr.ErrConflict)
	}
	if strings.TrimSpace(c.TextContent) == "" {
		return fmt.Errorf("%w: no ingested text to embed", apperr.ErrConflict)
	}

	ok, err := s.contentRepo.UpdateIfLive(ctx, nil, contentID, map[string]interface{}{
		"embedding_status": types.EmbeddingPending,
		"embedding_error":  "",
	})
	if err != nil {
		return fmt.Errorf("reset embedding: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return s.queueClient.Enqueue(ctx, queue.EmbeddingQueue, contentID.String(),
		types.EmbeddingJobPayload{ContentID: contentID, Text: c.TextContent}, s.cfg.QueuePolicy)
}

func (s *contentService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.cfg.Retention)
	n, err := s.contentRepo.PurgeDeletedBefore(ctx, nil, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	if n > 0 {
		s.log.Info("Purged soft-deleted content past retention", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
