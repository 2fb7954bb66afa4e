package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/queue"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeContentRepo mirrors the guarded-write semantics of the real repo: a
// conditional update against a missing or soft-deleted row reports false.
type fakeContentRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*types.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: make(map[uuid.UUID]*types.Content)}
}

func (r *fakeContentRepo) put(c *types.Content) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.items[c.ID] = &cp
}

func (r *fakeContentRepo) get(id uuid.UUID) *types.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.items[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

func (r *fakeContentRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.Content) ([]*types.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range items {
		cp := *c
		r.items[c.ID] = &cp
	}
	return items, nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Content, error) {
	return r.get(id), nil
}

func (r *fakeContentRepo) GetOwned(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (*types.Content, error) {
	c := r.get(id)
	if c == nil || c.OwnerUserID != ownerUserID {
		return nil, nil
	}
	return c, nil
}

func (r *fakeContentRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Content
	for _, c := range r.items {
		if c.OwnerUserID == ownerUserID && !c.IsDeleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeContentRepo) ListBin(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Content
	for _, c := range r.items {
		if c.OwnerUserID == ownerUserID && c.IsDeleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) ListEmbeddedByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Content
	for _, c := range r.items {
		if c.OwnerUserID == ownerUserID && !c.IsDeleted && c.EmbeddingStatus == types.EmbeddingSuccess {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) IncrementIngestionAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.items[id]; ok {
		c.IngestionAttempts++
	}
	return nil
}

func (r *fakeContentRepo) IncrementEmbeddingAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.items[id]; ok {
		c.EmbeddingAttempts++
	}
	return nil
}

func (r *fakeContentRepo) UpdateIfLive(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok || c.IsDeleted {
		return false, nil
	}
	applyContentUpdates(c, updates)
	return true, nil
}

func applyContentUpdates(c *types.Content, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "text_content":
			c.TextContent = v.(string)
		case "ingestion_status":
			c.IngestionStatus = v.(types.IngestionStatus)
		case "ingestion_error":
			c.IngestionError = v.(string)
		case "embedding_status":
			c.EmbeddingStatus = v.(types.EmbeddingStatus)
		case "embedding_error":
			c.EmbeddingError = v.(string)
		case "embedding":
			c.Embedding = v.(datatypes.JSON)
		}
	}
}

func (r *fakeContentRepo) SoftDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok || c.OwnerUserID != ownerUserID || c.IsDeleted {
		return false, nil
	}
	c.IsDeleted = true
	c.DeletedAt = &at
	return true, nil
}

func (r *fakeContentRepo) Restore(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, deletedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok || c.OwnerUserID != ownerUserID || !c.IsDeleted || c.DeletedAt == nil || !c.DeletedAt.Equal(deletedAt) {
		return false, nil
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	return true, nil
}

func (r *fakeContentRepo) HardDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok || c.OwnerUserID != ownerUserID {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *fakeContentRepo) PurgeDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.items {
		if c.IsDeleted && c.DeletedAt != nil && !c.DeletedAt.After(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// fakeJobRepo records enqueued jobs and deduplicates live (queue, job_key)
// pairs the way the partial unique index does.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs []*types.Job
}

func (r *fakeJobRepo) Enqueue(ctx context.Context, tx *gorm.DB, job *types.Job) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.Queue == job.Queue && j.JobKey == job.JobKey &&
			(j.Status == types.JobQueued || j.Status == types.JobRunning) {
			return false, nil
		}
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = types.JobQueued
	cp := *job
	r.jobs = append(r.jobs, &cp)
	return true, nil
}

func (r *fakeJobRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, queue string, staleRunning time.Duration) (*types.Job, error) {
	return nil, nil
}

func (r *fakeJobRepo) Reschedule(ctx context.Context, tx *gorm.DB, id uuid.UUID, runAfter time.Time, lastError string) error {
	return nil
}

func (r *fakeJobRepo) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id {
			j.Status = types.JobDead
		}
	}
	return nil
}

func (r *fakeJobRepo) MarkDead(ctx context.Context, tx *gorm.DB, id uuid.UUID, lastError string) error {
	return nil
}

func (r *fakeJobRepo) enqueuedOn(queueName string) []*types.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Job
	for _, j := range r.jobs {
		if j.Queue == queueName {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out
}

// fakeTagService hands back deterministic ids without touching a store.
type fakeTagService struct {
	ids map[string]uuid.UUID
}

func (s *fakeTagService) Resolve(ctx context.Context, tx *gorm.DB, rawNames []string) ([]uuid.UUID, error) {
	names := NormalizeTagNames(rawNames)
	if len(names) == 0 {
		return nil, nil
	}
	if s.ids == nil {
		s.ids = make(map[string]uuid.UUID)
	}
	out := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		if _, ok := s.ids[n]; !ok {
			s.ids[n] = uuid.New()
		}
		out = append(out, s.ids[n])
	}
	return out, nil
}

func (s *fakeTagService) Trending(ctx context.Context, limit int) ([]*types.Tag, error) {
	return nil, nil
}

type contentTestEnv struct {
	service  ContentService
	contents *fakeContentRepo
	jobs     *fakeJobRepo
	cfg      ContentConfig
}

func newContentTestEnv(t *testing.T) *contentTestEnv {
	t.Helper()
	log := testLogger(t)
	contents := newFakeContentRepo()
	jobs := &fakeJobRepo{}
	cfg := DefaultContentConfig()
	service := NewContentService(nil, log, contents, &fakeTagService{}, queue.NewClient(nil, log, jobs), cfg)
	return &contentTestEnv{service: service, contents: contents, jobs: jobs, cfg: cfg}
}

func TestCreateValidation(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name  string
		owner uuid.UUID
		in    CreateContentInput
	}{
		{"missing owner", uuid.Nil, CreateContentInput{Kind: types.KindNote, Text: "hi"}},
		{"unknown kind", owner, CreateContentInput{Kind: "article", Text: "hi"}},
		{"note without text", owner, CreateContentInput{Kind: types.KindNote}},
		{"video without link", owner, CreateContentInput{Kind: types.KindVideo, Title: "t"}},
		{"social without link", owner, CreateContentInput{Kind: types.KindSocial}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(ctx, tt.owner, tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateNoteSkipsIngestion(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()

	c, err := env.service.Create(context.Background(), owner, CreateContentInput{
		Kind: types.KindNote,
		Text: "  remember to water the plants  ",
		Tags: []string{"Home", "home", " chores "},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.IngestionStatus != types.IngestionSkipped {
		t.Errorf("ingestion status = %q, want skipped", c.IngestionStatus)
	}
	if c.EmbeddingStatus != types.EmbeddingPending {
		t.Errorf("embedding status = %q, want pending", c.EmbeddingStatus)
	}
	if c.TextContent != "remember to water the plants" {
		t.Errorf("text not trimmed: %q", c.TextContent)
	}

	if jobs := env.jobs.enqueuedOn(queue.IngestionQueue); len(jobs) != 0 {
		t.Errorf("note must not enqueue ingestion, got %d jobs", len(jobs))
	}
	jobs := env.jobs.enqueuedOn(queue.EmbeddingQueue)
	if len(jobs) != 1 {
		t.Fatalf("embedding jobs = %d, want 1", len(jobs))
	}
	if jobs[0].JobKey != c.ID.String() {
		t.Errorf("job key = %q, want content id %q", jobs[0].JobKey, c.ID)
	}
}

func TestCreateVideoEnqueuesIngestion(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()

	c, err := env.service.Create(context.Background(), owner, CreateContentInput{
		Kind: types.KindVideo,
		Link: "https://youtu.be/dQw4w9WgXcQ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.IngestionStatus != types.IngestionPending {
		t.Errorf("ingestion status = %q, want pending", c.IngestionStatus)
	}
	if c.EmbeddingStatus != types.EmbeddingUnset {
		t.Errorf("embedding status = %q, want unset", c.EmbeddingStatus)
	}
	jobs := env.jobs.enqueuedOn(queue.IngestionQueue)
	if len(jobs) != 1 {
		t.Fatalf("ingestion jobs = %d, want 1", len(jobs))
	}
	if jobs[0].JobKey != c.ID.String() {
		t.Errorf("job key = %q, want %q", jobs[0].JobKey, c.ID)
	}
	if len(env.jobs.enqueuedOn(queue.EmbeddingQueue)) != 0 {
		t.Error("video must not enqueue embedding before ingestion")
	}
}

func TestSoftDeleteIsIdempotentlyRejected(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := env.service.SoftDelete(context.Background(), owner, c.ID); err != nil {
		t.Fatalf("first soft delete: %v", err)
	}
	if err := env.service.SoftDelete(context.Background(), owner, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second soft delete error = %v, want ErrNotFound", err)
	}
	if stored := env.contents.get(c.ID); stored == nil || !stored.IsDeleted {
		t.Error("record must remain soft-deleted")
	}
}

func TestSoftDeleteWrongOwner(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.service.SoftDelete(context.Background(), uuid.New(), c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign delete error = %v, want ErrNotFound", err)
	}
}

func TestUndoWithinWindow(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.service.SoftDelete(context.Background(), owner, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if err := env.service.Undo(context.Background(), owner, c.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	stored := env.contents.get(c.ID)
	if stored == nil || stored.IsDeleted || stored.DeletedAt != nil {
		t.Error("undo must clear the soft-delete flags")
	}
}

func TestUndoAtExactWindowBoundary(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	deletedAt := time.Now().Truncate(time.Second)
	stored := env.contents.get(c.ID)
	stored.IsDeleted = true
	stored.DeletedAt = &deletedAt
	env.contents.put(stored)

	// elapsed == window is still inside the window.
	env.service.(*contentService).now = func() time.Time { return deletedAt.Add(env.cfg.UndoWindow) }

	if err := env.service.Undo(context.Background(), owner, c.ID); err != nil {
		t.Fatalf("undo exactly at the window boundary: %v", err)
	}
	if after := env.contents.get(c.ID); after.IsDeleted || after.DeletedAt != nil {
		t.Error("boundary undo must restore the record")
	}
}

func TestUndoAfterWindowExpired(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	deletedAt := time.Now().Add(-env.cfg.UndoWindow - time.Minute)
	stored := env.contents.get(c.ID)
	stored.IsDeleted = true
	stored.DeletedAt = &deletedAt
	env.contents.put(stored)

	if err := env.service.Undo(context.Background(), owner, c.ID); !errors.Is(err, apperr.ErrWindowExpired) {
		t.Errorf("undo past window error = %v, want ErrWindowExpired", err)
	}
	if after := env.contents.get(c.ID); !after.IsDeleted {
		t.Error("expired undo must not restore the record")
	}
}

func TestUndoOnLiveContent(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.service.Undo(context.Background(), owner, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("undo on live content error = %v, want ErrNotFound", err)
	}
}

func TestRetryIngestionConflicts(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	note, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create note: %v", err)
	}
	if err := env.service.RetryIngestion(ctx, owner, note.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("retry ingestion on note error = %v, want ErrConflict", err)
	}

	video, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindVideo, Link: "https://youtu.be/dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Create video: %v", err)
	}
	stored := env.contents.get(video.ID)
	stored.IngestionStatus = types.IngestionSuccess
	env.contents.put(stored)
	if err := env.service.RetryIngestion(ctx, owner, video.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("retry ingestion after success error = %v, want ErrConflict", err)
	}
}

func TestRetryIngestionAfterFailure(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	video, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindVideo, Link: "https://youtu.be/dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored := env.contents.get(video.ID)
	stored.IngestionStatus = types.IngestionFailed
	stored.IngestionError = "extraction failed: transcript not available for video"
	env.contents.put(stored)
	env.jobs.jobs = nil // original job finished

	if err := env.service.RetryIngestion(ctx, owner, video.ID); err != nil {
		t.Fatalf("retry ingestion: %v", err)
	}
	after := env.contents.get(video.ID)
	if after.IngestionStatus != types.IngestionPending || after.IngestionError != "" {
		t.Errorf("retry must reset to pending and clear the error, got %q / %q", after.IngestionStatus, after.IngestionError)
	}
	if jobs := env.jobs.enqueuedOn(queue.IngestionQueue); len(jobs) != 1 {
		t.Errorf("ingestion jobs after retry = %d, want 1", len(jobs))
	}
}

func TestRetryEmbeddingConflicts(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	note, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored := env.contents.get(note.ID)
	stored.EmbeddingStatus = types.EmbeddingSuccess
	env.contents.put(stored)
	if err := env.service.RetryEmbedding(ctx, owner, note.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("retry embedding after success error = %v, want ErrConflict", err)
	}

	video, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindVideo, Link: "https://youtu.be/dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Create video: %v", err)
	}
	if err := env.service.RetryEmbedding(ctx, owner, video.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("retry embedding with no text error = %v, want ErrConflict", err)
	}
}

func TestManualTextOverridesFailedIngestion(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	video, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindVideo, Link: "https://youtu.be/dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored := env.contents.get(video.ID)
	stored.IngestionStatus = types.IngestionFailed
	stored.IngestionError = "extraction failed: transcript not available for video"
	env.contents.put(stored)
	env.jobs.jobs = nil

	updated, err := env.service.ManualText(ctx, owner, video.ID, "  the talk was about goroutines  ")
	if err != nil {
		t.Fatalf("ManualText: %v", err)
	}
	if updated.IngestionStatus != types.IngestionSuccess {
		t.Errorf("ingestion status = %q, want success", updated.IngestionStatus)
	}
	if updated.EmbeddingStatus != types.EmbeddingPending {
		t.Errorf("embedding status = %q, want pending", updated.EmbeddingStatus)
	}
	if updated.TextContent != "the talk was about goroutines" {
		t.Errorf("text = %q, want trimmed manual text", updated.TextContent)
	}
	if jobs := env.jobs.enqueuedOn(queue.EmbeddingQueue); len(jobs) != 1 {
		t.Errorf("embedding jobs = %d, want 1", len(jobs))
	}
}

func TestManualTextClearsStaleVector(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()

	note, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindNote, Text: "original"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored := env.contents.get(note.ID)
	stored.EmbeddingStatus = types.EmbeddingSuccess
	stored.Embedding = types.EncodeVector([]float32{0.1, 0.2})
	env.contents.put(stored)
	env.jobs.jobs = nil

	updated, err := env.service.ManualText(ctx, owner, note.ID, "rewritten from scratch")
	if err != nil {
		t.Fatalf("ManualText: %v", err)
	}
	if updated.EmbeddingStatus != types.EmbeddingPending {
		t.Errorf("embedding status = %q, want pending", updated.EmbeddingStatus)
	}
	// The vector belonged to the replaced text; pending rows must not carry one.
	if vec := updated.Vector(); vec != nil {
		t.Errorf("stale vector %v must be cleared with the status reset", vec)
	}
	if jobs := env.jobs.enqueuedOn(queue.EmbeddingQueue); len(jobs) != 1 {
		t.Errorf("embedding jobs = %d, want 1", len(jobs))
	}
}

func TestManualTextValidation(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	c, err := env.service.Create(context.Background(), owner, CreateContentInput{Kind: types.KindNote, Text: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.service.ManualText(context.Background(), owner, c.ID, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank manual text error = %v, want ErrValidation", err)
	}
	if _, err := env.service.ManualText(context.Background(), owner, uuid.New(), "text"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("manual text on missing content error = %v, want ErrNotFound", err)
	}
}

func TestPurgeExpiredRespectsRetention(t *testing.T) {
	env := newContentTestEnv(t)
	owner := uuid.New()
	ctx := context.Background()
	now := time.Now()

	old, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindNote, Text: "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recent, err := env.service.Create(ctx, owner, CreateContentInput{Kind: types.KindNote, Text: "recent"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	oldAt := now.Add(-env.cfg.Retention - 24*time.Hour)
	recentAt := now.Add(-time.Hour)
	s := env.contents.get(old.ID)
	s.IsDeleted, s.DeletedAt = true, &oldAt
	env.contents.put(s)
	s = env.contents.get(recent.ID)
	s.IsDeleted, s.DeletedAt = true, &recentAt
	env.contents.put(s)

	n, err := env.service.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if env.contents.get(old.ID) != nil {
		t.Error("expired record must be gone")
	}
	if env.contents.get(recent.ID) == nil {
		t.Error("record inside retention must survive")
	}
}
