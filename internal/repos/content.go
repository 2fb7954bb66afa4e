package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

// ContentRepo is the durable record of saved items. Writes that participate
// in the pipeline are conditional: a transition only lands when the guard
// predicate still holds, so a worker racing a delete loses cleanly.
type ContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.Content) ([]*types.Content, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Content, error)
	GetOwned(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (*types.Content, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error)
	ListBin(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error)
	ListEmbeddedByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error)
	IncrementIngestionAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IncrementEmbeddingAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// UpdateIfLive applies updates only while the record exists and is not
	// soft-deleted. Returns false when the guard rejected the write.
	UpdateIfLive(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, at time.Time) (bool, error)
	// Restore clears the soft-delete flags, guarded by the deletedAt value the
	// caller observed so a concurrent re-delete is not silently undone.
	Restore(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, deletedAt time.Time) (bool, error)
	HardDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (bool, error)
	PurgeDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{
		db:  db,
		log: baseLog.With("repo", "ContentRepo"),
	}
}

func (r *contentRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.Content) ([]*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.Content{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Content
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepo) GetOwned(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ownerUserID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var c types.Content
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Content
	err := transaction.WithContext(ctx).
		Where("owner_user_id = ? AND is_deleted = false", ownerUserID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) ListBin(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Content
	err := transaction.WithContext(ctx).
		Where("owner_user_id = ? AND is_deleted = true", ownerUserID).
		Order("deleted_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) ListEmbeddedByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) ([]*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Content
	err := transaction.WithContext(ctx).
		Where("owner_user_id = ? AND is_deleted = false AND embedding_status = ?", ownerUserID, types.EmbeddingSuccess).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) IncrementIngestionAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ingestion_attempts": gorm.Expr("ingestion_attempts + 1"),
			"updated_at":         time.Now(),
		}).Error
}

func (r *contentRepo) IncrementEmbeddingAttempts(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding_attempts": gorm.Expr("embedding_attempts + 1"),
			"updated_at":         time.Now(),
		}).Error
}

func (r *contentRepo) UpdateIfLive(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ? AND is_deleted = false", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentRepo) SoftDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ? AND owner_user_id = ? AND is_deleted = false", id, ownerUserID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentRepo) Restore(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID, deletedAt time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ? AND owner_user_id = ? AND is_deleted = true AND deleted_at = ?", id, ownerUserID, deletedAt).
		Updates(map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentRepo) HardDelete(ctx context.Context, tx *gorm.DB, ownerUserID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&types.Content{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentRepo) PurgeDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("is_deleted = true AND deleted_at <= ?", cutoff).
		Delete(&types.Content{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
