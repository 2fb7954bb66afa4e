package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

type TagRepo interface {
	// Upsert creates missing tags and bumps use_count / last_used_at on all of
	// them. Names must already be normalized.
	Upsert(ctx context.Context, tx *gorm.DB, names []string, now time.Time) error
	GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Tag, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Tag, error)
	Trending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Tag, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{
		db:  db,
		log: baseLog.With("repo", "TagRepo"),
	}
}

func (r *tagRepo) Upsert(ctx context.Context, tx *gorm.DB, names []string, now time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(names) == 0 {
		return nil
	}
	tags := make([]*types.Tag, len(names))
	for i, name := range names {
		tags[i] = &types.Tag{
			ID:         uuid.New(),
			Name:       name,
			UseCount:   1,
			LastUsedAt: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"use_count":    gorm.Expr(`"tag".use_count + 1`),
				"last_used_at": now,
				"updated_at":   now,
			}),
		}).
		Create(&tags).Error
}

func (r *tagRepo) GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Tag
	if len(names) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("name IN ?", names).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Tag
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) Trending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var out []*types.Tag
	if err := transaction.WithContext(ctx).
		Order("use_count DESC, last_used_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
