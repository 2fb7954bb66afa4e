package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

type ShareLinkRepo interface {
	Replace(ctx context.Context, tx *gorm.DB, link *types.ShareLink) error
	GetByHash(ctx context.Context, tx *gorm.DB, hash string) (*types.ShareLink, error)
}

type shareLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShareLinkRepo(db *gorm.DB, baseLog *logger.Logger) ShareLinkRepo {
	return &shareLinkRepo{
		db:  db,
		log: baseLog.With("repo", "ShareLinkRepo"),
	}
}

func (r *shareLinkRepo) Replace(ctx context.Context, tx *gorm.DB, link *types.ShareLink) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if link == nil || link.OwnerUserID == uuid.Nil {
		return errors.New("share link owner is required")
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("owner_user_id = ?", link.OwnerUserID).Delete(&types.ShareLink{}).Error; err != nil {
			return err
		}
		return txx.Create(link).Error
	})
}

func (r *shareLinkRepo) GetByHash(ctx context.Context, tx *gorm.DB, hash string) (*types.ShareLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if hash == "" {
		return nil, nil
	}
	var link types.ShareLink
	err := transaction.WithContext(ctx).Where("hash = ?", hash).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}
