package services

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

const shareHashLen = 10

type ShareService interface {
	// Rotate replaces the owner's share link with a fresh hash.
	Rotate(ctx context.Context, ownerUserID uuid.UUID) (string, error)
	// Resolve returns the linked user's non-deleted content.
	Resolve(ctx context.Context, hash string) ([]*types.Content, error)
}

type shareService struct {
	db          *gorm.DB
	log         *logger.Logger
	shareRepo   repos.ShareLinkRepo
	contentRepo repos.ContentRepo
}

func NewShareService(db *gorm.DB, baseLog *logger.Logger, shareRepo repos.ShareLinkRepo, contentRepo repos.ContentRepo) ShareService {
	return &shareService{
		db:          db,
		log:         baseLog.With("service", "ShareService"),
		shareRepo:   shareRepo,
		contentRepo: contentRepo,
	}
}

func (s *shareService) Rotate(ctx context.Context, ownerUserID uuid.UUID) (string, error) {
	hash, err := randomHash(shareHashLen)
	if err != nil {
		return "", fmt.Errorf("generate share hash: %w", err)
	}
	link := &types.ShareLink{
		OwnerUserID: ownerUserID,
		Hash:        hash,
	}
	if err := s.shareRepo.Replace(ctx, nil, link); err != nil {
		return "", fmt.Errorf("replace share link: %w", err)
	}
	return hash, nil
}

func (s *shareService) Resolve(ctx context.Context, hash string) ([]*types.Content, error) {
	link, err := s.shareRepo.GetByHash(ctx, nil, hash)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.ErrNotFound
	}
	return s.contentRepo.ListByOwner(ctx, nil, link.OwnerUserID)
}

const hashAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomHash(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = hashAlphabet[int(b)%len(hashAlphabet)]
	}
	return string(out), nil
}
