package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

const (
	maxTagsPerContent = 20
	maxTagNameLen     = 50
)

type TagService interface {
	// Resolve normalizes raw tag names, upserts them (bumping usage counters),
	// and returns the ids in stable order.
	Resolve(ctx context.Context, tx *gorm.DB, rawNames []string) ([]uuid.UUID, error)
	Trending(ctx context.Context, limit int) ([]*types.Tag, error)
}

type tagService struct {
	db      *gorm.DB
	log     *logger.Logger
	tagRepo repos.TagRepo
}

func NewTagService(db *gorm.DB, baseLog *logger.Logger, tagRepo repos.TagRepo) TagService {
	return &tagService{
		db:      db,
		log:     baseLog.With("service", "TagService"),
		tagRepo: tagRepo,
	}
}

// NormalizeTagNames lowercases, trims, dedupes, drops empties and over-long
// names, and caps the list.
func NormalizeTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" || len(n) > maxTagNameLen {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == maxTagsPerContent {
			break
		}
	}
	return out
}

func (s *tagService) Resolve(ctx context.Context, tx *gorm.DB, rawNames []string) ([]uuid.UUID, error) {
	names := NormalizeTagNames(rawNames)
	if len(names) == 0 {
		return nil, nil
	}
	if err := s.tagRepo.Upsert(ctx, tx, names, time.Now()); err != nil {
		return nil, fmt.Errorf("upsert tags: %w", err)
	}
	tags, err := s.tagRepo.GetByNames(ctx, tx, names)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(tags))
	for _, t := range tags {
		byName[t.Name] = t.ID
	}
	ids := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		if id, ok := byName[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *tagService) Trending(ctx context.Context, limit int) ([]*types.Tag, error) {
	return s.tagRepo.Trending(ctx, nil, limit)
}
