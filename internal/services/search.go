package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tdesai7/secondbrain-backend/internal/apperr"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/types"
)

const defaultScoreThreshold = 0.76

type SearchResult struct {
	Content *types.Content `json:"content"`
	Score   float64        `json:"score"`
}

type SearchService interface {
	// Search embeds the query and ranks the owner's embedded content by
	// cosine similarity, dropping results below the threshold.
	Search(ctx context.Context, ownerUserID uuid.UUID, query string, limit int) ([]SearchResult, error)
}

type searchService struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentRepo
	embedder    Embedder
	threshold   float64
}

func NewSearchService(db *gorm.DB, baseLog *logger.Logger, contentRepo repos.ContentRepo, embedder Embedder) SearchService {
	return &searchService{
		db:          db,
		log:         baseLog.With("service", "SearchService"),
		contentRepo: contentRepo,
		embedder:    embedder,
		threshold:   defaultScoreThreshold,
	}
}

func (s *searchService) Search(ctx context.Context, ownerUserID uuid.UUID, query string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrValidation)
	}
	if limit <= 0 {
		limit = 10
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.contentRepo.ListEmbeddedByOwner(ctx, nil, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		vec := c.Vector()
		if vec == nil {
			continue
		}
		score := CosineSimilarity(queryVec, vec)
		if score < s.threshold {
			continue
		}
		results = append(results, SearchResult{Content: c, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CosineSimilarity returns 0 for mismatched or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
