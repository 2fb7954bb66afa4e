package types

import "github.com/google/uuid"

// IngestionJobPayload is the input to one ingestion delivery. The job key is
// the content id, so a given item has at most one live ingestion job.
type IngestionJobPayload struct {
	ContentID uuid.UUID   `json:"content_id"`
	Kind      ContentKind `json:"kind"`
	Link      string      `json:"link"`
}

type EmbeddingJobPayload struct {
	ContentID uuid.UUID `json:"content_id"`
	Text      string    `json:"text"`
}
