package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Content struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Kind        ContentKind `gorm:"column:kind;not null" json:"kind"`
	Title       string      `gorm:"column:title" json:"title"`
	SourceLink  string      `gorm:"column:source_link" json:"source_link,omitempty"`
	TextContent string      `gorm:"column:text_content" json:"text_content,omitempty"`

	TagIDs datatypes.JSON `gorm:"column:tag_ids;type:jsonb" json:"tag_ids,omitempty"`

	IngestionStatus   IngestionStatus `gorm:"column:ingestion_status;not null;index" json:"ingestion_status"`
	IngestionAttempts int             `gorm:"column:ingestion_attempts;not null;default:0" json:"ingestion_attempts"`
	IngestionError    string          `gorm:"column:ingestion_error" json:"ingestion_error,omitempty"`

	EmbeddingStatus   EmbeddingStatus `gorm:"column:embedding_status;index" json:"embedding_status"`
	EmbeddingAttempts int             `gorm:"column:embedding_attempts;not null;default:0" json:"embedding_attempts"`
	EmbeddingError    string          `gorm:"column:embedding_error" json:"embedding_error,omitempty"`
	Embedding         datatypes.JSON  `gorm:"column:embedding;type:jsonb" json:"-"`

	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Content) TableName() string { return "content" }

// Vector decodes the stored embedding. Nil when no embedding has been
// committed, which by construction means EmbeddingStatus != success.
func (c *Content) Vector() []float32 {
	if len(c.Embedding) == 0 {
		return nil
	}
	var v []float32
	if err := json.Unmarshal(c.Embedding, &v); err != nil {
		return nil
	}
	return v
}

func EncodeVector(v []float32) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func EncodeTagIDs(ids []uuid.UUID) datatypes.JSON {
	b, _ := json.Marshal(ids)
	return datatypes.JSON(b)
}
