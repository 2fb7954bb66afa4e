package types

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink grants read access to a user's content list via a random hash.
// A user has at most one active link; rotating replaces it.
type ShareLink struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"owner_user_id"`
	Hash        string    `gorm:"column:hash;not null;uniqueIndex" json:"hash"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ShareLink) TableName() string { return "share_link" }
