package types

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	UseCount   int       `gorm:"column:use_count;not null;default:0" json:"use_count"`
	LastUsedAt time.Time `gorm:"column:last_used_at;not null;default:now()" json:"last_used_at"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tag) TableName() string { return "tag" }
