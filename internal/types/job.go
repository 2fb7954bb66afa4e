package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job is one durable unit of queued work. JobKey is the dedup identity within
// a queue: at most one live (queued or running) job may hold a given key.
type Job struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Queue   string         `gorm:"column:queue;not null;index" json:"queue"`
	JobKey  string         `gorm:"column:job_key;not null" json:"job_key"`
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`

	Status        JobStatus `gorm:"column:status;not null;default:'queued';index" json:"status"`
	Attempts      int       `gorm:"column:attempts;not null;default:0" json:"attempts"`
	MaxAttempts   int       `gorm:"column:max_attempts;not null;default:3" json:"max_attempts"`
	BackoffBaseMS int       `gorm:"column:backoff_base_ms;not null;default:1500" json:"backoff_base_ms"`

	RunAfter  time.Time  `gorm:"column:run_after;not null;index" json:"run_after"`
	LockedAt  *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	LastError string     `gorm:"column:last_error" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Job) TableName() string { return "job" }
