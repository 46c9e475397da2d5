package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Thread struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	// Unique so a thread has at most one successor.
	PredecessorID *uuid.UUID `gorm:"type:uuid;column:predecessor_id;uniqueIndex" json:"predecessor_id,omitempty"`
	Conclusion    *string    `gorm:"column:conclusion;type:text" json:"conclusion,omitempty"`
	TokenLength   int        `gorm:"column:token_length;not null;default:0" json:"token_length"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Thread) TableName() string { return "thread" }

func (t *Thread) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }

type ThreadWrapReason string

const (
	ThreadWrapTokenLimit        ThreadWrapReason = "token-limit"
	ThreadWrapActivityCompleted ThreadWrapReason = "activity-completed"
)

// ThreadWrap tells clients a thread has ended. It is published, never stored.
type ThreadWrap struct {
	ThreadID   uuid.UUID        `json:"thread_id"`
	UserID     uuid.UUID        `json:"user_id"`
	ActivityID uuid.UUID        `json:"activity_id"`
	Reason     ThreadWrapReason `json:"reason"`
}
