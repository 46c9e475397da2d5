package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Completion records that a user finished an item. Rows are only ever added
// by accepted turns, or removed together with a rejected attempt.
type Completion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_activity_user_item,priority:1" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_activity_user_item,priority:2" json:"user_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_activity_user_item,priority:3" json:"item_id"`
	MessageID  uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Completion) TableName() string { return "completion" }

func (c *Completion) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }

type Flag struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	MessageID  uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	ThreadID   uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`
	Reason     string    `gorm:"column:reason;type:text;not null" json:"reason"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Flag) TableName() string { return "flag" }

func (f *Flag) BeforeCreate(*gorm.DB) error { ensureID(&f.ID); return nil }
