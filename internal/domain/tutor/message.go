package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SenderRole string

const (
	SenderSystem    SenderRole = "system"
	SenderUser      SenderRole = "user"
	SenderAssistant SenderRole = "assistant"
)

type MessageStatus string

const (
	MessageIncomplete                MessageStatus = "incomplete"
	MessageCompleteWithViewPieces    MessageStatus = "completeWithViewPieces"
	MessageCompleteWithoutViewPieces MessageStatus = "completeWithoutViewPieces"
)

func (s MessageStatus) IsComplete() bool {
	return s == MessageCompleteWithViewPieces || s == MessageCompleteWithoutViewPieces
}

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ThreadID   uuid.UUID `gorm:"type:uuid;not null;index;index:idx_message_thread_seq,unique,priority:1" json:"thread_id"`

	Seq int64 `gorm:"column:seq;not null;index:idx_message_thread_seq,unique,priority:2" json:"seq"`

	SenderRole SenderRole     `gorm:"column:sender_role;not null" json:"sender_role"`
	Content    string         `gorm:"column:content;type:text;not null;default:''" json:"content"`
	Status     MessageStatus  `gorm:"column:status;not null;default:'incomplete';index" json:"status"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Message) TableName() string { return "message" }

func (m *Message) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
