package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null;default:''" json:"title"`
	Description string    `gorm:"column:description;type:text;not null;default:''" json:"description"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }

type ItemKind string

const (
	ItemKindInfoText  ItemKind = "info_text"
	ItemKindInfoImage ItemKind = "info_image"
	ItemKindInfoVideo ItemKind = "info_video"
	ItemKindQuestion  ItemKind = "question"
)

// Item is one ordered unit of an activity. Its model-facing item number is its
// 1-based index after ordering by (position, id).
type Item struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index:idx_item_activity_position,priority:1" json:"activity_id"`
	Position   int       `gorm:"column:position;not null;default:0;index:idx_item_activity_position,priority:2" json:"position"`
	Kind       ItemKind  `gorm:"column:kind;not null" json:"kind"`
	Content    string    `gorm:"column:content;type:text;not null;default:''" json:"content"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "activity_item" }

func (i *Item) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
