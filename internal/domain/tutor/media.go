package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InfoImage is a catalog image. NumericID is small and stable per activity; the
// model never sees it directly, only its encoded external number.
type InfoImage struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_info_image_activity_numeric,priority:1" json:"activity_id"`
	ItemID          *uuid.UUID `gorm:"type:uuid;index" json:"item_id,omitempty"`
	NumericID       int        `gorm:"column:numeric_id;not null;uniqueIndex:idx_info_image_activity_numeric,priority:2" json:"numeric_id"`
	URL             string     `gorm:"column:url;not null" json:"url"`
	TextAlternative string     `gorm:"column:text_alternative;type:text;not null;default:''" json:"text_alternative"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (InfoImage) TableName() string { return "info_image" }

func (m *InfoImage) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }

type InfoVideo struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID  uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_info_video_activity_numeric,priority:1" json:"activity_id"`
	ItemID      *uuid.UUID `gorm:"type:uuid;index" json:"item_id,omitempty"`
	NumericID   int        `gorm:"column:numeric_id;not null;uniqueIndex:idx_info_video_activity_numeric,priority:2" json:"numeric_id"`
	URL         string     `gorm:"column:url;not null" json:"url"`
	Description string     `gorm:"column:description;type:text;not null;default:''" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (InfoVideo) TableName() string { return "info_video" }

func (m *InfoVideo) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
