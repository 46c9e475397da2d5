package tutor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ViewPiece is one ordered fragment of a rendered assistant message. Exactly
// one of Text, Image, Video is set when loaded with satellites.
type ViewPiece struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index:idx_view_piece_message_order,unique,priority:1" json:"message_id"`
	Order     int       `gorm:"column:piece_order;not null;index:idx_view_piece_message_order,unique,priority:2" json:"order"`

	Text  *ViewPieceText  `gorm:"foreignKey:ViewPieceID;constraint:OnDelete:CASCADE" json:"text,omitempty"`
	Image *ViewPieceImage `gorm:"foreignKey:ViewPieceID;constraint:OnDelete:CASCADE" json:"image,omitempty"`
	Video *ViewPieceVideo `gorm:"foreignKey:ViewPieceID;constraint:OnDelete:CASCADE" json:"video,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ViewPiece) TableName() string { return "view_piece" }

func (v *ViewPiece) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }

type ViewPieceText struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ViewPieceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"view_piece_id"`
	Content     string    `gorm:"column:content;type:text;not null" json:"content"`
}

func (ViewPieceText) TableName() string { return "view_piece_text" }

func (v *ViewPieceText) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }

type ViewPieceImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ViewPieceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"view_piece_id"`
	ImageID     uuid.UUID `gorm:"type:uuid;not null;index" json:"image_id"`
}

func (ViewPieceImage) TableName() string { return "view_piece_image" }

func (v *ViewPieceImage) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }

type ViewPieceVideo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ViewPieceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"view_piece_id"`
	VideoID     uuid.UUID `gorm:"type:uuid;not null;index" json:"video_id"`
}

func (ViewPieceVideo) TableName() string { return "view_piece_video" }

func (v *ViewPieceVideo) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }
