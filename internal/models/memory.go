package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Memory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode   string    `gorm:"size:64;not null;index" json:"room_code"`
	UserID     uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Title      string    `gorm:"not null" json:"title"`
	MemoryDate string    `gorm:"size:10;not null" json:"memory_date"`
	Place      *string   `json:"place"`
	Emotion    string    `gorm:"not null" json:"emotion"`
	Note       *string   `gorm:"type:text" json:"note"`
	ImageURL   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Memory) TableName() string { return TableMemories }

func (m *Memory) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// StoryEvent is a point on the couple's timeline. Unlike the other records it is
// scoped to its author rather than to a room.
type StoryEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	EventDate   string    `gorm:"size:10;not null" json:"event_date"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Milestone   bool      `gorm:"not null;default:false" json:"milestone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (StoryEvent) TableName() string { return TableStoryEvents }

func (e *StoryEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
