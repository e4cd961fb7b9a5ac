package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table names double as change feed topics.
const (
	TableChatMessages = "chat_messages"
	TableLetters      = "letters"
	TableMemories     = "memories"
	TableStoryEvents  = "story_events"
	TableBouquets     = "bouquets"
	TableWishlist     = "wishlist_items"
	TableGames        = "tictactoe_games"
	TableGameHistory  = "tictactoe_history"
	TableProfiles     = "profiles"
)

// RoomTables lists every table whose rows are scoped by a room code.
var RoomTables = []string{
	TableChatMessages,
	TableLetters,
	TableMemories,
	TableBouquets,
	TableWishlist,
	TableGames,
	TableGameHistory,
}

// IsRoomTable reports whether rows of table carry a room code.
func IsRoomTable(table string) bool {
	for _, t := range RoomTables {
		if t == table {
			return true
		}
	}
	return false
}

type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode   string    `gorm:"size:64;not null;index" json:"room_code"`
	UserID     uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	SenderName string    `gorm:"not null" json:"sender_name"`
	Message    string    `gorm:"not null" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ChatMessage) TableName() string { return TableChatMessages }

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type Letter struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode  string     `gorm:"size:64;not null;index" json:"room_code"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	FromName  string     `gorm:"not null;default:'Your Love'" json:"from_name"`
	Subject   string     `gorm:"not null" json:"subject"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Letter) TableName() string { return TableLetters }

func (l *Letter) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
