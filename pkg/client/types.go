package client

import (
	"time"

	"github.com/thereayou/lovenest/pkg/tictactoe"
)

// Record types served by the backend. Each doubles as a table name on the
// change feed.
const (
	TableChatMessages = "chat_messages"
	TableLetters      = "letters"
	TableMemories     = "memories"
	TableStoryEvents  = "story_events"
	TableBouquets     = "bouquets"
	TableWishlist     = "wishlist_items"
	TableGames        = "tictactoe_games"
	TableGameHistory  = "tictactoe_history"
)

// Record is anything a RoomView can cache.
type Record interface {
	RecordID() string
	RecordRoom() string
}

type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResult struct {
	User      User      `json:"user"`
	Profile   *Profile  `json:"profile"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	RoomCode   string    `json:"room_code"`
	UserID     string    `json:"user_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m ChatMessage) RecordID() string   { return m.ID }
func (m ChatMessage) RecordRoom() string { return m.RoomCode }

type Letter struct {
	ID        string     `json:"id"`
	RoomCode  string     `json:"room_code"`
	UserID    string     `json:"user_id"`
	FromName  string     `json:"from_name"`
	Subject   string     `json:"subject"`
	Content   string     `json:"content"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (l Letter) RecordID() string   { return l.ID }
func (l Letter) RecordRoom() string { return l.RoomCode }

type Memory struct {
	ID         string    `json:"id"`
	RoomCode   string    `json:"room_code"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	MemoryDate string    `json:"memory_date"`
	Place      *string   `json:"place"`
	Emotion    string    `json:"emotion"`
	Note       *string   `json:"note"`
	ImageURL   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m Memory) RecordID() string   { return m.ID }
func (m Memory) RecordRoom() string { return m.RoomCode }

type StoryEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EventDate   string    `json:"event_date"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Milestone   bool      `json:"milestone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Bouquet struct {
	ID         string    `json:"id"`
	RoomCode   string    `json:"room_code"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Flowers    []string  `json:"flowers"`
	Message    *string   `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func (b Bouquet) RecordID() string   { return b.ID }
func (b Bouquet) RecordRoom() string { return b.RoomCode }

type WishlistItem struct {
	ID            string     `json:"id"`
	RoomCode      string     `json:"room_code"`
	UserID        string     `json:"user_id"`
	CreatedByName string     `json:"created_by_name"`
	Title         string     `json:"title"`
	Category      string     `json:"category"`
	Note          *string    `json:"note"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (w WishlistItem) RecordID() string   { return w.ID }
func (w WishlistItem) RecordRoom() string { return w.RoomCode }

type Game struct {
	ID          string           `json:"id"`
	RoomCode    string           `json:"room_code"`
	PlayerXID   string           `json:"player_x_id"`
	PlayerXName string           `json:"player_x_name"`
	PlayerOID   *string          `json:"player_o_id"`
	PlayerOName *string          `json:"player_o_name"`
	BoardState  tictactoe.Board  `json:"board_state"`
	CurrentTurn tictactoe.Mark   `json:"current_turn"`
	Status      tictactoe.Status `json:"status"`
	Winner      tictactoe.Result `json:"winner"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (g Game) RecordID() string   { return g.ID }
func (g Game) RecordRoom() string { return g.RoomCode }

// State is the rule-relevant projection of the game.
func (g Game) State() tictactoe.State {
	return tictactoe.State{Board: g.BoardState, Turn: g.CurrentTurn, Status: g.Status, Winner: g.Winner}
}

type GameHistory struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	RoomCode    string    `json:"room_code"`
	PlayerXName string    `json:"player_x_name"`
	PlayerOName string    `json:"player_o_name"`
	Result      string    `json:"result"`
	WinnerName  *string   `json:"winner_name"`
	PlayedAt    time.Time `json:"played_at"`
}

func (h GameHistory) RecordID() string   { return h.ID }
func (h GameHistory) RecordRoom() string { return h.RoomCode }

type RoomActivity struct {
	RoomCode  string           `json:"room_code"`
	Counts    map[string]int64 `json:"counts"`
	Listeners map[string]int   `json:"listeners"`
}

type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
