package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/pkg/tictactoe"
	"gorm.io/gorm"
)

// Game is one tic-tac-toe match. Version increases on every write so that
// concurrent writers can be detected with a conditional update.
type Game struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode    string           `gorm:"size:64;not null;index" json:"room_code"`
	PlayerXID   uuid.UUID        `gorm:"column:player_x_id;type:uuid;not null" json:"player_x_id"`
	PlayerXName string           `gorm:"column:player_x_name;not null" json:"player_x_name"`
	PlayerOID   *uuid.UUID       `gorm:"column:player_o_id;type:uuid" json:"player_o_id"`
	PlayerOName *string          `gorm:"column:player_o_name" json:"player_o_name"`
	BoardState  tictactoe.Board  `gorm:"type:text;not null" json:"board_state"`
	CurrentTurn tictactoe.Mark   `gorm:"size:1;not null" json:"current_turn"`
	Status      tictactoe.Status `gorm:"size:16;not null;index" json:"status"`
	Winner      tictactoe.Result `gorm:"size:8" json:"winner"`
	Version     int64            `gorm:"not null" json:"version"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Game) TableName() string { return TableGames }

func (g *Game) BeforeCreate(*gorm.DB) error {
	assignID(&g.ID)
	return nil
}

// State extracts the rule-relevant fields.
func (g *Game) State() tictactoe.State {
	return tictactoe.State{
		Board:  g.BoardState,
		Turn:   g.CurrentTurn,
		Status: g.Status,
		Winner: g.Winner,
	}
}

// SetState copies s back onto the row.
func (g *Game) SetState(s tictactoe.State) {
	g.BoardState = s.Board
	g.CurrentTurn = s.Turn
	g.Status = s.Status
	g.Winner = s.Winner
}

// Plays reports whether userID holds mark in this game.
func (g *Game) Plays(userID uuid.UUID, mark tictactoe.Mark) bool {
	switch mark {
	case tictactoe.X:
		return g.PlayerXID == userID
	case tictactoe.O:
		return g.PlayerOID != nil && *g.PlayerOID == userID
	}
	return false
}

// PlayerName returns the display name attached to mark.
func (g *Game) PlayerName(mark tictactoe.Mark) string {
	if mark == tictactoe.X {
		return g.PlayerXName
	}
	if g.PlayerOName == nil || *g.PlayerOName == "" {
		return "Unknown"
	}
	return *g.PlayerOName
}

// GameHistory is the immutable record of a finished game.
type GameHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GameID      uuid.UUID `gorm:"type:uuid;not null;index" json:"game_id"`
	RoomCode    string    `gorm:"size:64;not null;index" json:"room_code"`
	PlayerXName string    `gorm:"column:player_x_name;not null" json:"player_x_name"`
	PlayerOName string    `gorm:"column:player_o_name;not null" json:"player_o_name"`
	Result      string    `gorm:"not null" json:"result"`
	WinnerName  *string   `json:"winner_name"`
	PlayedAt    time.Time `gorm:"autoCreateTime;index" json:"played_at"`
}

func (GameHistory) TableName() string { return TableGameHistory }

func (h *GameHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}

// NewGameHistory summarises a finished game.
func NewGameHistory(g *Game) *GameHistory {
	h := &GameHistory{
		GameID:      g.ID,
		RoomCode:    g.RoomCode,
		PlayerXName: g.PlayerName(tictactoe.X),
		PlayerOName: g.PlayerName(tictactoe.O),
	}
	switch g.Winner {
	case tictactoe.ResultDraw:
		h.Result = "Draw"
	case tictactoe.ResultX, tictactoe.ResultO:
		name := g.PlayerName(tictactoe.Mark(g.Winner))
		h.WinnerName = &name
		h.Result = name + " Won"
	}
	return h
}
