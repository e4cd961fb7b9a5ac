package dto

import "github.com/thereayou/lovenest/pkg/tictactoe"

type CreateGameRequest struct {
	RoomCode string `json:"room_code"`
}

type JoinGameRequest struct {
	RoomCode string `json:"room_code" binding:"required"`
}

type MoveRequest struct {
	Cell            *int           `json:"cell" binding:"required"`
	Mark            tictactoe.Mark `json:"mark" binding:"required"`
	ExpectedVersion *int64         `json:"expected_version"`
}

type RestartRequest struct {
	ExpectedVersion *int64 `json:"expected_version"`
}

type RoomActivityResponse struct {
	RoomCode  string           `json:"room_code"`
	Counts    map[string]int64 `json:"counts"`
	Listeners map[string]int   `json:"listeners"`
}
