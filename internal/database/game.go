package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) CreateGame(game *models.Game) error {
	return create(d.db, game)
}

func (d *Database) GetGame(id uuid.UUID) (*models.Game, error) {
	return first[models.Game](d.db, id)
}

// RoomCodeInUse reports whether any game was ever created under code.
func (d *Database) RoomCodeInUse(code string) (bool, error) {
	var n int64
	err := d.db.Model(&models.Game{}).Where("room_code = ?", code).Count(&n).Error
	return n > 0, err
}

// LatestGame returns the newest game of a room.
func (d *Database) LatestGame(roomCode string) (*models.Game, error) {
	return d.latestGame(roomCode, false)
}

// LatestGameForUpdate is LatestGame with a row lock held until the
// surrounding transaction ends.
func (d *Database) LatestGameForUpdate(roomCode string) (*models.Game, error) {
	return d.latestGame(roomCode, true)
}

func (d *Database) latestGame(roomCode string, lock bool) (*models.Game, error) {
	query := d.db.Where("room_code = ?", roomCode).Order("created_at DESC")
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var game models.Game
	if err := query.First(&game).Error; err != nil {
		return nil, notFound(err)
	}
	return &game, nil
}

// SaveGameIfVersion writes the mutable game columns only if the stored row
// still carries version expected. On success game.Version is advanced.
func (d *Database) SaveGameIfVersion(game *models.Game, expected int64) error {
	now := time.Now()
	result := d.db.Model(&models.Game{}).
		Where("id = ? AND version = ?", game.ID, expected).
		Updates(map[string]any{
			"player_o_id":   game.PlayerOID,
			"player_o_name": game.PlayerOName,
			"board_state":   game.BoardState,
			"current_turn":  game.CurrentTurn,
			"status":        game.Status,
			"winner":        game.Winner,
			"version":       expected + 1,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	game.Version = expected + 1
	game.UpdatedAt = now
	return nil
}

func (d *Database) SaveGameHistory(entry *models.GameHistory) error {
	return create(d.db, entry)
}

func (d *Database) GetRoomHistory(roomCode string) ([]models.GameHistory, error) {
	return listByRoom[models.GameHistory](d.db, roomCode, "played_at DESC")
}
