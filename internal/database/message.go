package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/models"
)

func (d *Database) SaveChatMessage(message *models.ChatMessage) error {
	return create(d.db, message)
}

// GetRoomMessages returns the room's chat oldest first.
func (d *Database) GetRoomMessages(roomCode string) ([]models.ChatMessage, error) {
	return listByRoom[models.ChatMessage](d.db, roomCode, "created_at ASC")
}

func (d *Database) DeleteChatMessage(id uuid.UUID) (*models.ChatMessage, error) {
	return deleteByID[models.ChatMessage](d.db, id)
}

func (d *Database) SaveLetter(letter *models.Letter) error {
	return create(d.db, letter)
}

func (d *Database) GetRoomLetters(roomCode string) ([]models.Letter, error) {
	return listByRoom[models.Letter](d.db, roomCode, "created_at DESC")
}

func (d *Database) UpdateLetter(id uuid.UUID, updates map[string]any) (*models.Letter, error) {
	return updateByID[models.Letter](d.db, id, updates)
}

// MarkLetterRead stamps read_at the first time a letter is opened.
func (d *Database) MarkLetterRead(id uuid.UUID) (*models.Letter, error) {
	letter, err := first[models.Letter](d.db, id)
	if err != nil {
		return nil, err
	}
	if letter.Read {
		return letter, nil
	}
	return updateByID[models.Letter](d.db, id, map[string]any{
		"read":    true,
		"read_at": time.Now(),
	})
}

func (d *Database) DeleteLetter(id uuid.UUID) (*models.Letter, error) {
	return deleteByID[models.Letter](d.db, id)
}
