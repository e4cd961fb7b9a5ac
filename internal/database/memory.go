package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/models"
)

func (d *Database) SaveMemory(memory *models.Memory) error {
	return create(d.db, memory)
}

func (d *Database) GetRoomMemories(roomCode string) ([]models.Memory, error) {
	return listByRoom[models.Memory](d.db, roomCode, "memory_date DESC", "created_at DESC")
}

func (d *Database) UpdateMemory(id uuid.UUID, updates map[string]any) (*models.Memory, error) {
	return updateByID[models.Memory](d.db, id, updates)
}

func (d *Database) DeleteMemory(id uuid.UUID) (*models.Memory, error) {
	return deleteByID[models.Memory](d.db, id)
}

func (d *Database) SaveStoryEvent(event *models.StoryEvent) error {
	return create(d.db, event)
}

// GetUserStory returns the author's timeline in chronological order.
func (d *Database) GetUserStory(userID uuid.UUID) ([]models.StoryEvent, error) {
	events := []models.StoryEvent{}
	err := d.db.
		Where("user_id = ?", userID).
		Order("event_date ASC").
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (d *Database) GetStoryEvent(id uuid.UUID) (*models.StoryEvent, error) {
	return first[models.StoryEvent](d.db, id)
}

func (d *Database) UpdateStoryEvent(id uuid.UUID, updates map[string]any) (*models.StoryEvent, error) {
	return updateByID[models.StoryEvent](d.db, id, updates)
}

func (d *Database) DeleteStoryEvent(id uuid.UUID) (*models.StoryEvent, error) {
	return deleteByID[models.StoryEvent](d.db, id)
}
