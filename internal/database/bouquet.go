package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/models"
)

func (d *Database) SaveBouquet(bouquet *models.Bouquet) error {
	return create(d.db, bouquet)
}

func (d *Database) GetRoomBouquets(roomCode string) ([]models.Bouquet, error) {
	return listByRoom[models.Bouquet](d.db, roomCode, "created_at DESC")
}

func (d *Database) DeleteBouquet(id uuid.UUID) (*models.Bouquet, error) {
	return deleteByID[models.Bouquet](d.db, id)
}

func (d *Database) SaveWishlistItem(item *models.WishlistItem) error {
	return create(d.db, item)
}

// GetRoomWishlist lists open wishes before completed ones, newest first
// within each group. An empty category means all of them.
func (d *Database) GetRoomWishlist(roomCode string, category models.WishCategory) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	query := d.db.Where("room_code = ?", roomCode)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.
		Order("completed ASC").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (d *Database) UpdateWishlistItem(id uuid.UUID, updates map[string]any) (*models.WishlistItem, error) {
	return updateByID[models.WishlistItem](d.db, id, updates)
}

// ToggleWishlistItem flips completion and keeps completed_at in step with it.
func (d *Database) ToggleWishlistItem(id uuid.UUID) (*models.WishlistItem, error) {
	item, err := first[models.WishlistItem](d.db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"completed": !item.Completed, "completed_at": nil}
	if !item.Completed {
		updates["completed_at"] = time.Now()
	}
	return updateByID[models.WishlistItem](d.db, id, updates)
}

func (d *Database) DeleteWishlistItem(id uuid.UUID) (*models.WishlistItem, error) {
	return deleteByID[models.WishlistItem](d.db, id)
}
