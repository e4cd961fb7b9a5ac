package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveUser(user *models.User) error {
	return create(d.db, user)
}

func (d *Database) GetUser(id uuid.UUID) (*models.User, error) {
	return first[models.User](d.db, id)
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (d *Database) UpdateLastSeen(id uuid.UUID) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}

func (d *Database) GetProfile(userID uuid.UUID) (*models.Profile, error) {
	profile := models.Profile{}
	if err := d.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// UpsertProfile creates the user's profile or overwrites its editable fields.
func (d *Database) UpsertProfile(profile *models.Profile) (*models.Profile, error) {
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "avatar_url", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return nil, err
	}
	return d.GetProfile(profile.UserID)
}

// UserExists reports whether email or username is already registered.
func (d *Database) UserExists(email, username string) (bool, error) {
	var n int64
	err := d.db.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&n).Error
	return n > 0, err
}
