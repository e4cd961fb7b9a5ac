package database

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/thereayou/lovenest/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the postgres database at dsn and migrates the schema.
func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}
	return d.Open(postgres.Open(dsn))
}

// Open is Connect for an arbitrary gorm dialector.
func (d *Database) Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.ChatMessage{},
		&models.Letter{},
		&models.Memory{},
		&models.StoryEvent{},
		&models.Bouquet{},
		&models.WishlistItem{},
		&models.Game{},
		&models.GameHistory{},
	)
	if err != nil {
		return err
	}

	d.db = db

	return nil
}

// SetMaxOpenConns caps the underlying pool.
func (d *Database) SetMaxOpenConns(n int) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(n)
	return nil
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
