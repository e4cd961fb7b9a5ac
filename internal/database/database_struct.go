package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrStaleVersion = errors.New("row was modified by another writer")
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Transaction runs fn against a Database bound to a single transaction.
// Returning an error from fn rolls the transaction back.
func (d *Database) Transaction(fn func(tx *Database) error) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func create[T any](db *gorm.DB, row *T) error {
	return db.Create(row).Error
}

func first[T any](db *gorm.DB, id uuid.UUID) (*T, error) {
	var row T
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// updateByID applies a partial update and returns the row as stored afterwards.
func updateByID[T any](db *gorm.DB, id uuid.UUID, updates map[string]any) (*T, error) {
	row, err := first[T](db, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := db.Model(row).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return first[T](db, id)
}

// deleteByID removes a row and hands back what was removed so callers can
// announce it.
func deleteByID[T any](db *gorm.DB, id uuid.UUID) (*T, error) {
	row, err := first[T](db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func listByRoom[T any](db *gorm.DB, roomCode string, order ...string) ([]T, error) {
	rows := []T{}
	query := db.Where("room_code = ?", roomCode)
	for _, o := range order {
		query = query.Order(o)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
