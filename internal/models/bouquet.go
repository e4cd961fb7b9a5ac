package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlowerType string

const (
	FlowerRose         FlowerType = "rose"
	FlowerTulip        FlowerType = "tulip"
	FlowerSunflower    FlowerType = "sunflower"
	FlowerLily         FlowerType = "lily"
	FlowerDaisy        FlowerType = "daisy"
	FlowerHibiscus     FlowerType = "hibiscus"
	FlowerCherry       FlowerType = "cherry"
	FlowerMixedBouquet FlowerType = "bouquet"
)

const MaxFlowersInBouquet = 12

var knownFlowers = map[FlowerType]bool{
	FlowerRose:         true,
	FlowerTulip:        true,
	FlowerSunflower:    true,
	FlowerLily:         true,
	FlowerDaisy:        true,
	FlowerHibiscus:     true,
	FlowerCherry:       true,
	FlowerMixedBouquet: true,
}

var (
	ErrNoFlowers      = errors.New("a bouquet needs at least one flower")
	ErrTooManyFlowers = fmt.Errorf("a bouquet holds at most %d flowers", MaxFlowersInBouquet)
	ErrUnknownFlower  = errors.New("unknown flower type")
)

// Flowers is the ordered content of a bouquet, stored as a JSON array.
type Flowers []FlowerType

func (f Flowers) Validate() error {
	if len(f) == 0 {
		return ErrNoFlowers
	}
	if len(f) > MaxFlowersInBouquet {
		return ErrTooManyFlowers
	}
	for _, flower := range f {
		if !knownFlowers[flower] {
			return fmt.Errorf("%w: %q", ErrUnknownFlower, flower)
		}
	}
	return nil
}

func (f Flowers) Value() (driver.Value, error) {
	if f == nil {
		f = Flowers{}
	}
	data, err := json.Marshal([]FlowerType(f))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (f *Flowers) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Flowers", src)
	}
	return json.Unmarshal(data, (*[]FlowerType)(f))
}

type Bouquet struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode   string    `gorm:"size:64;not null;index" json:"room_code"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	SenderName string    `gorm:"not null;default:'Your Love'" json:"sender_name"`
	Flowers    Flowers   `gorm:"type:text;not null" json:"flowers"`
	Message    *string   `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Bouquet) TableName() string { return TableBouquets }

func (b *Bouquet) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

type WishCategory string

const (
	CategoryGift     WishCategory = "Gift"
	CategoryDate     WishCategory = "Date"
	CategoryDream    WishCategory = "Dream"
	CategoryTravel   WishCategory = "Travel"
	CategorySurprise WishCategory = "Surprise"
)

// Valid reports whether c is one of the wishlist categories.
func (c WishCategory) Valid() bool {
	switch c {
	case CategoryGift, CategoryDate, CategoryDream, CategoryTravel, CategorySurprise:
		return true
	}
	return false
}

type WishlistItem struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	RoomCode      string       `gorm:"size:64;not null;index" json:"room_code"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null" json:"user_id"`
	CreatedByName string       `gorm:"not null" json:"created_by_name"`
	Title         string       `gorm:"not null" json:"title"`
	Category      WishCategory `gorm:"size:16;not null;default:'Gift'" json:"category"`
	Note          *string      `json:"note"`
	Completed     bool         `gorm:"not null;default:false" json:"completed"`
	CompletedAt   *time.Time   `json:"completed_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (WishlistItem) TableName() string { return TableWishlist }

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}
