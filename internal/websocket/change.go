package websocket

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Change describes one committed row write. New is absent for deletes; Old
// is only present for deletes and carries the removed row.
type Change struct {
	Event    EventType       `json:"event"`
	Table    string          `json:"table"`
	RoomCode string          `json:"room_code,omitempty"`
	New      json.RawMessage `json:"new,omitempty"`
	Old      json.RawMessage `json:"old,omitempty"`
}

// NewChange encodes row into a Change of the given kind.
func NewChange(event EventType, table, roomCode string, row any) (Change, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Change{}, fmt.Errorf("encode %s row: %w", table, err)
	}

	c := Change{Event: event, Table: table, RoomCode: roomCode}
	switch event {
	case EventInsert, EventUpdate:
		c.New = data
	case EventDelete:
		c.Old = data
	default:
		return Change{}, ErrInvalidEventType
	}
	return c, nil
}

// Topic is the fan-out key for a table, optionally narrowed to one room.
func Topic(table, roomCode string) string {
	if roomCode == "" {
		return table + ":*"
	}
	return table + ":" + roomCode
}
