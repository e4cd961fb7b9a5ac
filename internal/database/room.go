package database

import "github.com/thereayou/lovenest/internal/models"

// RoomActivity counts the rows each room-scoped table holds for roomCode.
func (d *Database) RoomActivity(roomCode string) (map[string]int64, error) {
	counts := make(map[string]int64, len(models.RoomTables))
	for _, table := range models.RoomTables {
		var n int64
		if err := d.db.Table(table).Where("room_code = ?", roomCode).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}
