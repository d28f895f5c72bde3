package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// Upsert inserts the room or refreshes its name, capacity and active flag.
func (r *RoomRepository) Upsert(ctx context.Context, room *entity.Room) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, capacity = ?, active = ?, updated_at = ? WHERE id = ?`,
		room.Name, room.Capacity, room.Active, now, room.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, capacity, active, lock_seq, created_at, updated_at) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		room.ID, room.Name, room.Capacity, room.Active, now, now,
	)
	return err
}

func (r *RoomRepository) FindByID(ctx context.Context, id uint64) (*entity.Room, error) {
	room := &entity.Room{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, capacity, active FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.Name, &room.Capacity, &room.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Room, error) {
	query := `SELECT id, name, capacity, active FROM rooms`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*entity.Room, 0)
	for rows.Next() {
		room := &entity.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity, &room.Active); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}
