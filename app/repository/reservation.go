package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrSlotTaken           = errors.New("slot already taken")
)

const reservationColumns = `id, user_id, name, email, phone, room_id, reservation_date, start_time, end_time,
	persons, comment, kind, status, total_cents, session_id, client_ip, created_at, updated_at`

type ReservationFilter struct {
	UserID string
	Status string
	Kind   string
	Date   string
	RoomID uint64
	Limit  int32
	Offset int32
}

type ReservationStats struct {
	Total          int64
	Paid           int64
	Privatizations int64
	ByStatus       map[string]int64
}

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// LockRoom takes the per-room write lock for the current transaction. Every
// slot mutation for the room serializes on this row. Inactive rooms can still be
// locked so existing reservations stay manageable.
func (r *ReservationRepository) LockRoom(ctx context.Context, roomID uint64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE rooms SET lock_seq = lock_seq + 1 WHERE id = ?`, roomID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// HasOverlap reports whether [start, end) intersects a non-canceled reservation
// of the room on date. excludeID skips one reservation, 0 skips none.
func (r *ReservationRepository) HasOverlap(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE room_id = ?
		  AND reservation_date = ?
		  AND status <> ?
		  AND start_time < ?
		  AND ? < end_time
		  AND id <> ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, query, roomID, date, entity.ReservationStatusCanceled, end, start, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (
			user_id, name, email, phone, room_id, reservation_date, start_time, end_time,
			persons, comment, kind, status, total_cents, session_id, client_ip, slot_key,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(reservation.UserID),
		reservation.Name,
		reservation.Email,
		reservation.Phone,
		reservation.RoomID,
		reservation.Date,
		reservation.Start,
		reservation.End,
		reservation.Persons,
		nullableStringValue(reservation.Comment),
		reservation.Kind,
		reservation.Status,
		nullableInt64Value(reservation.TotalCents),
		nullableStringValue(reservation.SessionID),
		nullableStringValue(reservation.ClientIP),
		nullableStringValue(reservation.SlotKey()),
		reservation.CreatedAt.UTC(),
		reservation.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrSlotTaken
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	reservation.ID = uint64(id)
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		UPDATE reservations SET
			phone = ?,
			reservation_date = ?,
			start_time = ?,
			end_time = ?,
			persons = ?,
			comment = ?,
			status = ?,
			total_cents = ?,
			session_id = ?,
			slot_key = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		reservation.Phone,
		reservation.Date,
		reservation.Start,
		reservation.End,
		reservation.Persons,
		nullableStringValue(reservation.Comment),
		reservation.Status,
		nullableInt64Value(reservation.TotalCents),
		nullableStringValue(reservation.SessionID),
		nullableStringValue(reservation.SlotKey()),
		reservation.UpdatedAt.UTC(),
		reservation.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrSlotTaken
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uint64) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

	reservation := &entity.Reservation{}
	if err := scanReservation(r.db.QueryRowContext(ctx, query, id), reservation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE session_id = ? LIMIT 1`

	reservation := &entity.Reservation{}
	if err := scanReservation(r.db.QueryRowContext(ctx, query, sessionID), reservation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepository) List(ctx context.Context, filter ReservationFilter) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`

	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)

	if strings.TrimSpace(filter.UserID) != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if strings.TrimSpace(filter.Kind) != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if strings.TrimSpace(filter.Date) != "" {
		conditions = append(conditions, "reservation_date = ?")
		args = append(args, filter.Date)
	}
	if filter.RoomID > 0 {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY reservation_date DESC, start_time DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	return r.query(ctx, query, args...)
}

// ListOrphans returns paid-flow reservations that never got a payment row.
func (r *ReservationRepository) ListOrphans(ctx context.Context, createdBefore time.Time, limit int32) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = ?
		  AND created_at <= ?
		  AND NOT EXISTS (SELECT 1 FROM payments WHERE payments.reservation_id = reservations.id)
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.query(ctx, query, entity.ReservationStatusPaymentInProgress, createdBefore.UTC(), limit)
}

func (r *ReservationRepository) Stats(ctx context.Context) (*ReservationStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, kind, COUNT(*) FROM reservations GROUP BY status, kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &ReservationStats{ByStatus: map[string]int64{}}
	for rows.Next() {
		var status, kind string
		var count int64
		if err := rows.Scan(&status, &kind, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		if status == entity.ReservationStatusPaid {
			stats.Paid += count
		}
		if kind == entity.ReservationKindPrivatization {
			stats.Privatizations += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ReservationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*entity.Reservation, 0)
	for rows.Next() {
		item := &entity.Reservation{}
		if err := scanReservation(rows, item); err != nil {
			return nil, err
		}
		reservations = append(reservations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func scanReservation(scan rowScanner, reservation *entity.Reservation) error {
	var userID sql.NullString
	var comment sql.NullString
	var totalCents sql.NullInt64
	var sessionID sql.NullString
	var clientIP sql.NullString

	err := scan.Scan(
		&reservation.ID,
		&userID,
		&reservation.Name,
		&reservation.Email,
		&reservation.Phone,
		&reservation.RoomID,
		&reservation.Date,
		&reservation.Start,
		&reservation.End,
		&reservation.Persons,
		&comment,
		&reservation.Kind,
		&reservation.Status,
		&totalCents,
		&sessionID,
		&clientIP,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return err
	}

	reservation.UserID = stringPtrFromNull(userID)
	reservation.Comment = stringPtrFromNull(comment)
	reservation.TotalCents = int64PtrFromNull(totalCents)
	reservation.SessionID = stringPtrFromNull(sessionID)
	reservation.ClientIP = stringPtrFromNull(clientIP)
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
	return nil
}
