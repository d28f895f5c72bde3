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
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
)

const paymentColumns = `id, reservation_id, session_id, intent_id, amount_cents, currency, customer_email,
	status, refunded_cents, last_event_at, settled_at, created_at, updated_at`

type PaymentStats struct {
	Succeeded    int64
	RevenueCents int64
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			reservation_id, session_id, intent_id, amount_cents, currency, customer_email,
			status, refunded_cents, last_event_at, settled_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.ReservationID,
		payment.SessionID,
		nullableStringValue(payment.IntentID),
		payment.AmountCents,
		payment.Currency,
		payment.CustomerEmail,
		payment.Status,
		payment.RefundedCents,
		nullableTimeValue(payment.LastEventAt),
		nullableTimeValue(payment.SettledAt),
		payment.CreatedAt.UTC(),
		payment.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

// Update writes the mutable columns. amount_cents is never rewritten.
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments SET
			intent_id = ?,
			status = ?,
			refunded_cents = ?,
			last_event_at = ?,
			settled_at = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(payment.IntentID),
		payment.Status,
		payment.RefundedCents,
		nullableTimeValue(payment.LastEventAt),
		nullableTimeValue(payment.SettledAt),
		payment.UpdatedAt.UTC(),
		payment.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

func (r *PaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE session_id = ?`, sessionID)
}

func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE intent_id = ? ORDER BY id DESC LIMIT 1`, intentID)
}

// FindLatestByReservation returns the newest payment of the reservation, optionally
// restricted to the given statuses.
func (r *PaymentRepository) FindLatestByReservation(ctx context.Context, reservationID uint64, statuses ...string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = ?`
	args := []interface{}{reservationID}
	if len(statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY id DESC LIMIT 1"
	return r.findOne(ctx, query, args...)
}

func (r *PaymentRepository) ListByReservation(ctx context.Context, reservationID uint64) ([]*entity.Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reservation_id = ? ORDER BY id ASC`, reservationID)
}

// ListForReconcile returns open payments that have not moved since before.
func (r *PaymentRepository) ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status IN (?, ?)
		  AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`
	return r.query(ctx, query, entity.PaymentStatusPending, entity.PaymentStatusProcessing, before.UTC(), limit)
}

func (r *PaymentRepository) Stats(ctx context.Context) (*PaymentStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = ?`

	stats := &PaymentStats{}
	if err := r.db.QueryRowContext(ctx, query, entity.PaymentStatusSucceeded).Scan(&stats.Succeeded, &stats.RevenueCents); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Payment, error) {
	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, args...), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var intentID sql.NullString
	var lastEventAt sql.NullTime
	var settledAt sql.NullTime

	err := scan.Scan(
		&payment.ID,
		&payment.ReservationID,
		&payment.SessionID,
		&intentID,
		&payment.AmountCents,
		&payment.Currency,
		&payment.CustomerEmail,
		&payment.Status,
		&payment.RefundedCents,
		&lastEventAt,
		&settledAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.IntentID = stringPtrFromNull(intentID)
	payment.LastEventAt = timePtrFromNull(lastEventAt)
	payment.SettledAt = timePtrFromNull(settledAt)
	payment.CreatedAt = payment.CreatedAt.UTC()
	payment.UpdatedAt = payment.UpdatedAt.UTC()
	return nil
}
