package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

var ErrDuplicateEvent = errors.New("payment event already recorded")

type PaymentEventRepository struct {
	db DBTX
}

func NewPaymentEventRepository(db DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create records the event. A repeated provider event id yields ErrDuplicateEvent.
func (r *PaymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (
			payment_id, event_type, outcome, old_status, new_status, provider_event_id, payload_json, occurred_at, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.PaymentID,
		event.EventType,
		event.Outcome,
		nullableStringValue(event.OldStatus),
		event.NewStatus,
		nullableStringValue(event.ProviderEventID),
		nullableStringValue(event.PayloadJSON),
		event.OccurredAt.UTC(),
		event.CreatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEvent
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}

func (r *PaymentEventRepository) ListByPayment(ctx context.Context, paymentID uint64) ([]*entity.PaymentEvent, error) {
	query := `
		SELECT id, payment_id, event_type, outcome, old_status, new_status, provider_event_id, payload_json, occurred_at, created_at
		FROM payment_events
		WHERE payment_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*entity.PaymentEvent, 0)
	for rows.Next() {
		var oldStatus, providerEventID, payload sql.NullString
		item := &entity.PaymentEvent{}
		if err := rows.Scan(
			&item.ID,
			&item.PaymentID,
			&item.EventType,
			&item.Outcome,
			&oldStatus,
			&item.NewStatus,
			&providerEventID,
			&payload,
			&item.OccurredAt,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.OldStatus = stringPtrFromNull(oldStatus)
		item.ProviderEventID = stringPtrFromNull(providerEventID)
		item.PayloadJSON = stringPtrFromNull(payload)
		events = append(events, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
