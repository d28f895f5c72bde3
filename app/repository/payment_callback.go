package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

type PaymentCallbackRepository struct {
	db DBTX
}

func NewPaymentCallbackRepository(db DBTX) *PaymentCallbackRepository {
	return &PaymentCallbackRepository{db: db}
}

func (r *PaymentCallbackRepository) Create(ctx context.Context, callback *entity.PaymentCallback) error {
	query := `
		INSERT INTO payment_callbacks (
			provider, provider_event_id, event_type, signature, payload_json, status, error, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		callback.Provider,
		nullableStringValue(callback.ProviderEventID),
		nullableStringValue(callback.EventType),
		callback.Signature,
		callback.PayloadJSON,
		callback.Status,
		nullableStringValue(callback.Error),
		callback.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	callback.ID = uint64(id)

	return nil
}

func (r *PaymentCallbackRepository) ListByStatus(ctx context.Context, status string, limit int32) ([]*entity.PaymentCallback, error) {
	query := `
		SELECT id, provider, provider_event_id, event_type, signature, payload_json, status, error, created_at
		FROM payment_callbacks
		WHERE status = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	callbacks := make([]*entity.PaymentCallback, 0)
	for rows.Next() {
		var eventID, eventType, errMsg sql.NullString
		item := &entity.PaymentCallback{}
		if err := rows.Scan(
			&item.ID,
			&item.Provider,
			&eventID,
			&eventType,
			&item.Signature,
			&item.PayloadJSON,
			&item.Status,
			&errMsg,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.ProviderEventID = stringPtrFromNull(eventID)
		item.EventType = stringPtrFromNull(eventType)
		item.Error = stringPtrFromNull(errMsg)
		callbacks = append(callbacks, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return callbacks, nil
}
