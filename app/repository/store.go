package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Store groups the repositories over one connection pool or one open transaction.
type Store struct {
	db *sql.DB
	q  DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Reservations() *ReservationRepository {
	return NewReservationRepository(s.q)
}

func (s *Store) Payments() *PaymentRepository {
	return NewPaymentRepository(s.q)
}

func (s *Store) PaymentEvents() *PaymentEventRepository {
	return NewPaymentEventRepository(s.q)
}

func (s *Store) Callbacks() *PaymentCallbackRepository {
	return NewPaymentCallbackRepository(s.q)
}

func (s *Store) Rooms() *RoomRepository {
	return NewRoomRepository(s.q)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// WithinTx runs fn against a transactional Store and commits when fn returns nil.
// Nested calls reuse the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
