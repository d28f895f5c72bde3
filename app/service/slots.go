package service

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

// SlotRegistry owns the check-then-write sequence on reservations. Writes run
// under the room row lock so two submissions for one room cannot both pass
// the overlap check; the unique slot key catches anything that bypasses it.
type SlotRegistry struct {
	store *repository.Store
}

func NewSlotRegistry(store *repository.Store) *SlotRegistry {
	return &SlotRegistry{store: store}
}

// CheckOverlap reports whether [start, end) on date intersects a non-canceled
// reservation of the room. Inverted or empty ranges are a validation error.
func (r *SlotRegistry) CheckOverlap(ctx context.Context, roomID uint64, date, start, end string) (bool, error) {
	v := &ValidationError{}
	start, end = validateTimeRange(v, start, end)
	if err := v.Err(); err != nil {
		return false, err
	}
	return r.store.Reservations().HasOverlap(ctx, roomID, date, start, end, 0)
}

// Create locks the room, checks the slot and inserts the reservation in one transaction.
func (r *SlotRegistry) Create(ctx context.Context, reservation *entity.Reservation) error {
	return r.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		return r.hold(ctx, tx, reservation)
	})
}

// hold expects the room lock to be held by tx. A reservation with an id is
// rewritten in place and excluded from its own overlap check.
func (r *SlotRegistry) hold(ctx context.Context, tx *repository.Store, reservation *entity.Reservation) error {
	repo := tx.Reservations()

	if reservation.Status != entity.ReservationStatusCanceled {
		taken, err := repo.HasOverlap(ctx, reservation.RoomID, reservation.Date, reservation.Start, reservation.End, reservation.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotConflict
		}
	}

	var err error
	if reservation.ID == 0 {
		err = repo.Create(ctx, reservation)
	} else {
		err = repo.Update(ctx, reservation)
	}
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return ErrSlotConflict
	case errors.Is(err, repository.ErrReservationNotFound):
		return ErrReservationNotFound
	}
	return err
}

func lockRoom(ctx context.Context, tx *repository.Store, roomID uint64) error {
	if err := tx.Reservations().LockRoom(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}
