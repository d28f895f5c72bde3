package entity

import (
	"strconv"
	"time"
)

const (
	ReservationStatusPending           = "pending"
	ReservationStatusConfirmed         = "confirmed"
	ReservationStatusPaymentInProgress = "payment_in_progress"
	ReservationStatusPaid              = "paid"
	ReservationStatusCanceled          = "canceled"
)

const (
	ReservationKindStandard      = "standard"
	ReservationKindPrivatization = "privatization"
)

// Reservation dates are stored as YYYY-MM-DD and times as zero padded HH:MM
// so that range comparisons work on the raw column values.
type Reservation struct {
	ID uint64

	UserID *string

	Name    string
	Email   string
	Phone   string
	RoomID  uint64
	Date    string
	Start   string
	End     string
	Persons int
	Comment *string

	Kind   string
	Status string

	TotalCents *int64
	SessionID  *string
	ClientIP   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotKey identifies the held slot. Canceled reservations release it.
func (r *Reservation) SlotKey() *string {
	if r.Status == ReservationStatusCanceled {
		return nil
	}
	key := SlotKey(r.RoomID, r.Date, r.Start, r.End)
	return &key
}

func SlotKey(roomID uint64, date, start, end string) string {
	return strconv.FormatUint(roomID, 10) + "|" + date + "|" + start + "|" + end
}

func (r *Reservation) IsOwnedBy(userID string) bool {
	return r.UserID != nil && userID != "" && *r.UserID == userID
}

// CanTransitionReservation reports whether the reservation state machine allows from -> to.
func CanTransitionReservation(from, to string) bool {
	switch from {
	case ReservationStatusPending:
		return to == ReservationStatusConfirmed || to == ReservationStatusCanceled
	case ReservationStatusConfirmed:
		return to == ReservationStatusCanceled
	case ReservationStatusPaymentInProgress:
		return to == ReservationStatusPaid || to == ReservationStatusCanceled
	case ReservationStatusPaid:
		return to == ReservationStatusCanceled
	default:
		return false
	}
}
