package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type SubmitReservationRequest struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	RoomID    uint64 `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Persons   int    `json:"persons"`
	Comment   string `json:"comment"`
	ClientIP  string `json:"-"`
}

func NewSubmitReservationRequestFromContext(ctx echo.Context) (*SubmitReservationRequest, error) {
	var body SubmitReservationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Kind = strings.ToLower(strings.TrimSpace(body.Kind))
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	body.Phone = strings.TrimSpace(body.Phone)
	body.Date = strings.TrimSpace(body.Date)
	body.StartTime = strings.TrimSpace(body.StartTime)
	body.EndTime = strings.TrimSpace(body.EndTime)
	body.ClientIP = ctx.RealIP()

	return &body, nil
}

// Validate only checks the request shape; field rules live in the service so
// that every field error is reported together.
func (r *SubmitReservationRequest) Validate() error {
	if r.Kind != "" && r.Kind != "standard" && r.Kind != "privatization" {
		return errors.New("kind must be standard or privatization")
	}
	return nil
}

func (r *SubmitReservationRequest) GetKind() string      { return r.Kind }
func (r *SubmitReservationRequest) GetName() string      { return r.Name }
func (r *SubmitReservationRequest) GetEmail() string     { return r.Email }
func (r *SubmitReservationRequest) GetPhone() string     { return r.Phone }
func (r *SubmitReservationRequest) GetRoomID() uint64    { return r.RoomID }
func (r *SubmitReservationRequest) GetDate() string      { return r.Date }
func (r *SubmitReservationRequest) GetStartTime() string { return r.StartTime }
func (r *SubmitReservationRequest) GetEndTime() string   { return r.EndTime }
func (r *SubmitReservationRequest) GetPersons() int      { return r.Persons }
func (r *SubmitReservationRequest) GetComment() string   { return r.Comment }
func (r *SubmitReservationRequest) GetClientIP() string  { return r.ClientIP }

type ReservationIDRequest struct {
	ID uint64
}

func NewReservationIDRequestFromContext(ctx echo.Context, param string) (*ReservationIDRequest, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(param)), 10, 64)
	if err != nil {
		return nil, err
	}
	return &ReservationIDRequest{ID: id}, nil
}

func (r *ReservationIDRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid reservation id")
	}
	return nil
}

// UpdateReservationRequest leaves fields that were not sent as nil.
type UpdateReservationRequest struct {
	ID        uint64  `json:"-"`
	Phone     *string `json:"phone"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Persons   *int    `json:"persons"`
	Comment   *string `json:"comment"`
	Status    *string `json:"status"`
}

func NewUpdateReservationRequestFromContext(ctx echo.Context) (*UpdateReservationRequest, error) {
	id, err := NewReservationIDRequestFromContext(ctx, "id")
	if err != nil {
		return nil, err
	}

	var body UpdateReservationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.ID = id.ID
	body.Status = trimmedPtr(body.Status)

	return &body, nil
}

func (r *UpdateReservationRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid reservation id")
	}
	if r.Phone == nil && r.Date == nil && r.StartTime == nil && r.EndTime == nil &&
		r.Persons == nil && r.Comment == nil && r.Status == nil {
		return errors.New("at least one field is required")
	}
	return nil
}

func (r *UpdateReservationRequest) GetPhone() *string     { return r.Phone }
func (r *UpdateReservationRequest) GetDate() *string      { return r.Date }
func (r *UpdateReservationRequest) GetStartTime() *string { return r.StartTime }
func (r *UpdateReservationRequest) GetEndTime() *string   { return r.EndTime }
func (r *UpdateReservationRequest) GetPersons() *int      { return r.Persons }
func (r *UpdateReservationRequest) GetComment() *string   { return r.Comment }
func (r *UpdateReservationRequest) GetStatus() *string    { return r.Status }

type ListReservationsRequest struct {
	Status string
	Kind   string
	Date   string
	RoomID uint64
	Limit  int32
	Offset int32
}

func NewListReservationsRequestFromContext(ctx echo.Context) (*ListReservationsRequest, error) {
	req := &ListReservationsRequest{
		Status: strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		Kind:   strings.ToLower(strings.TrimSpace(ctx.QueryParam("kind"))),
		Date:   strings.TrimSpace(ctx.QueryParam("date")),
		Limit:  50,
	}

	if raw := strings.TrimSpace(ctx.QueryParam("room_id")); raw != "" {
		roomID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.RoomID = roomID
	}
	if raw := strings.TrimSpace(ctx.QueryParam("limit")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}
	if raw := strings.TrimSpace(ctx.QueryParam("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListReservationsRequest) Validate() error {
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	switch r.Status {
	case "", "pending", "confirmed", "payment_in_progress", "paid", "canceled":
	default:
		return errors.New("status is invalid")
	}
	if r.Kind != "" && r.Kind != "standard" && r.Kind != "privatization" {
		return errors.New("kind must be standard or privatization")
	}
	return nil
}

func (r *ListReservationsRequest) GetStatus() string { return r.Status }
func (r *ListReservationsRequest) GetKind() string   { return r.Kind }
func (r *ListReservationsRequest) GetDate() string   { return r.Date }
func (r *ListReservationsRequest) GetRoomID() uint64 { return r.RoomID }
func (r *ListReservationsRequest) GetLimit() int32   { return r.Limit }
func (r *ListReservationsRequest) GetOffset() int32  { return r.Offset }

type Reservation struct {
	ID         uint64 `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	RoomID     uint64 `json:"room_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Persons    int    `json:"persons"`
	Comment    string `json:"comment,omitempty"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	TotalCents *int64 `json:"total_cents,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ReservationEnvelopeResponse struct {
	Reservation *Reservation `json:"reservation"`
}

type ListReservationsResponse struct {
	Reservations []*Reservation `json:"reservations"`
}

type Room struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type ListRoomsResponse struct {
	Rooms []*Room `json:"rooms"`
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*v))
	return &trimmed
}
