package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

func ReservationToResponse(item *entity.Reservation) *types.Reservation {
	if item == nil {
		return nil
	}

	return &types.Reservation{
		ID:         item.ID,
		UserID:     derefString(item.UserID),
		Name:       item.Name,
		Email:      item.Email,
		Phone:      item.Phone,
		RoomID:     item.RoomID,
		Date:       item.Date,
		StartTime:  item.Start,
		EndTime:    item.End,
		Persons:    item.Persons,
		Comment:    derefString(item.Comment),
		Kind:       item.Kind,
		Status:     item.Status,
		TotalCents: item.TotalCents,
		SessionID:  derefString(item.SessionID),
		CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ReservationsToResponse(items []*entity.Reservation) []*types.Reservation {
	result := make([]*types.Reservation, 0, len(items))
	for _, item := range items {
		result = append(result, ReservationToResponse(item))
	}
	return result
}

func RoomsToResponse(items []*entity.Room) []*types.Room {
	result := make([]*types.Room, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		result = append(result, &types.Room{ID: item.ID, Name: item.Name, Capacity: item.Capacity})
	}
	return result
}
