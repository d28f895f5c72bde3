package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

func PaymentToResponse(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	return &types.Payment{
		ID:            item.ID,
		ReservationID: item.ReservationID,
		SessionID:     item.SessionID,
		IntentID:      derefString(item.IntentID),
		AmountCents:   item.AmountCents,
		Currency:      item.Currency,
		Status:        item.Status,
		RefundedCents: item.RefundedCents,
		SettledAt:     formatTimePtr(item.SettledAt),
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func PaymentsToResponse(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}

func QuoteToResponse(quote *service.Quote) *types.QuoteResponse {
	if quote == nil {
		return nil
	}
	return &types.QuoteResponse{
		Persons:        quote.Persons,
		Currency:       quote.Currency,
		BaseCents:      quote.BaseCents,
		PerPersonCents: quote.PerPersonCents,
		TotalCents:     quote.TotalCents,
	}
}

func CheckoutToResponse(result *service.SubmitResult) *types.CheckoutResponse {
	resp := &types.CheckoutResponse{
		Reservation: ReservationToResponse(result.Reservation),
		CheckoutURL: result.CheckoutURL,
		SessionID:   result.SessionID,
		ExpiresAt:   result.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if result.Quote != nil {
		resp.TotalCents = result.Quote.TotalCents
		resp.Currency = result.Quote.Currency
	}
	return resp
}

func SessionStatusToResponse(sessionID string, status *service.SessionStatus) *types.SessionStatusResponse {
	resp := &types.SessionStatusResponse{
		SessionID:   sessionID,
		Payment:     PaymentToResponse(status.Payment),
		Reservation: sessionReservationToResponse(status.Reservation),
	}
	if status.Session != nil {
		resp.Status = status.Session.Status
		resp.PaymentStatus = status.Session.PaymentStatus
	}
	return resp
}

func sessionReservationToResponse(item *entity.Reservation) *types.SessionReservation {
	if item == nil {
		return nil
	}
	return &types.SessionReservation{
		ID:         item.ID,
		RoomID:     item.RoomID,
		Date:       item.Date,
		StartTime:  item.Start,
		EndTime:    item.End,
		Persons:    item.Persons,
		Kind:       item.Kind,
		Status:     item.Status,
		TotalCents: item.TotalCents,
	}
}

func StatsToResponse(stats *service.AdminStats) *types.StatsResponse {
	resp := &types.StatsResponse{ByStatus: map[string]int64{}}
	if stats.Reservations != nil {
		resp.TotalReservations = stats.Reservations.Total
		resp.PaidReservations = stats.Reservations.Paid
		resp.Privatizations = stats.Reservations.Privatizations
		for status, count := range stats.Reservations.ByStatus {
			resp.ByStatus[status] = count
		}
	}
	if stats.Payments != nil {
		resp.SucceededPayments = stats.Payments.Succeeded
		resp.RevenueCents = stats.Payments.RevenueCents
	}
	return resp
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
