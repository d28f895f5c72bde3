package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/export"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/config"
)

const (
	defaultListLimit = int32(50)
	maxListLimit     = int32(500)
	defaultBatchSize = int32(100)
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Requester is the authenticated caller. The zero value is an anonymous visitor.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

func (r Requester) IsAnonymous() bool {
	return strings.TrimSpace(r.UserID) == ""
}

type submitReservationRequest interface {
	GetKind() string
	GetName() string
	GetEmail() string
	GetPhone() string
	GetRoomID() uint64
	GetDate() string
	GetStartTime() string
	GetEndTime() string
	GetPersons() int
	GetComment() string
	GetClientIP() string
}

type updateReservationRequest interface {
	GetPhone() *string
	GetDate() *string
	GetStartTime() *string
	GetEndTime() *string
	GetPersons() *int
	GetComment() *string
	GetStatus() *string
}

type listReservationsRequest interface {
	GetStatus() string
	GetKind() string
	GetDate() string
	GetRoomID() uint64
	GetLimit() int32
	GetOffset() int32
}

type WorkflowConfig struct {
	Reservations config.ReservationsConfig
	Pricing      config.PricingConfig
	Payments     config.PaymentsConfig
	SuccessURL   string
	CancelURL    string
}

type SubmitResult struct {
	Reservation *entity.Reservation
	Payment     *entity.Payment
	Quote       *Quote
	CheckoutURL string
	SessionID   string
	ExpiresAt   time.Time
}

type SessionStatus struct {
	Session     *provider.CheckoutSession
	Payment     *entity.Payment
	Reservation *entity.Reservation
}

type AdminStats struct {
	Reservations *repository.ReservationStats
	Payments     *repository.PaymentStats
}

type ReservationService struct {
	store     *repository.Store
	slots     *SlotRegistry
	ledger    *Ledger
	pricing   *Pricing
	provider  provider.Provider
	publisher events.Publisher
	cfg       WorkflowConfig
	location  *time.Location
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewReservationService(
	store *repository.Store,
	ledger *Ledger,
	paymentProvider provider.Provider,
	publisher events.Publisher,
	cfg WorkflowConfig,
) (*ReservationService, error) {
	tz := strings.TrimSpace(cfg.Reservations.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &ReservationService{
		store:     store,
		slots:     NewSlotRegistry(store),
		ledger:    ledger,
		pricing:   NewPricing(cfg.Pricing),
		provider:  paymentProvider,
		publisher: publisher,
		cfg:       cfg,
		location:  location,
		logger:    factory.NewModuleLogger("reservation-service"),
		now:       time.Now,
	}, nil
}

func (s *ReservationService) Slots() *SlotRegistry {
	return s.slots
}

func (s *ReservationService) CalculatePrice(persons int) (*Quote, error) {
	return s.pricing.Quote(persons)
}

// Submit validates and books the slot. Privatizations additionally open a
// checkout session; if that or the payment record fails the reservation is
// canceled so the slot is released.
func (s *ReservationService) Submit(ctx context.Context, req submitReservationRequest, requester Requester) (*SubmitResult, error) {
	kind := strings.TrimSpace(req.GetKind())
	if kind == "" {
		kind = entity.ReservationKindStandard
	}
	if kind != entity.ReservationKindStandard && kind != entity.ReservationKindPrivatization {
		return nil, fieldError("kind", "must be standard or privatization")
	}

	now := s.now().UTC()
	v := &ValidationError{}
	reservation := &entity.Reservation{
		Name:      validateName(v, req.GetName()),
		Email:     validateEmail(v, req.GetEmail()),
		Phone:     validatePhone(v, req.GetPhone()),
		RoomID:    req.GetRoomID(),
		Date:      validateDate(v, req.GetDate(), now, s.location),
		Persons:   req.GetPersons(),
		Comment:   validateComment(v, req.GetComment()),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	reservation.Start, reservation.End = validateTimeRange(v, req.GetStartTime(), req.GetEndTime())
	if reservation.RoomID == 0 {
		v.Add("room_id", "is required")
	}
	if !requester.IsAnonymous() {
		userID := requester.UserID
		reservation.UserID = &userID
	}
	if ip := strings.TrimSpace(req.GetClientIP()); ip != "" {
		reservation.ClientIP = &ip
	}

	var quote *Quote
	if kind == entity.ReservationKindPrivatization {
		minPersons, maxPersons := s.pricing.Bounds()
		validatePersons(v, reservation.Persons, minPersons, maxPersons)
		reservation.Status = entity.ReservationStatusPaymentInProgress
	} else {
		validatePersons(v, reservation.Persons, s.cfg.Reservations.MinPartySize, s.cfg.Reservations.MaxPartySize)
		reservation.Status = entity.ReservationStatusPending
		if s.cfg.Reservations.AutoConfirm {
			reservation.Status = entity.ReservationStatusConfirmed
		}
	}
	if err := v.Err(); err != nil {
		metrics.IncSubmission(kind, "invalid")
		return nil, err
	}
	if kind == entity.ReservationKindPrivatization {
		var err error
		if quote, err = s.pricing.Quote(reservation.Persons); err != nil {
			return nil, err
		}
		total := quote.TotalCents
		reservation.TotalCents = &total
	}

	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		if err := checkRoom(ctx, tx, reservation); err != nil {
			return err
		}
		return s.slots.hold(ctx, tx, reservation)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrSlotConflict) {
			outcome = "conflict"
		}
		metrics.IncSubmission(kind, outcome)
		return nil, err
	}

	result := &SubmitResult{Reservation: reservation, Quote: quote}
	if kind == entity.ReservationKindStandard {
		metrics.IncSubmission(kind, "created")
		publish(ctx, s.publisher, s.logger, reservationEvent(events.TypeReservationCreated, reservation, now))
		return result, nil
	}

	if err := s.openCheckout(ctx, reservation, quote, result); err != nil {
		metrics.IncSubmission(kind, "checkout_failed")
		s.releaseSlot(ctx, reservation.ID)
		return nil, err
	}

	metrics.IncSubmission(kind, "created")
	publish(ctx, s.publisher, s.logger, reservationEvent(events.TypeReservationCreated, reservation, now))
	return result, nil
}

func (s *ReservationService) openCheckout(ctx context.Context, reservation *entity.Reservation, quote *Quote, result *SubmitResult) error {
	if s.provider == nil {
		return fmt.Errorf("%w: no payment provider configured", ErrExternalService)
	}

	expiry := s.cfg.Payments.SessionExpiry
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutSessionInput{
		ReservationID: reservation.ID,
		AmountCents:   quote.TotalCents,
		Currency:      quote.Currency,
		ProductName:   "Privatisation " + reservation.Date,
		Description:   fmt.Sprintf("%d personnes, %s-%s", reservation.Persons, reservation.Start, reservation.End),
		CustomerEmail: reservation.Email,
		ExpiresAt:     s.now().Add(expiry),
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
		Metadata: map[string]string{
			"persons": strconv.Itoa(reservation.Persons),
			"room_id": strconv.FormatUint(reservation.RoomID, 10),
			"date":    reservation.Date,
		},
	})
	if err != nil {
		s.logger.WithError(err).WithField("reservation_id", reservation.ID).Error("Create checkout session failed")
		return fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	err = s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		payment, err := s.ledger.recordPending(ctx, tx, reservation.ID, session.ID, quote.TotalCents, quote.Currency, reservation.Email)
		if err != nil {
			return err
		}

		current, err := tx.Reservations().FindByID(ctx, reservation.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrReservationNotFound
		}
		sessionID := session.ID
		current.SessionID = &sessionID
		current.UpdatedAt = s.now().UTC()
		if err := tx.Reservations().Update(ctx, current); err != nil {
			return err
		}
		*reservation = *current
		result.Payment = payment
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reservation_id": reservation.ID,
			"session_id":     session.ID,
		}).Error("Record pending payment failed")
		return err
	}

	result.CheckoutURL = session.URL
	result.SessionID = session.ID
	result.ExpiresAt = session.ExpiresAt
	if result.ExpiresAt.IsZero() {
		result.ExpiresAt = s.now().Add(expiry).UTC()
	}
	return nil
}

// releaseSlot cancels a reservation whose checkout never got under way.
func (s *ReservationService) releaseSlot(ctx context.Context, reservationID uint64) {
	err := s.transition(ctx, reservationID, func(current *entity.Reservation) (bool, error) {
		if current.Status != entity.ReservationStatusPaymentInProgress {
			return false, nil
		}
		current.Status = entity.ReservationStatusCanceled
		return true, nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("reservation_id", reservationID).Error("Release reservation slot failed")
	}
}

func (s *ReservationService) Get(ctx context.Context, id uint64, requester Requester) (*entity.Reservation, error) {
	reservation, err := s.store.Reservations().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if err := authorize(reservation, requester); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *ReservationService) Payments(ctx context.Context, reservationID uint64) ([]*entity.Payment, error) {
	return s.store.Payments().ListByReservation(ctx, reservationID)
}

// List scopes non-admin callers to their own reservations.
func (s *ReservationService) List(ctx context.Context, req listReservationsRequest, requester Requester) ([]*entity.Reservation, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	limit := req.GetLimit()
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := req.GetOffset()
	if offset < 0 {
		offset = 0
	}

	filter := repository.ReservationFilter{
		Status: strings.TrimSpace(req.GetStatus()),
		Kind:   strings.TrimSpace(req.GetKind()),
		Date:   strings.TrimSpace(req.GetDate()),
		RoomID: req.GetRoomID(),
		Limit:  limit,
		Offset: offset,
	}
	if !requester.IsAdmin() {
		filter.UserID = requester.UserID
	}

	return s.store.Reservations().List(ctx, filter)
}

// Update edits a standard reservation that has not been canceled. Slot changes
// are checked under the room lock, excluding the reservation itself.
func (s *ReservationService) Update(ctx context.Context, id uint64, req updateReservationRequest, requester Requester) (*entity.Reservation, error) {
	existing, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if existing.Kind != entity.ReservationKindStandard {
		return nil, fmt.Errorf("%w: privatizations cannot be edited", ErrInvalidStatus)
	}
	if req.GetStatus() != nil && !requester.IsAdmin() {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	var updated *entity.Reservation
	err = s.transition(ctx, id, func(current *entity.Reservation) (bool, error) {
		if current.Status != entity.ReservationStatusPending && current.Status != entity.ReservationStatusConfirmed {
			return false, fmt.Errorf("%w: reservation is %s", ErrInvalidStatus, current.Status)
		}

		v := &ValidationError{}
		if phone := req.GetPhone(); phone != nil {
			current.Phone = validatePhone(v, *phone)
		}
		if date := req.GetDate(); date != nil {
			current.Date = validateDate(v, *date, now, s.location)
		}
		start, end := current.Start, current.End
		if req.GetStartTime() != nil {
			start = *req.GetStartTime()
		}
		if req.GetEndTime() != nil {
			end = *req.GetEndTime()
		}
		current.Start, current.End = validateTimeRange(v, start, end)
		if persons := req.GetPersons(); persons != nil {
			current.Persons = *persons
			validatePersons(v, current.Persons, s.cfg.Reservations.MinPartySize, s.cfg.Reservations.MaxPartySize)
		}
		if comment := req.GetComment(); comment != nil {
			current.Comment = validateComment(v, *comment)
		}
		if status := req.GetStatus(); status != nil && *status != current.Status {
			if *status != entity.ReservationStatusConfirmed || !entity.CanTransitionReservation(current.Status, *status) {
				v.Add("status", "only pending reservations can be confirmed")
			}
			current.Status = *status
		}
		if err := v.Err(); err != nil {
			return false, err
		}
		updated = current
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, reservationEvent(events.TypeReservationUpdated, updated, now))
	return updated, nil
}

// Cancel releases the slot. Payment history is left as is; paid reservations
// go through AdminRefund instead.
func (s *ReservationService) Cancel(ctx context.Context, id uint64, requester Requester) (*entity.Reservation, error) {
	if _, err := s.Get(ctx, id, requester); err != nil {
		return nil, err
	}

	var canceled *entity.Reservation
	changed := false
	err := s.transition(ctx, id, func(current *entity.Reservation) (bool, error) {
		canceled = current
		switch current.Status {
		case entity.ReservationStatusCanceled:
			return false, nil
		case entity.ReservationStatusPaid:
			return false, fmt.Errorf("%w: paid reservations must be refunded", ErrInvalidStatus)
		}
		if !entity.CanTransitionReservation(current.Status, entity.ReservationStatusCanceled) {
			return false, fmt.Errorf("%w: reservation is %s", ErrInvalidStatus, current.Status)
		}
		current.Status = entity.ReservationStatusCanceled
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		publish(ctx, s.publisher, s.logger, reservationEvent(events.TypeReservationCanceled, canceled, s.now().UTC()))
	}
	return canceled, nil
}

// GetSessionStatus returns the provider view of a checkout session along with
// the local rows, syncing the ledger when the provider is ahead.
func (s *ReservationService) GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fieldError("session_id", "is required")
	}

	payment, err := s.store.Payments().FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no payment provider configured", ErrExternalService)
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil && !errors.Is(err, provider.ErrSessionNotFound) {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Get checkout session failed")
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	if entity.IsPaymentActive(payment.Status) {
		if _, err := s.ledger.ApplySession(ctx, payment, session); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("Sync payment from session failed")
		}
	}

	status := &SessionStatus{Session: session}
	if status.Payment, err = s.store.Payments().FindByID(ctx, payment.ID); err != nil {
		return nil, err
	}
	if status.Reservation, err = s.store.Reservations().FindByID(ctx, payment.ReservationID); err != nil {
		return nil, err
	}
	return status, nil
}

// AdminRefund refunds the settled payment of a reservation. Local state only
// changes after the provider confirmed the refund.
func (s *ReservationService) AdminRefund(ctx context.Context, reservationID uint64, amountCents int64, reason string) (*entity.Reservation, *entity.Payment, error) {
	reservation, err := s.store.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if reservation == nil {
		return nil, nil, ErrReservationNotFound
	}

	payment, err := s.store.Payments().FindLatestByReservation(ctx, reservationID, entity.PaymentStatusSucceeded)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, fmt.Errorf("%w: reservation has no settled payment", ErrInvalidStatus)
	}
	if amountCents < 0 || amountCents > payment.AmountCents {
		return nil, nil, fieldError("amount_cents", fmt.Sprintf("must be between 0 and %d", payment.AmountCents))
	}
	if s.provider == nil {
		return nil, nil, fmt.Errorf("%w: no payment provider configured", ErrExternalService)
	}

	intentID := ""
	if payment.IntentID != nil {
		intentID = *payment.IntentID
	}
	if intentID == "" {
		session, err := s.provider.GetCheckoutSession(ctx, payment.SessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrExternalService, err)
		}
		intentID = session.IntentID
	}

	refund, err := s.provider.CreateRefund(ctx, &provider.RefundInput{
		IntentID:      intentID,
		AmountCents:   amountCents,
		Reason:        strings.TrimSpace(reason),
		ReservationID: reservationID,
		PaymentID:     payment.ID,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reservation_id": reservationID,
			"payment_id":     payment.ID,
		}).Error("Provider refund failed")
		return nil, nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	refunded := refund.AmountCents
	if refunded <= 0 {
		refunded = amountCents
	}
	if refunded <= 0 {
		refunded = payment.AmountCents
	}

	now := s.now().UTC()
	var evt *events.ReservationEvent
	err = s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		current, err := tx.Payments().FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrPaymentNotFound
		}
		payment = current

		if payment.Status == entity.PaymentStatusSucceeded {
			oldStatus := payment.Status
			payment.Status = entity.PaymentStatusRefunded
			payment.RefundedCents = refunded
			payment.IntentID = &intentID
			payment.UpdatedAt = now
			if err := tx.Payments().Update(ctx, payment); err != nil {
				return err
			}

			providerEventID := "refund:" + refund.ID
			var reasonJSON *string
			if r := strings.TrimSpace(reason); r != "" {
				body := fmt.Sprintf("{\"reason\":%q}", r)
				reasonJSON = &body
			}
			if err := tx.PaymentEvents().Create(ctx, &entity.PaymentEvent{
				PaymentID:       payment.ID,
				EventType:       "admin_refund",
				Outcome:         entity.PaymentEventOutcomeApplied,
				OldStatus:       &oldStatus,
				NewStatus:       payment.Status,
				ProviderEventID: &providerEventID,
				PayloadJSON:     reasonJSON,
				OccurredAt:      now,
				CreatedAt:       now,
			}); err != nil && !errors.Is(err, repository.ErrDuplicateEvent) {
				return err
			}
		}

		latest, err := tx.Reservations().FindByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if latest == nil {
			return ErrReservationNotFound
		}
		reservation = latest
		evt, err = s.ledger.cascade(ctx, tx, reservation, entity.PaymentStatusRefunded, now)
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithField("reservation_id", reservationID).Error("Record refund failed after provider confirmation")
		return nil, nil, err
	}

	if evt != nil {
		publish(ctx, s.publisher, s.logger, *evt)
	}
	return reservation, payment, nil
}

func (s *ReservationService) Stats(ctx context.Context) (*AdminStats, error) {
	reservations, err := s.store.Reservations().Stats(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{Reservations: reservations, Payments: payments}, nil
}

func (s *ReservationService) Rooms(ctx context.Context) ([]*entity.Room, error) {
	return s.store.Rooms().List(ctx, true)
}

// transition reloads the reservation under its room lock and lets fn mutate
// it. fn returns false to leave the row untouched.
func (s *ReservationService) transition(ctx context.Context, id uint64, fn func(current *entity.Reservation) (bool, error)) error {
	snapshot, err := s.store.Reservations().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return ErrReservationNotFound
	}

	return s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, snapshot.RoomID); err != nil {
			return err
		}
		current, err := tx.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrReservationNotFound
		}

		changed, err := fn(current)
		if err != nil || !changed {
			return err
		}
		current.UpdatedAt = s.now().UTC()
		if err := checkRoom(ctx, tx, current); err != nil && current.Status != entity.ReservationStatusCanceled {
			return err
		}
		return s.slots.hold(ctx, tx, current)
	})
}

func authorize(reservation *entity.Reservation, requester Requester) error {
	if requester.IsAdmin() {
		return nil
	}
	if requester.IsAnonymous() {
		return ErrUnauthorized
	}
	if !reservation.IsOwnedBy(requester.UserID) {
		return ErrForbidden
	}
	return nil
}

// checkRoom requires an active room large enough for the party.
func checkRoom(ctx context.Context, tx *repository.Store, reservation *entity.Reservation) error {
	room, err := tx.Rooms().FindByID(ctx, reservation.RoomID)
	if err != nil {
		return err
	}
	if room == nil || !room.Active {
		return ErrRoomNotFound
	}
	if room.Capacity > 0 && reservation.Persons > room.Capacity {
		return fieldError("persons", fmt.Sprintf("exceeds room capacity of %d", room.Capacity))
	}
	return nil
}

// Export writes every reservation matching req, with its latest payment, as
// an XLSX workbook. Paging in req is ignored.
func (s *ReservationService) Export(ctx context.Context, req listReservationsRequest, w io.Writer) error {
	filter := repository.ReservationFilter{
		Status: strings.TrimSpace(req.GetStatus()),
		Kind:   strings.TrimSpace(req.GetKind()),
		Date:   strings.TrimSpace(req.GetDate()),
		RoomID: req.GetRoomID(),
		Limit:  maxListLimit,
	}

	rows := make([]export.Row, 0)
	for {
		page, err := s.store.Reservations().List(ctx, filter)
		if err != nil {
			return err
		}
		for _, reservation := range page {
			payment, err := s.store.Payments().FindLatestByReservation(ctx, reservation.ID)
			if err != nil {
				return err
			}
			rows = append(rows, export.Row{Reservation: reservation, Payment: payment})
		}
		if int32(len(page)) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	return export.WriteReservations(w, rows)
}
