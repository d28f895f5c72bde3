package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/config"
)

type fakeProvider struct {
	mu sync.Mutex

	sessions map[string]*provider.CheckoutSession
	created  []*provider.CheckoutSessionInput
	refunds  []*provider.RefundInput
	nextID   int

	createErr error
	getErr    error
	refundErr error

	webhookEvent *provider.Event
	webhookErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*provider.CheckoutSession{}}
}

func (p *fakeProvider) Code() string { return "fake" }

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, input *provider.CheckoutSessionInput) (*provider.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, input)
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.nextID++
	session := &provider.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", p.nextID),
		URL:           fmt.Sprintf("https://checkout.test/cs_test_%d", p.nextID),
		Status:        "open",
		PaymentStatus: "unpaid",
		AmountTotal:   input.AmountCents,
		Currency:      input.Currency,
		CustomerEmail: input.CustomerEmail,
		ExpiresAt:     input.ExpiresAt,
		Metadata:      map[string]string{"reservation_id": fmt.Sprintf("%d", input.ReservationID)},
	}
	p.sessions[session.ID] = session
	return session, nil
}

func (p *fakeProvider) GetCheckoutSession(_ context.Context, sessionID string) (*provider.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, provider.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (p *fakeProvider) CreateRefund(_ context.Context, input *provider.RefundInput) (*provider.Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, input)
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &provider.Refund{ID: fmt.Sprintf("re_%d", len(p.refunds)), Status: "succeeded", AmountCents: input.AmountCents}, nil
}

func (p *fakeProvider) VerifyAndParseWebhook(_ context.Context, _ []byte, _ string) (*provider.Event, error) {
	if p.webhookErr != nil {
		return nil, p.webhookErr
	}
	return p.webhookEvent, nil
}

func (p *fakeProvider) setSession(id string, mutate func(s *provider.CheckoutSession)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if session, ok := p.sessions[id]; ok {
		mutate(session)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type submitInput struct {
	Kind      string
	Name      string
	Email     string
	Phone     string
	RoomID    uint64
	Date      string
	StartTime string
	EndTime   string
	Persons   int
	Comment   string
	ClientIP  string
}

func (i submitInput) GetKind() string      { return i.Kind }
func (i submitInput) GetName() string      { return i.Name }
func (i submitInput) GetEmail() string     { return i.Email }
func (i submitInput) GetPhone() string     { return i.Phone }
func (i submitInput) GetRoomID() uint64    { return i.RoomID }
func (i submitInput) GetDate() string      { return i.Date }
func (i submitInput) GetStartTime() string { return i.StartTime }
func (i submitInput) GetEndTime() string   { return i.EndTime }
func (i submitInput) GetPersons() int      { return i.Persons }
func (i submitInput) GetComment() string   { return i.Comment }
func (i submitInput) GetClientIP() string  { return i.ClientIP }

type updateInput struct {
	Phone     *string
	Date      *string
	StartTime *string
	EndTime   *string
	Persons   *int
	Comment   *string
	Status    *string
}

func (i updateInput) GetPhone() *string     { return i.Phone }
func (i updateInput) GetDate() *string      { return i.Date }
func (i updateInput) GetStartTime() *string { return i.StartTime }
func (i updateInput) GetEndTime() *string   { return i.EndTime }
func (i updateInput) GetPersons() *int      { return i.Persons }
func (i updateInput) GetComment() *string   { return i.Comment }
func (i updateInput) GetStatus() *string    { return i.Status }

type listInput struct {
	Status string
	Kind   string
	Date   string
	RoomID uint64
	Limit  int32
	Offset int32
}

func (i listInput) GetStatus() string { return i.Status }
func (i listInput) GetKind() string   { return i.Kind }
func (i listInput) GetDate() string   { return i.Date }
func (i listInput) GetRoomID() uint64 { return i.RoomID }
func (i listInput) GetLimit() int32   { return i.Limit }
func (i listInput) GetOffset() int32  { return i.Offset }

type testEnv struct {
	store     *repository.Store
	ledger    *Ledger
	svc       *ReservationService
	provider  *fakeProvider
	publisher *recordingPublisher
}

func testWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		Reservations: config.ReservationsConfig{MinPartySize: 1, MaxPartySize: 50, AutoConfirm: true, Timezone: "Europe/Paris"},
		Pricing:      config.PricingConfig{Currency: "eur", BaseCents: 50000, PerPersonCents: 2000, MinPersons: 10, MaxPersons: 50},
		Payments:     config.PaymentsConfig{SessionExpiry: 30 * time.Minute, ReconcileStaleAfter: 15 * time.Minute, JobBatchSize: 10},
		SuccessURL:   "https://lanoche.test/success",
		CancelURL:    "https://lanoche.test/cancel",
	}
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "reservations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, repository.Migrate(ctx, db, repository.DriverSQLite))

	store := repository.NewStore(db)
	require.NoError(t, store.Rooms().Upsert(ctx, &entity.Room{ID: 1, Name: "Salle Tokyo", Capacity: 50, Active: true}))
	require.NoError(t, store.Rooms().Upsert(ctx, &entity.Room{ID: 2, Name: "Salle Havana", Capacity: 20, Active: true}))
	return store
}

func newTestEnv(t *testing.T, mutate ...func(cfg *WorkflowConfig)) *testEnv {
	t.Helper()

	cfg := testWorkflowConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	store := newTestStore(t)
	publisher := &recordingPublisher{}
	fake := newFakeProvider()
	ledger := NewLedger(store, publisher)
	svc, err := NewReservationService(store, ledger, fake, publisher, cfg)
	require.NoError(t, err)

	return &testEnv{store: store, ledger: ledger, svc: svc, provider: fake, publisher: publisher}
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(dateLayout)
}

func standardInput(date, start, end string) submitInput {
	return submitInput{
		Kind:      entity.ReservationKindStandard,
		Name:      "Jeanne Martin",
		Email:     "jeanne@example.com",
		Phone:     "06 12 34 56 78",
		RoomID:    1,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Persons:   4,
	}
}

func privatizationInput(date string, persons int) submitInput {
	in := standardInput(date, "18:00", "23:00")
	in.Kind = entity.ReservationKindPrivatization
	in.Persons = persons
	return in
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
