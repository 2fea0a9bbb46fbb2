package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stayease/hotel-reservation-api/internal/inventory"
	"github.com/stayease/hotel-reservation-api/internal/model"
	"github.com/stayease/hotel-reservation-api/internal/repository"
)

// fakeReservationStore is an in-memory ReservationStore whose
// MarkPaymentSuccess mirrors the conditional-update contract of the
// MySQL repository: one winner, everyone else gets applied=false.
type fakeReservationStore struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	successCalls int
}

func newFakeReservationStore(res ...*model.Reservation) *fakeReservationStore {
	s := &fakeReservationStore{reservations: make(map[string]*model.Reservation)}
	for _, r := range res {
		s.reservations[r.ID] = r
	}
	return s
}

func (s *fakeReservationStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeReservationStore) MarkPaymentSuccess(ctx context.Context, id string, method model.PaymentMethod, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successCalls++
	r, ok := s.reservations[id]
	if !ok || r.PaymentStatus == model.PaymentSuccess {
		return false, nil
	}
	r.PaymentStatus = model.PaymentSuccess
	r.Status = model.ReservationConfirmed
	r.PaymentMethod = method
	r.TransactionID = &transactionID
	return true, nil
}

func (s *fakeReservationStore) MarkPaymentFailed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reservations[id]; ok && r.PaymentStatus != model.PaymentSuccess {
		r.PaymentStatus = model.PaymentFailed
	}
	return nil
}

func (s *fakeReservationStore) SaveSessionToken(ctx context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reservations[id]; ok {
		r.SessionToken = &token
	}
	return nil
}

func (s *fakeReservationStore) get(id string) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.reservations[id]
}

// fakeRoomStore records unavailable dates with set semantics, like the
// unique key on room_unavailable_dates.
type fakeRoomStore struct {
	mu      sync.Mutex
	entries map[string]int // "roomID/number/date" -> insert attempts
	failFor map[string]error
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{entries: make(map[string]int), failFor: make(map[string]error)}
}

func (s *fakeRoomStore) AddUnavailableDates(ctx context.Context, roomID string, roomNumber int, dates []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d", roomID, roomNumber)
	if err := s.failFor[key]; err != nil {
		return err
	}
	for _, d := range dates {
		s.entries[fmt.Sprintf("%s/%s", key, d.UTC().Format("2006-01-02"))]++
	}
	return nil
}

func (s *fakeRoomStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// scriptedGateway returns canned results, standing in for a channel in
// orchestrator tests.
type scriptedGateway struct {
	initResult *InitiationResult
	initErr    error
	verdict    *VerificationResult
	verifyErr  error
}

func (g *scriptedGateway) Initiate(ctx context.Context, res *model.Reservation) (*InitiationResult, error) {
	return g.initResult, g.initErr
}

func (g *scriptedGateway) Verify(ctx context.Context, res *model.Reservation, cb Callback) (*VerificationResult, error) {
	return g.verdict, g.verifyErr
}

// countingEvents records confirmed-payment publications.
type countingEvents struct {
	mu        sync.Mutex
	confirmed int
	lastRes   model.Reservation
	inventory bool
}

func (e *countingEvents) PaymentConfirmed(ctx context.Context, res *model.Reservation, inventoryFailed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed++
	e.lastRes = *res
	e.inventory = inventoryFailed
}

func pendingReservation(id string) *model.Reservation {
	return &model.Reservation{
		ID:      id,
		UserID:  "user1",
		HotelID: "hotel1",
		RoomDetails: []model.RoomDetail{
			{RoomID: "roomA", RoomNumber: 101},
			{RoomID: "roomA", RoomNumber: 102},
		},
		Dates: []time.Time{
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		TotalPrice:    1000,
		PaymentStatus: model.PaymentPending,
		Status:        model.ReservationPending,
		PaymentMethod: model.MethodNone,
	}
}

type orchestratorFixture struct {
	store  *fakeReservationStore
	rooms  *fakeRoomStore
	events *countingEvents
	orch   *Orchestrator
}

func newFixture(gw Gateway, res ...*model.Reservation) *orchestratorFixture {
	store := newFakeReservationStore(res...)
	rooms := newFakeRoomStore()
	events := &countingEvents{}
	orch := NewOrchestrator(store, NewCashGateway(), gw, gw, inventory.NewReconciler(rooms), events)
	return &orchestratorFixture{store: store, rooms: rooms, events: events, orch: orch}
}

func TestInitiatePaymentNotFound(t *testing.T) {
	f := newFixture(&scriptedGateway{})
	_, err := f.orch.InitiatePayment(context.Background(), "missing", MethodEsewa)
	if !errors.Is(err, repository.ErrReservationNotFound) {
		t.Errorf("Expected ErrReservationNotFound, got: %v", err)
	}
}

func TestInitiatePaymentAlreadyPaid(t *testing.T) {
	res := pendingReservation("res1")
	res.PaymentStatus = model.PaymentSuccess
	res.Status = model.ReservationConfirmed
	f := newFixture(&scriptedGateway{}, res)

	_, err := f.orch.InitiatePayment(context.Background(), "res1", MethodEsewa)
	if !errors.Is(err, repository.ErrAlreadyPaid) {
		t.Errorf("Expected ErrAlreadyPaid, got: %v", err)
	}
}

func TestInitiatePaymentUnconfigured(t *testing.T) {
	f := newFixture(&scriptedGateway{initErr: fmt.Errorf("%w: esewa", ErrUnconfigured)}, pendingReservation("res1"))

	_, err := f.orch.InitiatePayment(context.Background(), "res1", MethodEsewa)
	if !errors.Is(err, ErrUnconfigured) {
		t.Errorf("Expected ErrUnconfigured, got: %v", err)
	}
	if got := f.store.get("res1"); got.PaymentStatus != model.PaymentPending {
		t.Errorf("Expected payment status untouched, got %s", got.PaymentStatus)
	}
}

func TestInitiatePaymentUnsupportedMethod(t *testing.T) {
	f := newFixture(&scriptedGateway{}, pendingReservation("res1"))
	if _, err := f.orch.InitiatePayment(context.Background(), "res1", Method("paypal")); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Expected ErrUnsupportedMethod, got: %v", err)
	}
}

func TestInitiateCashSettlesImmediately(t *testing.T) {
	f := newFixture(&scriptedGateway{}, pendingReservation("res1"))

	result, err := f.orch.InitiatePayment(context.Background(), "res1", MethodCash)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.Immediate {
		t.Error("Expected immediate result for cash")
	}

	got := f.store.get("res1")
	if got.PaymentStatus != model.PaymentSuccess {
		t.Errorf("Expected paymentStatus success, got %s", got.PaymentStatus)
	}
	if got.Status != model.ReservationConfirmed {
		t.Errorf("Expected status confirmed, got %s", got.Status)
	}
	if got.PaymentMethod != model.MethodCash {
		t.Errorf("Expected method cash, got %s", got.PaymentMethod)
	}
	if got.TransactionID == nil || *got.TransactionID == "" {
		t.Error("Expected a transaction id to be recorded for cash")
	}
	// 2 rooms x 2 dates
	if f.rooms.entryCount() != 4 {
		t.Errorf("Expected 4 unavailable entries, got %d", f.rooms.entryCount())
	}
	if f.events.confirmed != 1 {
		t.Errorf("Expected 1 confirmed event, got %d", f.events.confirmed)
	}
}

func TestCompletePaymentSuccess(t *testing.T) {
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: true, Reference: "KTX1", RawStatus: "Completed"}}
	f := newFixture(gw, pendingReservation("res1"))

	outcome := f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})
	if !outcome.Success {
		t.Fatalf("Expected success outcome, got %+v", outcome)
	}

	got := f.store.get("res1")
	if got.PaymentStatus != model.PaymentSuccess || got.Status != model.ReservationConfirmed {
		t.Errorf("Expected success/confirmed, got %s/%s", got.PaymentStatus, got.Status)
	}
	if got.TransactionID == nil || *got.TransactionID != "KTX1" {
		t.Error("Expected transaction id KTX1 to be recorded")
	}
	// Scenario C: every (room, date) pair appears exactly once.
	for key, n := range f.rooms.entries {
		if n != 1 {
			t.Errorf("Expected one insert for %s, got %d", key, n)
		}
	}
	if f.rooms.entryCount() != 4 {
		t.Errorf("Expected 4 unavailable entries, got %d", f.rooms.entryCount())
	}
	if f.events.lastRes.PaymentMethod != model.MethodKhalti {
		t.Errorf("Expected event to carry the settled method, got %s", f.events.lastRes.PaymentMethod)
	}
}

func TestCompletePaymentDeclineLeavesStatusPending(t *testing.T) {
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: false, RawStatus: "PENDING"}}
	f := newFixture(gw, pendingReservation("res1"))

	outcome := f.orch.CompletePayment(context.Background(), MethodEsewa, Callback{ReservationID: "res1", Data: "x"})
	if outcome.Success {
		t.Fatal("Expected failure outcome")
	}
	if outcome.ErrorCode != CodePaymentDeclined {
		t.Errorf("Expected payment_declined, got %q", outcome.ErrorCode)
	}
	if outcome.RawStatus != "PENDING" {
		t.Errorf("Expected raw status to reach the outcome, got %q", outcome.RawStatus)
	}

	got := f.store.get("res1")
	if got.PaymentStatus != model.PaymentFailed {
		t.Errorf("Expected paymentStatus failed, got %s", got.PaymentStatus)
	}
	if got.Status != model.ReservationPending {
		t.Errorf("Expected booking status unchanged, got %s", got.Status)
	}
	if f.rooms.entryCount() != 0 {
		t.Error("Expected no inventory updates on decline")
	}
}

func TestCompletePaymentErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"integrity", ErrIntegrityFailure, CodeSignatureMismatch},
		{"invalid", fmt.Errorf("%w: bad payload", ErrInvalidCallback), CodeInvalidData},
		{"external", fmt.Errorf("%w: timeout", ErrExternalCall), CodeVerificationFailed},
		{"unconfigured", fmt.Errorf("%w: khalti", ErrUnconfigured), CodeNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(&scriptedGateway{verifyErr: tc.err}, pendingReservation("res1"))
			outcome := f.orch.CompletePayment(context.Background(), MethodEsewa, Callback{ReservationID: "res1", Data: "x"})
			if outcome.Success {
				t.Fatal("Expected failure outcome")
			}
			if outcome.ErrorCode != tc.code {
				t.Errorf("Expected code %q, got %q", tc.code, outcome.ErrorCode)
			}
			if got := f.store.get("res1"); got.PaymentStatus != model.PaymentFailed {
				t.Errorf("Expected paymentStatus failed after callback, got %s", got.PaymentStatus)
			}
		})
	}
}

func TestCompletePaymentMissingReservationID(t *testing.T) {
	f := newFixture(&scriptedGateway{})
	outcome := f.orch.CompletePayment(context.Background(), MethodEsewa, Callback{})
	if outcome.Success || outcome.ErrorCode != CodeNoReservationID {
		t.Errorf("Expected no_reservation_id failure, got %+v", outcome)
	}
}

func TestCompletePaymentUnknownReservation(t *testing.T) {
	f := newFixture(&scriptedGateway{})
	outcome := f.orch.CompletePayment(context.Background(), MethodEsewa, Callback{ReservationID: "missing"})
	if outcome.Success || outcome.ErrorCode != CodeReservationNotFound {
		t.Errorf("Expected reservation_not_found failure, got %+v", outcome)
	}
}

// Scenario D: re-verifying an already-successful reservation yields the
// same success redirect and no new side effects.
func TestCompletePaymentIdempotentReplay(t *testing.T) {
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: true, Reference: "KTX1"}}
	f := newFixture(gw, pendingReservation("res1"))

	first := f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})
	second := f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})

	if !first.Success || !second.Success {
		t.Fatalf("Expected both outcomes successful, got %+v / %+v", first, second)
	}
	if f.rooms.entryCount() != 4 {
		t.Errorf("Expected inventory unchanged after replay, got %d entries", f.rooms.entryCount())
	}
	for key, n := range f.rooms.entries {
		if n != 1 {
			t.Errorf("Expected no duplicate insert for %s, got %d", key, n)
		}
	}
	if f.events.confirmed != 1 {
		t.Errorf("Expected exactly one confirmed event, got %d", f.events.confirmed)
	}
	// The replay short-circuits before the conditional write.
	if f.store.successCalls != 1 {
		t.Errorf("Expected one success write, got %d", f.store.successCalls)
	}
}

// Concurrent duplicate callbacks: the conditional write decides one
// winner and reconciliation runs once.
func TestCompletePaymentConcurrentDuplicates(t *testing.T) {
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: true, Reference: "KTX1"}}
	f := newFixture(gw, pendingReservation("res1"))

	const n = 8
	var wg sync.WaitGroup
	outcomes := make([]Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})
		}(i)
	}
	wg.Wait()

	for i, o := range outcomes {
		if !o.Success {
			t.Errorf("Expected outcome %d successful, got %+v", i, o)
		}
	}
	if f.events.confirmed != 1 {
		t.Errorf("Expected exactly one confirmed event, got %d", f.events.confirmed)
	}
	for key, cnt := range f.rooms.entries {
		if cnt != 1 {
			t.Errorf("Expected one insert for %s, got %d", key, cnt)
		}
	}
	if f.rooms.entryCount() != 4 {
		t.Errorf("Expected 4 unavailable entries, got %d", f.rooms.entryCount())
	}
}

// Partial inventory failure: success stands, the event flags the gap.
func TestCompletePaymentPartialInventoryFailure(t *testing.T) {
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: true, Reference: "KTX1"}}
	f := newFixture(gw, pendingReservation("res1"))
	f.rooms.failFor["roomA/102"] = errors.New("deadlock")

	outcome := f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})
	if !outcome.Success {
		t.Fatalf("Expected success outcome despite inventory failure, got %+v", outcome)
	}
	if got := f.store.get("res1"); got.PaymentStatus != model.PaymentSuccess {
		t.Errorf("Expected committed success to stand, got %s", got.PaymentStatus)
	}
	// Room 101's dates applied, room 102's did not.
	if f.rooms.entryCount() != 2 {
		t.Errorf("Expected 2 entries from the surviving room, got %d", f.rooms.entryCount())
	}
	if !f.events.inventory {
		t.Error("Expected event to flag incomplete inventory")
	}
}

// Empty roomDetails: payment succeeds, reconciliation is a no-op.
func TestCompletePaymentNoRooms(t *testing.T) {
	res := pendingReservation("res1")
	res.RoomDetails = nil
	gw := &scriptedGateway{verdict: &VerificationResult{Completed: true, Reference: "KTX1"}}
	f := newFixture(gw, res)

	outcome := f.orch.CompletePayment(context.Background(), MethodKhalti, Callback{ReservationID: "res1", SessionToken: "P1"})
	if !outcome.Success {
		t.Fatalf("Expected success outcome, got %+v", outcome)
	}
	if got := f.store.get("res1"); got.PaymentStatus != model.PaymentSuccess {
		t.Errorf("Expected success recorded, got %s", got.PaymentStatus)
	}
	if f.rooms.entryCount() != 0 {
		t.Errorf("Expected no inventory entries, got %d", f.rooms.entryCount())
	}
}

func TestParseMethod(t *testing.T) {
	for _, valid := range []string{"cash", "esewa", "khalti"} {
		if _, err := ParseMethod(valid); err != nil {
			t.Errorf("Expected %q to parse, got: %v", valid, err)
		}
	}
	if _, err := ParseMethod("stripe"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Expected ErrUnsupportedMethod, got: %v", err)
	}
}
