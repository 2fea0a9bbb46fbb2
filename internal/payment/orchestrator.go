package payment

import (
    "context"
    "errors"
    "log"

    "github.com/stayease/hotel-reservation-api/internal/model"
    "github.com/stayease/hotel-reservation-api/internal/repository"
)

// ReservationStore is what the orchestrator needs from persistence: a
// lookup plus the two terminal transitions.  MarkPaymentSuccess must be
// an atomic conditional write that reports whether this call applied
// the transition; it is the idempotency guard for duplicate callbacks.
type ReservationStore interface {
    GetByID(ctx context.Context, id string) (*model.Reservation, error)
    MarkPaymentSuccess(ctx context.Context, id string, method model.PaymentMethod, transactionID string) (bool, error)
    MarkPaymentFailed(ctx context.Context, id string) error
    SaveSessionToken(ctx context.Context, id, token string) error
}

// Reconciler applies the inventory side effects of a successful
// payment. It is invoked at most once per reservation, guarded solely
// by the orchestrator's conditional success write.
type Reconciler interface {
    OnPaymentSuccess(ctx context.Context, res *model.Reservation) []error
}

// EventPublisher announces confirmed payments to downstream consumers
// (notifications, analytics). Publishing is best effort; a broker
// outage never fails a payment.
type EventPublisher interface {
    PaymentConfirmed(ctx context.Context, res *model.Reservation, inventoryFailed bool)
}

// Orchestrator owns the reservation payment state machine.  It selects
// the gateway for a channel, enforces initiation preconditions and the
// callback idempotency guard, applies the terminal transitions and
// triggers inventory reconciliation on success.  It is the only
// component that mutates payment state.
type Orchestrator struct {
    store      ReservationStore
    cash       Gateway
    esewa      Gateway
    khalti     Gateway
    reconciler Reconciler
    events     EventPublisher
}

// NewOrchestrator wires the orchestrator.  events may be nil when no
// broker is configured; everything else must be non-nil.
func NewOrchestrator(store ReservationStore, cash, esewa, khalti Gateway, rec Reconciler, events EventPublisher) *Orchestrator {
    if store == nil || cash == nil || esewa == nil || khalti == nil || rec == nil {
        panic("nil dependency passed to NewOrchestrator")
    }
    return &Orchestrator{
        store:      store,
        cash:       cash,
        esewa:      esewa,
        khalti:     khalti,
        reconciler: rec,
        events:     events,
    }
}

// gateway resolves the adapter for a channel.  The switch is exhaustive
// over the closed Method set.
func (o *Orchestrator) gateway(m Method) (Gateway, error) {
    switch m {
    case MethodCash:
        return o.cash, nil
    case MethodEsewa:
        return o.esewa, nil
    case MethodKhalti:
        return o.khalti, nil
    }
    return nil, ErrUnsupportedMethod
}

// InitiatePayment starts a payment attempt for the reservation on the
// chosen channel.  It fails before any external call when the
// reservation is missing (ErrReservationNotFound), already settled
// (ErrAlreadyPaid) or the channel is not configured (ErrUnconfigured).
// For the cash channel the success transition and inventory
// reconciliation are applied synchronously.
func (o *Orchestrator) InitiatePayment(ctx context.Context, reservationID string, method Method) (*InitiationResult, error) {
    gw, err := o.gateway(method)
    if err != nil {
        return nil, err
    }
    res, err := o.store.GetByID(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if res.PaymentStatus == model.PaymentSuccess {
        return nil, repository.ErrAlreadyPaid
    }

    result, err := gw.Initiate(ctx, res)
    if err != nil {
        return nil, err
    }
    if result.Immediate {
        // Cash settles on the spot: apply the same guarded transition
        // the callback path uses, then reconcile inventory.
        reference := cashReference()
        applied, err := o.store.MarkPaymentSuccess(ctx, res.ID, method.Model(), reference)
        if err != nil {
            return nil, err
        }
        if applied {
            o.applySuccessSideEffects(ctx, res, method, reference)
        }
    }
    return result, nil
}

// CompletePayment resolves a gateway callback into a terminal Outcome.
// It never returns an error: gateways expect a response, so every
// failure class collapses into a failure redirect.  An
// already-successful reservation short-circuits to the success outcome
// with no side effects; otherwise the adapter verifies the callback and
// the result is written through the conditional success guard so that
// concurrent duplicate callbacks apply the transition exactly once.
func (o *Orchestrator) CompletePayment(ctx context.Context, method Method, cb Callback) Outcome {
    if cb.ReservationID == "" {
        return Outcome{Method: method, ErrorCode: CodeNoReservationID}
    }
    gw, err := o.gateway(method)
    if err != nil {
        return Outcome{ReservationID: cb.ReservationID, Method: method, ErrorCode: CodeInvalidData}
    }
    res, err := o.store.GetByID(ctx, cb.ReservationID)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return Outcome{ReservationID: cb.ReservationID, Method: method, ErrorCode: CodeReservationNotFound}
        }
        log.Printf("payment: load reservation %s: %v", cb.ReservationID, err)
        return Outcome{ReservationID: cb.ReservationID, Method: method, ErrorCode: CodeVerificationFailed}
    }

    // Duplicate delivery of an already-settled attempt: same success
    // redirect, no state change, no reconciliation.
    if res.PaymentStatus == model.PaymentSuccess {
        return Outcome{Success: true, ReservationID: res.ID, Method: method}
    }

    verdict, err := gw.Verify(ctx, res, cb)
    if err != nil {
        o.failPayment(ctx, res.ID)
        return Outcome{ReservationID: res.ID, Method: method, ErrorCode: codeForError(err)}
    }
    if !verdict.Completed {
        o.failPayment(ctx, res.ID)
        return Outcome{ReservationID: res.ID, Method: method, ErrorCode: CodePaymentDeclined, RawStatus: verdict.RawStatus}
    }

    applied, err := o.store.MarkPaymentSuccess(ctx, res.ID, method.Model(), verdict.Reference)
    if err != nil {
        // The gateway says the payer was charged but the write failed.
        // Fail closed for this delivery; the next duplicate callback
        // retries the transition.
        log.Printf("payment: success transition for %s: %v", res.ID, err)
        return Outcome{ReservationID: res.ID, Method: method, ErrorCode: CodeVerificationFailed}
    }
    if applied {
        o.applySuccessSideEffects(ctx, res, method, verdict.Reference)
    }
    return Outcome{Success: true, ReservationID: res.ID, Method: method}
}

// applySuccessSideEffects runs inventory reconciliation and publishes
// the confirmed event.  Reconciliation is best effort: individual room
// failures are logged and reported on the event, but the committed
// success transition is never rolled back.  The in-memory reservation
// is stamped with the just-committed transition so the event reflects
// the persisted state.
func (o *Orchestrator) applySuccessSideEffects(ctx context.Context, res *model.Reservation, method Method, reference string) {
    res.PaymentStatus = model.PaymentSuccess
    res.Status = model.ReservationConfirmed
    res.PaymentMethod = method.Model()
    res.TransactionID = &reference

    errs := o.reconciler.OnPaymentSuccess(ctx, res)
    for _, err := range errs {
        log.Printf("payment: inventory update for reservation %s: %v", res.ID, err)
    }
    if o.events != nil {
        o.events.PaymentConfirmed(ctx, res, len(errs) > 0)
    }
}

// failPayment records the failed attempt.  Booking status stays
// untouched; a write error here is logged only, since the caller is
// already on a failure path.
func (o *Orchestrator) failPayment(ctx context.Context, id string) {
    if err := o.store.MarkPaymentFailed(ctx, id); err != nil {
        log.Printf("payment: failure transition for %s: %v", id, err)
    }
}

// codeForError maps the verification error taxonomy onto redirect error
// codes.
func codeForError(err error) string {
    switch {
    case errors.Is(err, ErrIntegrityFailure):
        return CodeSignatureMismatch
    case errors.Is(err, ErrInvalidCallback):
        return CodeInvalidData
    case errors.Is(err, ErrUnconfigured):
        return CodeNotConfigured
    case errors.Is(err, ErrExternalCall):
        return CodeVerificationFailed
    }
    return CodeVerificationFailed
}
