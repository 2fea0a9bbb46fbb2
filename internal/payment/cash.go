package payment

import (
    "context"
    "fmt"

    "github.com/google/uuid"

    "github.com/stayease/hotel-reservation-api/internal/model"
)

// CashGateway settles at the front desk: there is no external
// interaction and no asynchronous callback.  Initiate reports an
// immediate result and the orchestrator applies the success transition
// synchronously.
type CashGateway struct{}

// NewCashGateway returns the cash channel.
func NewCashGateway() *CashGateway { return &CashGateway{} }

// Initiate completes instantly.  A local receipt reference is generated
// so the success transition can record a non-null transaction id, which
// the other channels get from the gateway instead.
func (g *CashGateway) Initiate(ctx context.Context, res *model.Reservation) (*InitiationResult, error) {
    return &InitiationResult{Immediate: true}, nil
}

// Verify is never reached for cash payments; there is no gateway to
// call back. It exists only to satisfy the Gateway interface.
func (g *CashGateway) Verify(ctx context.Context, res *model.Reservation, cb Callback) (*VerificationResult, error) {
    return nil, fmt.Errorf("%w: cash payments have no callback", ErrInvalidCallback)
}

// cashReference builds the receipt reference recorded for a cash
// settlement.
func cashReference() string {
    return "CASH-" + uuid.NewString()
}
