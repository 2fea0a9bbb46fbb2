// Package payment implements the reservation payment core: the
// settlement gateways (cash, eSewa, Khalti), the signature codec used
// by the signed-redirect channel, the outcome redirect builder and the
// orchestrator that drives the payment state machine.
package payment

import (
    "context"
    "errors"

    "github.com/stayease/hotel-reservation-api/internal/model"
)

// Method is the closed set of settlement channels.  Adding a channel
// means adding a constant here, a Gateway implementation, and a case in
// the orchestrator's dispatch switch; there is no string-keyed registry.
type Method string

const (
    MethodCash   Method = Method(model.MethodCash)
    MethodEsewa  Method = Method(model.MethodEsewa)
    MethodKhalti Method = Method(model.MethodKhalti)
)

// ParseMethod maps a route segment to a Method.  Unknown values return
// ErrUnsupportedMethod.
func ParseMethod(s string) (Method, error) {
    switch Method(s) {
    case MethodCash, MethodEsewa, MethodKhalti:
        return Method(s), nil
    }
    return "", ErrUnsupportedMethod
}

// Model converts the channel identifier to the persisted payment method.
func (m Method) Model() model.PaymentMethod { return model.PaymentMethod(m) }

// Sentinel errors forming the payment failure taxonomy.  Handlers and
// the orchestrator compare against these with errors.Is.
var (
    // ErrUnsupportedMethod: the requested channel does not exist.
    ErrUnsupportedMethod = errors.New("unsupported payment method")
    // ErrUnconfigured: the channel exists but its credentials or
    // endpoints are missing from configuration.
    ErrUnconfigured = errors.New("payment channel not configured")
    // ErrInvalidCallback: the callback payload could not be decoded or
    // is missing required context.
    ErrInvalidCallback = errors.New("invalid callback payload")
    // ErrIntegrityFailure: the callback signature did not match.
    ErrIntegrityFailure = errors.New("callback signature mismatch")
    // ErrExternalCall: an outbound gateway call failed or timed out.
    // Verification fails closed on this error.
    ErrExternalCall = errors.New("gateway call failed")
)

// InitiationResult is what a gateway hands back from Initiate.  Exactly
// one shape is populated per channel: cash sets Immediate, eSewa sets
// RedirectURL+Params (the signed form post), Khalti sets RedirectURL+
// SessionToken.
type InitiationResult struct {
    Immediate    bool              `json:"-"`
    RedirectURL  string            `json:"paymentUrl,omitempty"`
    Params       map[string]string `json:"params,omitempty"`
    SessionToken string            `json:"pidx,omitempty"`
}

// Callback carries the query context a gateway delivers to the verify
// endpoint.  Fields are channel specific: Data is eSewa's base64
// payload, SessionToken/TransactionID/TxnID come from Khalti.
type Callback struct {
    ReservationID string
    Data          string
    SessionToken  string
    TransactionID string
    TxnID         string
}

// VerificationResult reports what the gateway concluded about a
// callback.  Completed is true only for the channel's literal
// completion sentinel; every other received status is a terminal
// decline with the raw status preserved for the failure redirect.
type VerificationResult struct {
    Completed bool
    Reference string // external transaction reference recorded on success
    RawStatus string // status string as received from the channel
}

// Gateway is the capability shared by all settlement channels.
// Initiate starts a payment attempt for the reservation; Verify decides
// the attempt's outcome from a gateway callback.  Verify errors are
// always one of the sentinel classes above, so callers can map them to
// redirect error codes.
type Gateway interface {
    Initiate(ctx context.Context, res *model.Reservation) (*InitiationResult, error)
    Verify(ctx context.Context, res *model.Reservation, cb Callback) (*VerificationResult, error)
}
