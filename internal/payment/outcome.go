package payment

import "net/url"

// Redirect error codes carried to the failure page.  They mirror what
// the client already keys its messaging on.
const (
    CodeNoReservationID     = "no_reservation_id"
    CodeReservationNotFound = "reservation_not_found"
    CodeInvalidData         = "invalid_data"
    CodeSignatureMismatch   = "signature_mismatch"
    CodeVerificationFailed  = "verification_failed"
    CodePaymentDeclined     = "payment_declined"
    CodeNotConfigured       = "not_configured"
)

// Outcome is the terminal result of a callback.  Every callback path
// produces exactly one Outcome, and every Outcome resolves to a
// client-facing redirect; the calling gateway always gets a response.
type Outcome struct {
    Success       bool
    ReservationID string
    Method        Method
    ErrorCode     string // one of the Code* constants, failure only
    RawStatus     string // gateway status string, when one was received
}

// RedirectURL maps the outcome onto the uniform front-end destination.
// All three channels funnel through this one mapping: success lands on
// /payment-success with status=success, failure on /payment-failure
// with an error code and/or the raw gateway status.  The reservation id
// and channel name ride along whenever they are known.
func (o Outcome) RedirectURL(frontendURL string) string {
    q := url.Values{}
    var page string
    if o.Success {
        page = "/payment-success"
        q.Set("status", "success")
    } else {
        page = "/payment-failure"
        if o.RawStatus != "" {
            q.Set("status", o.RawStatus)
        }
        if o.ErrorCode != "" {
            q.Set("error", o.ErrorCode)
        }
    }
    if o.ReservationID != "" {
        q.Set("reservationId", o.ReservationID)
    }
    if o.Method != "" {
        q.Set("gateway", string(o.Method))
    }
    return frontendURL + page + "?" + q.Encode()
}
