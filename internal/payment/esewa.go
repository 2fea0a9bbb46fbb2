package payment

import (
    "context"
    "encoding/base64"
    "encoding/json"
    "fmt"
    "strconv"

    "github.com/google/uuid"

    "github.com/stayease/hotel-reservation-api/internal/config"
    "github.com/stayease/hotel-reservation-api/internal/model"
)

// esewaStatusComplete is the sentinel eSewa sends in a callback payload
// for a settled payment.  Anything else is a decline.
const esewaStatusComplete = "COMPLETE"

// esewaSignedFields is the fixed, ordered field list covered by the
// signature.  The order is part of the contract with eSewa.
const esewaSignedFields = "total_amount,transaction_uuid,product_code"

// EsewaGateway implements the signed-redirect channel.  Initiate builds
// a form-post parameter set with an HMAC-SHA256 signature; the payer is
// redirected to eSewa and eSewa later calls back with a base64 payload
// that Verify authenticates by recomputing the same signature.
type EsewaGateway struct {
    cfg        config.EsewaConfig
    backendURL string
}

// NewEsewaGateway builds the eSewa adapter from validated configuration.
// The backend URL is where eSewa sends the payer after the flow ends.
func NewEsewaGateway(cfg config.EsewaConfig, backendURL string) *EsewaGateway {
    return &EsewaGateway{cfg: cfg, backendURL: backendURL}
}

// Initiate builds the full signed parameter set for the eSewa form
// post.  The transaction UUID is unique per attempt and prefixed with
// the reservation id for traceability.  Both callback URLs point at the
// same verify endpoint; the payload status distinguishes the outcomes.
func (g *EsewaGateway) Initiate(ctx context.Context, res *model.Reservation) (*InitiationResult, error) {
    if !g.cfg.Configured() {
        return nil, fmt.Errorf("%w: esewa", ErrUnconfigured)
    }

    amount := strconv.FormatFloat(res.TotalPrice, 'f', -1, 64)
    transactionUUID := res.ID + "-" + uuid.NewString()
    callbackURL := g.backendURL + "/api/payment/esewa/verify?reservationId=" + res.ID

    params := map[string]string{
        "amount":                  amount,
        "tax_amount":              "0",
        "total_amount":            amount,
        "transaction_uuid":        transactionUUID,
        "product_code":            g.cfg.MerchantCode,
        "product_service_charge":  "0",
        "product_delivery_charge": "0",
        "success_url":             callbackURL,
        "failure_url":             callbackURL,
        "signed_field_names":      esewaSignedFields,
    }
    params["signature"] = Sign(g.cfg.SecretKey, Canonicalize([]Field{
        {Name: "total_amount", Value: amount},
        {Name: "transaction_uuid", Value: transactionUUID},
        {Name: "product_code", Value: g.cfg.MerchantCode},
    }))

    return &InitiationResult{RedirectURL: g.cfg.BaseURL, Params: params}, nil
}

// esewaCallbackPayload is the decoded shape of the base64 "data" query
// parameter eSewa appends to the callback URL.  eSewa serializes all
// fields as strings.
type esewaCallbackPayload struct {
    TransactionCode string `json:"transaction_code"`
    Status          string `json:"status"`
    TotalAmount     string `json:"total_amount"`
    TransactionUUID string `json:"transaction_uuid"`
    ProductCode     string `json:"product_code"`
    Signature       string `json:"signature"`
}

// Verify decodes the callback payload, re-derives the canonical string
// from the decoded fields and requires an exact signature match before
// trusting the status.  A payload that cannot be decoded is
// ErrInvalidCallback; a wrong signature is ErrIntegrityFailure; a valid
// payload with any status other than COMPLETE is a decline.
func (g *EsewaGateway) Verify(ctx context.Context, res *model.Reservation, cb Callback) (*VerificationResult, error) {
    if !g.cfg.Configured() {
        return nil, fmt.Errorf("%w: esewa", ErrUnconfigured)
    }
    if cb.Data == "" {
        return nil, fmt.Errorf("%w: missing data parameter", ErrInvalidCallback)
    }

    raw, err := base64.StdEncoding.DecodeString(cb.Data)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
    }
    var payload esewaCallbackPayload
    if err := json.Unmarshal(raw, &payload); err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
    }

    message := Canonicalize([]Field{
        {Name: "total_amount", Value: payload.TotalAmount},
        {Name: "transaction_uuid", Value: payload.TransactionUUID},
        {Name: "product_code", Value: payload.ProductCode},
    })
    if !VerifySignature(g.cfg.SecretKey, message, payload.Signature) {
        return nil, ErrIntegrityFailure
    }

    if payload.Status != esewaStatusComplete {
        return &VerificationResult{Completed: false, RawStatus: payload.Status}, nil
    }
    return &VerificationResult{
        Completed: true,
        Reference: payload.TransactionCode,
        RawStatus: payload.Status,
    }, nil
}
