package payment

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "log"
    "math"
    "net/http"
    "time"

    "github.com/stayease/hotel-reservation-api/internal/config"
    "github.com/stayease/hotel-reservation-api/internal/model"
)

// khaltiStatusCompleted is the only lookup status treated as success.
// Every other value, including "Pending", is a terminal decline.
const khaltiStatusCompleted = "Completed"

// SessionTokenSaver persists the opaque session token (pidx) a
// token-lookup initiation returns, so the later callback can be matched
// to this attempt.
type SessionTokenSaver interface {
    SaveSessionToken(ctx context.Context, reservationID, token string) error
}

// KhaltiGateway implements the token-lookup channel.  Initiate is a
// server-to-server call that opens a payment session and yields a
// redirect URL plus a pidx token; Verify is a second server-to-server
// call that looks the pidx up and maps the returned status.
type KhaltiGateway struct {
    cfg         config.KhaltiConfig
    backendURL  string
    frontendURL string
    tokens      SessionTokenSaver
    client      *http.Client
}

// NewKhaltiGateway builds the Khalti adapter.  The HTTP client carries
// the bounded timeout from configuration; a lookup that exceeds it is a
// verification failure, never a success.
func NewKhaltiGateway(cfg config.KhaltiConfig, backendURL, frontendURL string, tokens SessionTokenSaver, timeout time.Duration) *KhaltiGateway {
    return &KhaltiGateway{
        cfg:         cfg,
        backendURL:  backendURL,
        frontendURL: frontendURL,
        tokens:      tokens,
        client:      &http.Client{Timeout: timeout},
    }
}

type khaltiInitiateRequest struct {
    ReturnURL         string             `json:"return_url"`
    WebsiteURL        string             `json:"website_url"`
    Amount            int64              `json:"amount"`
    PurchaseOrderID   string             `json:"purchase_order_id"`
    PurchaseOrderName string             `json:"purchase_order_name"`
    CustomerInfo      khaltiCustomerInfo `json:"customer_info"`
}

type khaltiCustomerInfo struct {
    Name  string `json:"name"`
    Email string `json:"email"`
    Phone string `json:"phone"`
}

type khaltiInitiateResponse struct {
    Pidx       string `json:"pidx"`
    PaymentURL string `json:"payment_url"`
}

type khaltiLookupResponse struct {
    Pidx          string `json:"pidx"`
    Status        string `json:"status"`
    TransactionID string `json:"transaction_id"`
}

// Initiate opens a Khalti payment session.  The amount is converted to
// paisa (the channel's minor unit), the reservation id rides along as
// the purchase order id, and the returned pidx is persisted on the
// reservation before the redirect URL is handed back.
func (g *KhaltiGateway) Initiate(ctx context.Context, res *model.Reservation) (*InitiationResult, error) {
    if !g.cfg.Configured() {
        return nil, fmt.Errorf("%w: khalti", ErrUnconfigured)
    }

    req := khaltiInitiateRequest{
        ReturnURL:         g.backendURL + "/api/payment/khalti/verify",
        WebsiteURL:        g.frontendURL,
        Amount:            int64(math.Round(res.TotalPrice * 100)),
        PurchaseOrderID:   res.ID,
        PurchaseOrderName: "Hotel_Reservation_" + shortID(res.ID),
        CustomerInfo: khaltiCustomerInfo{
            Name:  defaultStr(res.GuestName, "Customer"),
            Email: defaultStr(res.GuestEmail, "customer@example.com"),
            Phone: defaultStr(res.GuestPhone, "9800000000"),
        },
    }

    var resp khaltiInitiateResponse
    if err := g.post(ctx, "/epayment/initiate/", req, &resp); err != nil {
        return nil, err
    }
    if resp.Pidx == "" || resp.PaymentURL == "" {
        return nil, fmt.Errorf("%w: initiate response missing pidx or payment_url", ErrExternalCall)
    }
    if err := g.tokens.SaveSessionToken(ctx, res.ID, resp.Pidx); err != nil {
        return nil, fmt.Errorf("persist session token: %w", err)
    }
    return &InitiationResult{RedirectURL: resp.PaymentURL, SessionToken: resp.Pidx}, nil
}

// Verify resolves the attempt by looking the callback's pidx up with
// Khalti.  The call fails closed: any transport error or non-2xx
// response is ErrExternalCall and resolves to a failed payment.  Only
// the literal "Completed" status is success; the external reference is
// taken from the callback's transaction id, falling back to the pidx.
func (g *KhaltiGateway) Verify(ctx context.Context, res *model.Reservation, cb Callback) (*VerificationResult, error) {
    if !g.cfg.Configured() {
        return nil, fmt.Errorf("%w: khalti", ErrUnconfigured)
    }
    if cb.SessionToken == "" {
        return nil, fmt.Errorf("%w: missing pidx", ErrInvalidCallback)
    }

    var resp khaltiLookupResponse
    if err := g.post(ctx, "/epayment/lookup/", map[string]string{"pidx": cb.SessionToken}, &resp); err != nil {
        return nil, err
    }

    if resp.Status != khaltiStatusCompleted {
        log.Printf("khalti: payment not completed for reservation %s, status=%q", res.ID, resp.Status)
        return &VerificationResult{Completed: false, RawStatus: resp.Status}, nil
    }

    reference := cb.TransactionID
    if reference == "" {
        reference = cb.TxnID
    }
    if reference == "" {
        reference = resp.TransactionID
    }
    if reference == "" {
        reference = cb.SessionToken
    }
    return &VerificationResult{Completed: true, Reference: reference, RawStatus: resp.Status}, nil
}

// post sends an authorized JSON request to the Khalti e-payment API and
// decodes the response into out.  All failures are wrapped as
// ErrExternalCall so the orchestrator treats them as failed
// verification.
func (g *KhaltiGateway) post(ctx context.Context, path string, body, out interface{}) error {
    payload, err := json.Marshal(body)
    if err != nil {
        return fmt.Errorf("%w: encode request: %v", ErrExternalCall, err)
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
    if err != nil {
        return fmt.Errorf("%w: %v", ErrExternalCall, err)
    }
    req.Header.Set("Authorization", "Key "+g.cfg.SecretKey)
    req.Header.Set("Content-Type", "application/json")

    resp, err := g.client.Do(req)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrExternalCall, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
        return fmt.Errorf("%w: %s returned %d: %s", ErrExternalCall, path, resp.StatusCode, bytes.TrimSpace(detail))
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return fmt.Errorf("%w: decode response: %v", ErrExternalCall, err)
    }
    return nil
}

// shortID returns the first eight characters of an identifier, used in
// the purchase order name Khalti displays to the payer.
func shortID(id string) string {
    if len(id) <= 8 {
        return id
    }
    return id[:8]
}

func defaultStr(v, def string) string {
    if v == "" {
        return def
    }
    return v
}
