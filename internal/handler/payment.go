package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stayease/hotel-reservation-api/internal/payment"
    "github.com/stayease/hotel-reservation-api/internal/repository"
    "github.com/stayease/hotel-reservation-api/pkg/metrics"
)

// PaymentHandler exposes the payment lifecycle over HTTP: one
// initiation endpoint per channel, the gateway callback endpoints and a
// status report.  The orchestrator owns all state transitions; this
// layer only translates HTTP to and from it.  Callback endpoints always
// answer with a redirect to the front end, never with an error status,
// because the calling gateway expects a response it can hand the payer.
type PaymentHandler struct {
    Orchestrator    *payment.Orchestrator
    ReservationRepo *repository.ReservationRepo
    FrontendURL     string
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies must
// be non-nil.
func NewPaymentHandler(o *payment.Orchestrator, reservations *repository.ReservationRepo, frontendURL string) *PaymentHandler {
    if o == nil || reservations == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{Orchestrator: o, ReservationRepo: reservations, FrontendURL: frontendURL}
}

// initiateRequest is the JSON body shared by every initiation endpoint.
type initiateRequest struct {
    ReservationID string `json:"reservationId"`
}

// InitiateCash handles POST /api/payment/cash.  Cash settles
// immediately: the reservation is confirmed synchronously and no
// redirect is involved.
func (h *PaymentHandler) InitiateCash(c echo.Context) error {
    return h.initiate(c, payment.MethodCash, func(*payment.InitiationResult) echo.Map {
        return echo.Map{
            "success": true,
            "message": "Cash payment processed successfully",
        }
    })
}

// InitiateEsewa handles POST /api/payment/esewa/initiate.  The response
// carries the form-post target and the signed parameter set the client
// submits to eSewa.
func (h *PaymentHandler) InitiateEsewa(c echo.Context) error {
    return h.initiate(c, payment.MethodEsewa, func(r *payment.InitiationResult) echo.Map {
        return echo.Map{
            "success":    true,
            "paymentUrl": r.RedirectURL,
            "params":     r.Params,
        }
    })
}

// InitiateKhalti handles POST /api/payment/khalti/initiate.  The
// response carries Khalti's hosted payment URL and the session token
// (pidx) for the attempt.
func (h *PaymentHandler) InitiateKhalti(c echo.Context) error {
    return h.initiate(c, payment.MethodKhalti, func(r *payment.InitiationResult) echo.Map {
        return echo.Map{
            "success":    true,
            "paymentUrl": r.RedirectURL,
            "pidx":       r.SessionToken,
        }
    })
}

// initiate binds the request, runs the orchestrator and maps the error
// taxonomy onto HTTP statuses.  Validation, not-found, already-paid and
// unconfigured all fail before any external call.
func (h *PaymentHandler) initiate(c echo.Context, method payment.Method, shape func(*payment.InitiationResult) echo.Map) error {
    var body initiateRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
    }
    if body.ReservationID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Reservation ID is required"})
    }

    result, err := h.Orchestrator.InitiatePayment(c.Request().Context(), body.ReservationID, method)
    if err != nil {
        metrics.IncRequest(string(method), "initiate", "failed")
        switch {
        case errors.Is(err, repository.ErrReservationNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Reservation not found"})
        case errors.Is(err, repository.ErrAlreadyPaid):
            return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "Reservation is already paid"})
        case errors.Is(err, payment.ErrUnconfigured):
            return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Payment channel is not configured. Please contact support."})
        case errors.Is(err, payment.ErrExternalCall):
            return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "message": "Failed to initiate payment"})
        }
        c.Logger().Errorf("initiate %s payment: %v", method, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error while initiating payment"})
    }
    metrics.IncRequest(string(method), "initiate", "ok")
    return c.JSON(http.StatusOK, shape(result))
}

// VerifyEsewa handles GET /api/payment/esewa/verify.  eSewa redirects
// the payer here with a base64 payload in "data" and the reservation id
// as query context; both success and failure land on this one endpoint.
func (h *PaymentHandler) VerifyEsewa(c echo.Context) error {
    return h.complete(c, payment.MethodEsewa, payment.Callback{
        ReservationID: c.QueryParam("reservationId"),
        Data:          c.QueryParam("data"),
    })
}

// VerifyKhalti handles GET /api/payment/khalti/verify.  Khalti sends
// the pidx plus pass-through order fields; the reservation id arrives
// as the purchase order id, with a reservationId fallback.
func (h *PaymentHandler) VerifyKhalti(c echo.Context) error {
    reservationID := c.QueryParam("purchase_order_id")
    if reservationID == "" {
        reservationID = c.QueryParam("reservationId")
    }
    return h.complete(c, payment.MethodKhalti, payment.Callback{
        ReservationID: reservationID,
        SessionToken:  c.QueryParam("pidx"),
        TransactionID: c.QueryParam("transaction_id"),
        TxnID:         c.QueryParam("txnId"),
    })
}

// complete resolves the callback through the orchestrator and redirects
// to the outcome destination.
func (h *PaymentHandler) complete(c echo.Context, method payment.Method, cb payment.Callback) error {
    start := time.Now()
    outcome := h.Orchestrator.CompletePayment(c.Request().Context(), method, cb)

    status := "failed"
    if outcome.Success {
        status = "ok"
    }
    metrics.IncRequest(string(method), "verify", status)
    metrics.ObserveCallback(string(method), status, time.Since(start).Seconds())

    return c.Redirect(http.StatusFound, outcome.RedirectURL(h.FrontendURL))
}

// Status handles GET /api/payment/status/:reservationId and reports the
// reservation's payment lifecycle fields.
func (h *PaymentHandler) Status(c echo.Context) error {
    id := c.Param("reservationId")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Reservation ID is required"})
    }
    res, err := h.ReservationRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Reservation not found"})
        }
        c.Logger().Errorf("payment status for %s: %v", id, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error while checking payment status"})
    }

    dates := make([]string, 0, len(res.Dates))
    for _, d := range res.Dates {
        dates = append(dates, d.UTC().Format("2006-01-02"))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":       true,
        "reservationId": res.ID,
        "paymentStatus": res.PaymentStatus,
        "status":        res.Status,
        "paymentMethod": res.PaymentMethod,
        "transactionId": res.TransactionID,
        "totalPrice":    res.TotalPrice,
        "dates":         dates,
        "rooms":         res.RoomDetails,
        "createdAt":     res.CreatedAt,
        "updatedAt":     res.UpdatedAt,
    })
}
