package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/stayease/hotel-reservation-api/internal/model"
)

// ReservationRepo provides read access to reservations and owns every
// payment-lifecycle mutation.  Reservations are created elsewhere (the
// booking flow); this repository only resolves them by id and applies
// the pending -> success / pending -> failed transitions.  All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// GetByID loads a reservation together with its room details and stay
// dates.  Room details preserve booking order, dates are returned in
// ascending order.  ErrReservationNotFound is returned when no row
// exists for the id.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
    const q = `SELECT id, user_id, hotel_id,
                      COALESCE(guest_name, ''), COALESCE(guest_email, ''), COALESCE(guest_phone, ''),
                      total_price, payment_status, status, payment_method,
                      transaction_id, session_token, created_at, updated_at
               FROM reservations WHERE id = ?`
    var res model.Reservation
    var txnID, sessionToken sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.HotelID,
        &res.GuestName, &res.GuestEmail, &res.GuestPhone,
        &res.TotalPrice, &res.PaymentStatus, &res.Status, &res.PaymentMethod,
        &txnID, &sessionToken, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if txnID.Valid {
        v := txnID.String
        res.TransactionID = &v
    }
    if sessionToken.Valid {
        v := sessionToken.String
        res.SessionToken = &v
    }

    // Room details, in the order they were booked.
    const roomQ = `SELECT room_id, room_number FROM reservation_rooms
                   WHERE reservation_id = ? ORDER BY position`
    rows, err := r.db.QueryContext(ctx, roomQ, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var rd model.RoomDetail
        if err := rows.Scan(&rd.RoomID, &rd.RoomNumber); err != nil {
            return nil, err
        }
        res.RoomDetails = append(res.RoomDetails, rd)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    // Stay dates covering the reservation.
    const dateQ = `SELECT stay_date FROM reservation_dates
                   WHERE reservation_id = ? ORDER BY stay_date`
    drows, err := r.db.QueryContext(ctx, dateQ, id)
    if err != nil {
        return nil, err
    }
    defer drows.Close()
    for drows.Next() {
        var d sql.NullTime
        if err := drows.Scan(&d); err != nil {
            return nil, err
        }
        if d.Valid {
            res.Dates = append(res.Dates, d.Time)
        }
    }
    if err := drows.Err(); err != nil {
        return nil, err
    }
    return &res, nil
}

// MarkPaymentSuccess applies the terminal success transition as a single
// conditional update: the row is touched only when its payment_status is
// not already 'success'.  It returns true when this call won the
// transition and false when another callback got there first.  Gateways
// deliver callbacks at least once, so this conditional write is the only
// guard that keeps inventory reconciliation from running twice.
func (r *ReservationRepo) MarkPaymentSuccess(ctx context.Context, id string, method model.PaymentMethod, transactionID string) (bool, error) {
    const q = `UPDATE reservations
               SET payment_status = 'success', status = 'confirmed',
                   payment_method = ?, transaction_id = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND payment_status <> 'success'`
    result, err := r.db.ExecContext(ctx, q, method, transactionID, id)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkPaymentFailed records a failed attempt.  The booking status is
// left untouched and an already-successful payment is never demoted.
func (r *ReservationRepo) MarkPaymentFailed(ctx context.Context, id string) error {
    const q = `UPDATE reservations
               SET payment_status = 'failed', updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND payment_status <> 'success'`
    _, err := r.db.ExecContext(ctx, q, id)
    return err
}

// SaveSessionToken persists the opaque session token handed back by the
// token-lookup channel at initiation (Khalti's pidx) so the later
// callback can be correlated with this attempt.
func (r *ReservationRepo) SaveSessionToken(ctx context.Context, id, token string) error {
    const q = `UPDATE reservations
               SET session_token = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, token, id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrReservationNotFound
    }
    return nil
}
