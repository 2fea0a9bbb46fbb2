package model

import "time"

// PaymentStatus tracks the settlement state of a reservation's single
// payment attempt.  Once a terminal value ("success" or "failed") has
// been recorded it never changes again.
type PaymentStatus string

const (
    PaymentPending PaymentStatus = "pending"
    PaymentSuccess PaymentStatus = "success"
    PaymentFailed  PaymentStatus = "failed"
)

// ReservationStatus is the booking state of the reservation itself.  A
// reservation becomes confirmed only as a consequence of a successful
// payment transition.
type ReservationStatus string

const (
    ReservationPending   ReservationStatus = "pending"
    ReservationConfirmed ReservationStatus = "confirmed"
    ReservationCancelled ReservationStatus = "cancelled"
)

// PaymentMethod identifies the settlement channel used for a
// reservation.  "none" is the zero value before any payment has been
// initiated.
type PaymentMethod string

const (
    MethodNone   PaymentMethod = "none"
    MethodCash   PaymentMethod = "cash"
    MethodEsewa  PaymentMethod = "esewa"
    MethodKhalti PaymentMethod = "khalti"
)

// RoomDetail identifies one concrete room number booked under a
// reservation.  RoomID refers to the room type record, RoomNumber to
// the physical unit inside it.
type RoomDetail struct {
    RoomID     string `json:"roomId"`     // reservation_rooms.room_id
    RoomNumber int    `json:"roomNumber"` // reservation_rooms.room_number
}

// Reservation records a guest's booking for a hotel stay.  It links the
// guest and hotel, the set of room numbers booked, the stay dates and
// the payment lifecycle fields owned by the payment orchestrator.
//
// Invariant: PaymentStatus == PaymentSuccess implies Status ==
// ReservationConfirmed, a non-nil TransactionID and a PaymentMethod
// other than MethodNone.
type Reservation struct {
    ID            string            // reservations.id
    UserID        string            // reservations.user_id
    HotelID       string            // reservations.hotel_id
    GuestName     string            // reservations.guest_name (denormalized contact info)
    GuestEmail    string            // reservations.guest_email
    GuestPhone    string            // reservations.guest_phone
    RoomDetails   []RoomDetail      // reservation_rooms rows, in booking order
    Dates         []time.Time       // reservation_dates rows covering the stay
    TotalPrice    float64           // reservations.total_price (NPR)
    PaymentStatus PaymentStatus     // reservations.payment_status
    Status        ReservationStatus // reservations.status
    PaymentMethod PaymentMethod     // reservations.payment_method
    TransactionID *string           // reservations.transaction_id (nullable)
    SessionToken  *string           // reservations.session_token (nullable, Khalti pidx)
    CreatedAt     time.Time         // reservations.created_at
    UpdatedAt     time.Time         // reservations.updated_at
}
