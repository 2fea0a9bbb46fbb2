// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentConfirmedEvent is published when a reservation's payment
// succeeds. It carries enough for downstream consumers (guest
// notification, analytics) to act without querying the primary
// database. InventoryIncomplete flags the accepted consistency gap
// where some room-number updates failed after the payment committed, so
// an operator can repair availability by hand.
type PaymentConfirmedEvent struct {
    ReservationID       string   `json:"reservation_id"`
    UserID              string   `json:"user_id"`
    HotelID             string   `json:"hotel_id"`
    PaymentMethod       string   `json:"payment_method"`
    TransactionID       string   `json:"transaction_id"`
    TotalPrice          float64  `json:"total_price"`
    Dates               []string `json:"dates"`
    InventoryIncomplete bool     `json:"inventory_incomplete"`
    ConfirmedAt         string   `json:"confirmed_at"`
}
