package model

import "time"

// RoomNumber is a single physical unit of a room type together with the
// dates on which it cannot be booked.  A date enters UnavailableDates
// only when a reservation referencing this unit reaches a successful
// payment.
type RoomNumber struct {
    Number           int         `json:"number"`
    UnavailableDates []time.Time `json:"unavailableDates"`
}

// Room is a bookable room type belonging to a hotel.  Room and hotel
// CRUD live outside this service; the payment core only appends
// unavailable dates to room numbers through the inventory store.
type Room struct {
    ID          string       `json:"id"`
    HotelID     string       `json:"hotelId"`
    Title       string       `json:"title"`
    Price       float64      `json:"price"`
    RoomNumbers []RoomNumber `json:"roomNumbers"`
}
