package repository

import (
    "context"
    "database/sql"
    "time"
)

// RoomRepo maintains room availability.  The only mutation the payment
// core performs is appending unavailable dates to a room number after a
// successful payment; room and hotel CRUD belong to another service.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// AddUnavailableDates marks every given date as unavailable for one room
// number in a single multi-row statement.  The table carries a unique
// key over (room_id, room_number, unavailable_date) and the insert uses
// INSERT IGNORE, so replaying the same reservation's dates can never
// produce duplicate entries.  Passing an empty slice has no effect and
// returns nil.
func (r *RoomRepo) AddUnavailableDates(ctx context.Context, roomID string, roomNumber int, dates []time.Time) error {
    if len(dates) == 0 {
        return nil
    }
    query := `INSERT IGNORE INTO room_unavailable_dates (room_id, room_number, unavailable_date) VALUES `
    args := make([]interface{}, 0, len(dates)*3)
    for i, d := range dates {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, roomID, roomNumber, d.UTC().Format("2006-01-02"))
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// UnavailableDates returns the dates currently blocked for a room
// number, in ascending order.  It exists for operator tooling and
// tests; the booking search service reads the same table directly.
func (r *RoomRepo) UnavailableDates(ctx context.Context, roomID string, roomNumber int) ([]time.Time, error) {
    const q = `SELECT unavailable_date FROM room_unavailable_dates
               WHERE room_id = ? AND room_number = ?
               ORDER BY unavailable_date`
    rows, err := r.db.QueryContext(ctx, q, roomID, roomNumber)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var dates []time.Time
    for rows.Next() {
        var d time.Time
        if err := rows.Scan(&d); err != nil {
            return nil, err
        }
        dates = append(dates, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return dates, nil
}
