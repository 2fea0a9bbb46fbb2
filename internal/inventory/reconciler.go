// Package inventory applies the room-availability side effects of a
// successful payment.
package inventory

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/stayease/hotel-reservation-api/internal/model"
)

// RoomStore is the single inventory mutation the reconciler needs: mark
// a set of dates unavailable for one room number.  The store must make
// repeated inserts of the same (room, number, date) a no-op.
type RoomStore interface {
    AddUnavailableDates(ctx context.Context, roomID string, roomNumber int, dates []time.Time) error
}

// Reconciler fans a reservation's room details out to the room store
// after a successful payment.  It has no deduplication of its own; the
// orchestrator's conditional success write guarantees it runs at most
// once per reservation.
type Reconciler struct {
    rooms RoomStore
}

// NewReconciler returns a Reconciler backed by the given room store.
func NewReconciler(rooms RoomStore) *Reconciler {
    if rooms == nil {
        panic("nil room store passed to NewReconciler")
    }
    return &Reconciler{rooms: rooms}
}

// OnPaymentSuccess adds every stay date to the unavailable set of every
// room number on the reservation.  Room numbers are independent, so the
// updates run concurrently; the call blocks until all of them finish.
// The step is best effort: one room number failing does not stop the
// others, failures are returned for the operator, and nothing is rolled
// back.  An empty room list is a no-op.
func (r *Reconciler) OnPaymentSuccess(ctx context.Context, res *model.Reservation) []error {
    if len(res.RoomDetails) == 0 {
        return nil
    }

    var wg sync.WaitGroup
    errCh := make(chan error, len(res.RoomDetails))
    for _, rd := range res.RoomDetails {
        wg.Add(1)
        go func(rd model.RoomDetail) {
            defer wg.Done()
            if err := r.rooms.AddUnavailableDates(ctx, rd.RoomID, rd.RoomNumber, res.Dates); err != nil {
                errCh <- fmt.Errorf("room %s number %d: %w", rd.RoomID, rd.RoomNumber, err)
            }
        }(rd)
    }
    wg.Wait()
    close(errCh)

    var errs []error
    for err := range errCh {
        errs = append(errs, err)
    }
    return errs
}
