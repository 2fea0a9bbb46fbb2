// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and swallowed so a broker outage can never fail a
// payment that has already committed.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/stayease/hotel-reservation-api/internal/model"
    q "github.com/stayease/hotel-reservation-api/internal/queue"
)

const paymentConfirmedQueue = "payment.confirmed"

// Publisher publishes payment events to RabbitMQ.  A zero URL disables
// publishing so deployments without a broker still work.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher for the given AMQP URL.  The URL may
// be empty, in which case every publish is a silent no-op.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PaymentConfirmed publishes a PaymentConfirmedEvent for the
// reservation to the "payment.confirmed" queue.  The function attempts
// to be robust and to never panic; any error is logged and dropped.
// Messages are marked as persistent.
func (p *Publisher) PaymentConfirmed(ctx context.Context, res *model.Reservation, inventoryFailed bool) {
    if p.url == "" {
        return
    }

    txn := ""
    if res.TransactionID != nil {
        txn = *res.TransactionID
    }
    dates := make([]string, 0, len(res.Dates))
    for _, d := range res.Dates {
        dates = append(dates, d.UTC().Format("2006-01-02"))
    }
    event := q.PaymentConfirmedEvent{
        ReservationID:       res.ID,
        UserID:              res.UserID,
        HotelID:             res.HotelID,
        PaymentMethod:       string(res.PaymentMethod),
        TransactionID:       txn,
        TotalPrice:          res.TotalPrice,
        Dates:               dates,
        InventoryIncomplete: inventoryFailed,
        ConfirmedAt:         time.Now().UTC().Format(time.RFC3339),
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        paymentConfirmedQueue, // name
        true,                  // durable
        false,                 // autoDelete
        false,                 // exclusive
        false,                 // noWait
        nil,                   // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",                    // default exchange
        paymentConfirmedQueue, // routing key = queue name
        false,                 // mandatory
        false,                 // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
    }
}
