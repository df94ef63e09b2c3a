package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier receives decoded order events.
type Notifier interface {
    NotifyOrder(ctx context.Context, ev OrderPlacedEvent) error
}

// Consumer forwards order.placed messages to a Notifier.
type Consumer struct {
    URL      string
    Notifier Notifier
    Logger   *log.Logger
}

func NewConsumer(url string, n Notifier) *Consumer {
    return &Consumer{URL: url, Notifier: n, Logger: log.New("order-consumer")}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) when the connection drops.
func (c *Consumer) Run(ctx context.Context) {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.Warnf("dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        c.Logger.Warnf("consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.Warnf("set QoS: %v", err)
    }
    if _, err := declare(ch, OrderPlacedQueue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(OrderPlacedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(ctx, d.Body); err != nil {
                c.Logger.Errorf("handle message: %v", err)
                _ = d.Nack(false, false) // no requeue, avoids a poison loop
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and hands it to the notifier.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev OrderPlacedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.OrderID == 0 {
        return errors.New("event without order id")
    }
    return c.Notifier.NotifyOrder(ctx, ev)
}

// StartOrderConsumer runs a Consumer in its own goroutine until ctx ends.
func StartOrderConsumer(ctx context.Context, url string, n Notifier) {
    go NewConsumer(url, n).Run(ctx)
}
