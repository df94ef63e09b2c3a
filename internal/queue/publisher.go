package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/gusto-eats/internal/model"
)

// Publisher sends order events to RabbitMQ.  It dials per publish, which
// keeps it free of connection state at the cost of a handshake per order.
type Publisher struct {
    URL    string
    Logger *log.Logger
}

func NewPublisher(url string) *Publisher {
    return &Publisher{URL: url, Logger: log.New("queue")}
}

// OrderPlaced publishes o to the order.placed queue as a persistent message.
// Errors are logged and returned; callers treat them as non-fatal.
func (p *Publisher) OrderPlaced(ctx context.Context, o model.Order) error {
    body, err := json.Marshal(NewOrderPlacedEvent(o))
    if err != nil {
        return err
    }
    if err := p.publish(ctx, OrderPlacedQueue, body); err != nil {
        p.Logger.Warnf("publish order %d: %v", o.ID, err)
        return err
    }
    return nil
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := declare(ch, queue); err != nil {
        return err
    }
    return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
    return ch.QueueDeclare(queue, true, false, false, false, nil)
}

// PublishOrderPlaced is a one-shot helper around Publisher.
func PublishOrderPlaced(ctx context.Context, url string, o model.Order) error {
    return NewPublisher(url).OrderPlaced(ctx, o)
}
