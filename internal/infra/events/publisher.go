package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const purchaseQueue = "purchase_completed"

// PurchaseCompleted is emitted after a purchase commits, for downstream
// consumers (receipts, analytics, access provisioning).
type PurchaseCompleted struct {
	EventID       string    `json:"event_id"`
	TransactionID string    `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	CourseID      uint      `json:"course_id"`
	Amount        float64   `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher pushes purchase events somewhere. NoopPublisher is used when no
// broker is configured.
type Publisher interface {
	PublishPurchaseCompleted(ctx context.Context, evt PurchaseCompleted) error
}

type AMQPPublisher struct {
	conn *amqp.Connection
}

// Dial connects to RabbitMQ and declares the purchase queue up front so
// publishes cannot race the first consumer.
func Dial(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		purchaseQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn}, nil
}

func (p *AMQPPublisher) PublishPurchaseCompleted(ctx context.Context, evt PurchaseCompleted) error {
	if evt.EventID == "" {
		evt.EventID = uuid.New().String()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// channel per publish; amqp channels are not safe for concurrent use
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.PublishWithContext(ctx,
		"",            // exchange
		purchaseQueue, // routing key (queue name)
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) PublishPurchaseCompleted(ctx context.Context, evt PurchaseCompleted) error {
	log.Debug().Str("transaction_id", evt.TransactionID).Msg("event publishing disabled, dropping purchase event")
	return nil
}
