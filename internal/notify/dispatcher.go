package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carpool/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

const Exchange = "carpool.notifications"

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher only writes notifications to the log. It is used when no
// broker is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	logger.Info("notification", "user_id", n.UserID, "type", n.Type, "title", n.Title, "message", n.Message)
	return nil
}

// Publisher is the part of *amqp091.Channel the dispatcher needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPDispatcher publishes every notification to a topic exchange with the
// routing key notification.<type>.
type AMQPDispatcher struct {
	ch Publisher
}

func NewAMQPDispatcher(ch Publisher) *AMQPDispatcher {
	return &AMQPDispatcher{ch: ch}
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.ch.PublishWithContext(pctx, Exchange, "notification."+n.Type, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// DialAMQP connects to the broker and declares the notification exchange.
func DialAMQP(url string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}

	logger.Info("connected to RabbitMQ", "exchange", Exchange)
	return conn, ch, nil
}
