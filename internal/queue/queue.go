package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

const (
	TaskEventsQueueName = "task_events"
	TaskEventsBinding   = "task.#"
)

// Publisher hands task lifecycle events to a broker
type Publisher interface {
	PublishTaskEvent(ctx context.Context, evt models.TaskEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// PublishTaskEvent does nothing
func (NopPublisher) PublishTaskEvent(context.Context, models.TaskEvent) error { return nil }

// channel is the part of *amqp.Channel the queue uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Queue publishes task events to a RabbitMQ topic exchange
type Queue struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
}

// New creates a new queue client
func New(cfg config.QueueConfig) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare queue
	_, err = ch.QueueDeclare(
		TaskEventsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to exchange
	err = ch.QueueBind(
		TaskEventsQueueName,
		TaskEventsBinding,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Queue{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
	}, nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishTaskEvent publishes evt with its type as routing key
func (q *Queue) PublishTaskEvent(ctx context.Context, evt models.TaskEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		q.exchange,
		string(evt.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// ConsumeTaskEvents delivers events from the task event queue to handler
// until ctx is done or the channel closes. Undecodable messages are dropped;
// messages whose handler fails are requeued.
func (q *Queue) ConsumeTaskEvents(ctx context.Context, handler func(models.TaskEvent) error) error {
	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		10,    // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		TaskEventsQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			deliver(msg, handler)
		}
	}
}

func deliver(msg amqp.Delivery, handler func(models.TaskEvent) error) {
	var evt models.TaskEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		_ = msg.Nack(false, false)
		return
	}

	if err := handler(evt); err != nil {
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
