package kitchen

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the kitchen link uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	GetNextPublishSeqNo() uint64
}

// Broker owns a RabbitMQ connection with one channel in confirm mode.
type Broker struct {
	conn *amqp.Connection
	ch   Channel
	acks <-chan amqp.Confirmation
	mu   sync.Mutex
}

// Dial connects to url (amqp:// or amqps://) and enables publisher confirms.
func Dial(url string) (*Broker, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	if strings.HasPrefix(url, "amqps://") {
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, fmt.Errorf("kitchen: dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kitchen: open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("kitchen: confirm mode: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 16))
	return &Broker{conn: conn, ch: ch, acks: acks}, nil
}

// NewBroker wraps an already open channel. Publishes are not confirmed.
func NewBroker(ch Channel) *Broker { return &Broker{ch: ch} }

// Close closes the connection.
func (b *Broker) Close() {
	if b == nil || b.conn == nil {
		return
	}
	_ = b.conn.Close()
}

// Ping reports whether the connection is usable.
func (b *Broker) Ping() error {
	if b == nil || b.ch == nil {
		return errors.New("kitchen: broker not configured")
	}
	if b.conn != nil && b.conn.IsClosed() {
		return errors.New("kitchen: broker connection closed")
	}
	return nil
}

// Declare sets up the exchange, the kitchen queue and its dead letter queue.
// It is idempotent.
func (b *Broker) Declare() error {
	if err := b.ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", Exchange, err)
	}
	if err := b.ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", DeadLetterExchange, err)
	}
	if _, err := b.ch.QueueDeclare(Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": DeadLetterQueue,
		"x-max-priority":            int32(10),
	}); err != nil {
		return fmt.Errorf("declare %s: %w", Queue, err)
	}
	if _, err := b.ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", DeadLetterQueue, err)
	}
	if err := b.ch.QueueBind(Queue, "kitchen.*.*", Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", Queue, err)
	}
	if err := b.ch.QueueBind(DeadLetterQueue, DeadLetterQueue, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", DeadLetterQueue, err)
	}
	return nil
}

// Publish sends a persistent JSON message and, in confirm mode, waits for the
// broker to acknowledge it. Confirms left over from publishes abandoned on
// ctx are skipped by delivery tag.
func (b *Broker) Publish(ctx context.Context, key string, priority uint8, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var tag uint64
	if b.acks != nil {
		tag = b.ch.GetNextPublishSeqNo()
	}
	if err := b.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Priority:     priority,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return err
	}
	if b.acks == nil {
		return nil
	}
	for {
		select {
		case conf, ok := <-b.acks:
			if !ok {
				return errors.New("kitchen: confirm channel closed")
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if conf.Ack {
				return nil
			}
			return errors.New("kitchen: publish nacked by broker")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Consume starts delivering messages from the kitchen queue.
func (b *Broker) Consume(consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := b.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return b.ch.Consume(Queue, consumer, false, false, false, false, nil)
}
