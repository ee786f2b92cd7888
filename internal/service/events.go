package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/course-portal/internal/queue"
)

// Publisher delivers change events.  Failures are reported to the caller,
// which logs them and carries on.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ChangeEvent) error
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

// Publish always succeeds.
func (NopPublisher) Publish(context.Context, queue.ChangeEvent) error { return nil }

// dialTimeout bounds the TCP connect to the broker.
const dialTimeout = 2 * time.Second

// redialBackoff is how long Publish fails fast after a dial error.
const redialBackoff = 5 * time.Second

var errBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// AMQPPublisher publishes persistent JSON messages to a durable RabbitMQ
// queue through the default exchange.  The connection is opened lazily and
// reopened after a failure.  The dial runs outside the lock; concurrent
// publishers fail fast while it is in flight instead of queueing behind it.
type AMQPPublisher struct {
	url   string
	queue string
	dial  func(url string) (*amqp.Connection, error)

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	dialing   bool
	closed    bool
	downUntil time.Time
}

// NewAMQPPublisher returns a publisher for queueName on the broker at url.
// Nothing is dialled until the first Publish.
func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queueName, dial: dialBroker}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// channel returns an open channel, dialling and declaring the queue when
// needed.  p.mu must not be held.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.closed || p.dialing || time.Now().Before(p.downUntil) {
		p.mu.Unlock()
		return nil, errBrokerUnavailable
	}
	p.reset()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.open()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.downUntil = time.Now().Add(redialBackoff)
		return nil, err
	}
	if p.closed {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errBrokerUnavailable
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := p.dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// durable so events survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return conn, ch, nil
}

// reset drops the current connection.  Callers hold p.mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Publish sends ev as one persistent message.  A publish error drops the
// connection so the next call redials.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.  Later publishes fail.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}
