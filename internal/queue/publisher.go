package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// dialTimeout bounds a (re)connect attempt so a broker outage cannot stall
// a publish for the library's default 30 seconds.
const dialTimeout = 3 * time.Second

// Publisher publishes booking events to a durable topic exchange over a
// long-lived connection.  A closed connection or channel is re-dialled
// once on the next publish.  Publisher is safe for concurrent use.
type Publisher struct {
	url      string
	exchange string
	log      *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{url: url, exchange: exchange, log: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with p.mu held (or before p is shared).
func (p *Publisher) connect() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, p.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// PublishBookingEvent publishes ev with its type as routing key.  Messages
// are persistent so they survive broker restarts.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		p.closeLocked()
		if err := p.connect(); err != nil {
			return err
		}
		p.log.Info("rabbitmq publisher reconnected", zap.String("exchange", p.exchange))
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// Drop the dead channel; the next publish reconnects.
		p.closeLocked()
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	if errors.Is(err, amqp.ErrClosed) {
		err = nil
	}
	return err
}

// LogPublisher writes events to the application log instead of a broker.
// It is used when no broker URL is configured.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	p.Log.Info("booking event",
		zap.String("type", ev.Type),
		zap.Uint64("booking_id", ev.BookingID),
		zap.Uint64("room_id", ev.RoomID),
		zap.String("status", string(ev.Status)))
	return nil
}
