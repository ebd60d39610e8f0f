package rabbit

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/config"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/metrics"
	"github.com/ThomasWega/TG-Middleware/pkg/worker"
)

// DefaultReadyTimeout bounds how long AwaitReady waits before the
// channel is considered permanently unusable
const DefaultReadyTimeout = 10 * time.Second

var (
	// ErrReadyTimeout means the channel never became ready within the bound
	ErrReadyTimeout = errors.New("rabbitmq channel readiness timed out")

	// ErrClosed means the channel was closed; Closed is terminal
	ErrClosed = errors.New("rabbitmq channel is closed")
)

// State is the channel lifecycle state. Transitions are monotonic:
// Uninitialized to Ready or Closed, Ready to Closed, never back.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Properties are the delivery properties attached to a published message
type Properties struct {
	Type       string
	Expiration string
	Headers    map[string]interface{}
}

// Wire is the subset of *amqp091.Channel the wrapper uses
type Wire interface {
	Declarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Channel wraps a single shared AMQP connection and channel. All
// publishes and consumes in the process go through one instance.
type Channel struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	wire  Wire
	state State
	ready chan struct{}
	done  chan struct{}

	readyTimeout time.Duration
	pool         *worker.Pool
	logger       *logger.Logger
}

// Option configures a Channel
type Option func(*Channel)

// WithReadyTimeout overrides the readiness bound
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Channel) {
		c.readyTimeout = d
	}
}

// NewChannel wraps an existing wire in the Uninitialized state. Used by
// Dial and by tests that substitute the wire.
func NewChannel(wire Wire, pool *worker.Pool, l *logger.Logger, opts ...Option) *Channel {
	c := &Channel{
		wire:         wire,
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
		readyTimeout: DefaultReadyTimeout,
		pool:         pool,
		logger:       l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to the broker, declares the default topology, and
// returns a ready channel. A declare or bind failure aborts startup.
func Dial(cfg config.RabbitConfig, pool *worker.Pool, l *logger.Logger, opts ...Option) (*Channel, error) {
	conn, err := amqp.Dial(cfg.URI())
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := NewChannel(ch, pool, l, opts...)
	c.conn = conn

	if err := DeclareTopology(ch, DefaultExchanges(), DefaultQueues()); err != nil {
		c.Close()
		return nil, err
	}

	c.MarkReady()
	l.Info("rabbitmq channel ready", zap.String("host", cfg.Host))
	return c, nil
}

// MarkReady transitions the channel to Ready. A closed channel stays
// closed.
func (c *Channel) MarkReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUninitialized {
		return
	}
	c.state = StateReady
	close(c.ready)
}

// State returns the current lifecycle state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AwaitReady blocks until the channel is Ready. Returns immediately when
// it already is, ErrReadyTimeout once the bound elapses, and ErrClosed
// on a closed channel.
func (c *Channel) AwaitReady(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	}
	ready := c.ready
	done := c.done
	timeout := c.readyTimeout
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-done:
		return ErrClosed
	case <-timer.C:
		metrics.ReadyTimeoutsTotal.Inc()
		return ErrReadyTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends the body to every exchange bound to the given node,
// using the node's routing key. Fire-and-forget: IO failures are counted
// and logged, never returned.
func (c *Channel) Publish(ctx context.Context, ex *Exchange, props Properties, body []byte) {
	c.mu.Lock()
	state := c.state
	wire := c.wire
	c.mu.Unlock()

	if state != StateReady {
		metrics.PublishErrorsTotal.Inc()
		c.logger.Warn("dropping publish on non-ready channel",
			zap.String("exchange", ex.Name),
			zap.String("state", state.String()))
		return
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		Type:        props.Type,
		Expiration:  props.Expiration,
		Headers:     props.Headers,
		Body:        body,
	}

	for _, bound := range ex.Bound {
		if err := wire.PublishWithContext(ctx, bound.Name, ex.RoutingKey, false, false, msg); err != nil {
			metrics.PublishErrorsTotal.Inc()
			c.logger.Error("failed to publish message", err,
				zap.String("exchange", bound.Name),
				zap.String("routing_key", ex.RoutingKey))
			continue
		}
		metrics.PublishesTotal.Inc()
	}
}

// PublishAsync offloads Publish to the shared worker pool; the caller
// does not await completion
func (c *Channel) PublishAsync(ctx context.Context, ex *Exchange, props Properties, body []byte) {
	err := c.pool.Submit(ctx, func(taskCtx context.Context) {
		c.Publish(taskCtx, ex, props, body)
	})
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		c.logger.Error("failed to queue async publish", err, zap.String("exchange", ex.Name))
	}
}

// Consume registers a handler invoked once per delivered message.
// Deliveries are acknowledged before the handler runs, so a crash during
// handling loses the message.
func (c *Channel) Consume(queueName string, fn func(body []byte)) error {
	c.mu.Lock()
	wire := c.wire
	state := c.state
	c.mu.Unlock()

	if state == StateClosed {
		return ErrClosed
	}

	deliveries, err := wire.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range deliveries {
			metrics.ConsumedTotal.Inc()
			fn(d.Body)
		}
	}()

	return nil
}

// Close closes the channel and then the connection. Idempotent; the
// channel is unusable afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	close(c.done)

	var errs []error
	if c.wire != nil {
		if err := c.wire.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
