// Package event delivers player-data change notifications: to listeners
// registered in this process, and over the broker so other middleware
// instances see the change too.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/rabbit"
)

// MessageTypeUpdate is the broker message type for change notifications
const MessageTypeUpdate = "player.data.update"

// UpdateMessage is the wire body of a change notification
type UpdateMessage struct {
	UUID      string `json:"uuid"`
	Timestamp int64  `json:"timestamp"`
}

// Listener is invoked once per change notification
type Listener func(id uuid.UUID)

// Publisher is the broker surface the dispatcher needs
type Publisher interface {
	PublishAsync(ctx context.Context, ex *rabbit.Exchange, props rabbit.Properties, body []byte)
	Consume(queueName string, fn func(body []byte)) error
}

// Sink is the change-event collaborator consumed by the update path
type Sink interface {
	Fire(ctx context.Context, id uuid.UUID)
}

// Dispatcher fans change notifications out to local listeners and the
// broker
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener

	channel  Publisher
	exchange *rabbit.Exchange
	logger   *logger.Logger
}

// NewDispatcher creates a Dispatcher publishing through the given
// channel. A nil channel keeps dispatch local to this process.
func NewDispatcher(channel Publisher, l *logger.Logger) *Dispatcher {
	return &Dispatcher{
		channel:  channel,
		exchange: rabbit.PlayerDataUpdateExchange,
		logger:   l,
	}
}

// Subscribe registers a listener for change notifications
func (d *Dispatcher) Subscribe(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Fire notifies local listeners and publishes the change to the broker.
// The publish is fire-and-forget.
func (d *Dispatcher) Fire(ctx context.Context, id uuid.UUID) {
	d.notify(id)

	if d.channel == nil {
		return
	}

	body, err := json.Marshal(UpdateMessage{
		UUID:      id.String(),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		d.logger.Error("failed to serialize update message", err, zap.String("uuid", id.String()))
		return
	}

	d.channel.PublishAsync(ctx, d.exchange, rabbit.Properties{Type: MessageTypeUpdate}, body)
}

// Listen consumes change notifications from the given queue and re-fires
// them to local listeners. Used to observe updates made by other
// processes.
func (d *Dispatcher) Listen(queueName string) error {
	if d.channel == nil {
		return nil
	}
	return d.channel.Consume(queueName, func(body []byte) {
		var msg UpdateMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			d.logger.Warn("skipping malformed update message", zap.Error(err), zap.ByteString("payload", body))
			return
		}
		id, err := uuid.Parse(msg.UUID)
		if err != nil {
			d.logger.Warn("skipping update message with invalid uuid", zap.String("uuid", msg.UUID))
			return
		}
		d.notify(id)
	})
}

func (d *Dispatcher) notify(id uuid.UUID) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, fn := range listeners {
		fn(id)
	}
}
