// Package rabbit owns the broker side of the middleware: the static
// exchange/queue topology declared at startup and the channel wrapper
// every publish and consume goes through.
package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind is the AMQP exchange type
type ExchangeKind string

const (
	KindFanout ExchangeKind = "fanout"
	KindDirect ExchangeKind = "direct"
	KindTopic  ExchangeKind = "topic"
)

// Exchange is a node in the static topology graph. Bound lists the
// exchanges this node forwards into; publishing to this node publishes
// to every bound exchange with this node's routing key.
type Exchange struct {
	Name       string
	Kind       ExchangeKind
	RoutingKey string
	Bound      []*Exchange
}

// Queue is a consumable endpoint bound to one or more exchanges with its
// own routing key
type Queue struct {
	Name       string
	RoutingKey string
	Exchanges  []*Exchange
}

// The static topology. Every player data change fans out through the
// events exchange; the update queue is what middleware instances consume
// to learn about changes made elsewhere.
var (
	EventsExchange = &Exchange{
		Name: "events",
		Kind: KindFanout,
	}

	PlayerDataUpdateExchange = &Exchange{
		Name:       "player.data.update",
		Kind:       KindDirect,
		RoutingKey: "player.data.update",
		Bound:      []*Exchange{EventsExchange},
	}

	PlayerDataUpdateQueue = &Queue{
		Name:       "player.data.update.queue",
		RoutingKey: "player.data.update",
		Exchanges:  []*Exchange{EventsExchange},
	}
)

// DefaultExchanges returns the exchanges declared at startup
func DefaultExchanges() []*Exchange {
	return []*Exchange{EventsExchange, PlayerDataUpdateExchange}
}

// DefaultQueues returns the queues declared at startup
func DefaultQueues() []*Queue {
	return []*Queue{PlayerDataUpdateQueue}
}

// Declarer is the subset of the AMQP channel used to set up topology
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	ExchangeBind(destination, key, source string, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareTopology declares every exchange and queue and their bindings.
// Declarations are idempotent for identical definitions. Any failure is
// fatal to startup; there is no partial-topology recovery.
func DeclareTopology(d Declarer, exchanges []*Exchange, queues []*Queue) error {
	declared := make(map[string]bool, len(exchanges))

	for _, ex := range exchanges {
		if err := d.ExchangeDeclare(ex.Name, string(ex.Kind), false, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", ex.Name, err)
		}
		declared[ex.Name] = true
	}

	// Bindings only after every exchange exists
	for _, ex := range exchanges {
		for _, bound := range ex.Bound {
			if !declared[bound.Name] {
				return fmt.Errorf("exchange %s is bound to undeclared exchange %s", ex.Name, bound.Name)
			}
			if err := d.ExchangeBind(ex.Name, ex.RoutingKey, bound.Name, false, nil); err != nil {
				return fmt.Errorf("failed to bind exchange %s to %s: %w", ex.Name, bound.Name, err)
			}
		}
	}

	for _, q := range queues {
		if _, err := d.QueueDeclare(q.Name, false, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.Name, err)
		}
		for _, ex := range q.Exchanges {
			if !declared[ex.Name] {
				return fmt.Errorf("queue %s is bound to undeclared exchange %s", q.Name, ex.Name)
			}
			if err := d.QueueBind(q.Name, q.RoutingKey, ex.Name, false, nil); err != nil {
				return fmt.Errorf("failed to bind queue %s to %s: %w", q.Name, ex.Name, err)
			}
		}
	}

	return nil
}
