// Package bus defines the pub/sub boundary between the bridge and the
// autonomy stack, plus an MQTT-backed implementation.
//
// The bridge core depends only on the Session, Publisher and Subscriber
// interfaces; the transport behind them is swappable. Subscription
// handlers are invoked on the transport's delivery goroutines, which run
// concurrently with the tick loop.
package bus

// Publisher publishes payloads to a single topic.
type Publisher interface {
	Put(payload []byte) error
	Close() error
}

// Subscriber is a handle to an active subscription.
type Subscriber interface {
	Close() error
}

// Session is an open connection to the message bus.
type Session interface {
	// DeclarePublisher creates a publisher for the given topic.
	DeclarePublisher(topic string) (Publisher, error)

	// Subscribe registers a handler invoked for every message on the topic.
	// The handler runs on the transport's delivery goroutine.
	Subscribe(topic string, handler func(payload []byte)) (Subscriber, error)

	Close() error
}
