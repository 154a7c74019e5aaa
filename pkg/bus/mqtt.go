package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds MQTT session configuration.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string `yaml:"broker" json:"broker"`

	// ClientID identifies this session to the broker.
	ClientID string `yaml:"client_id" json:"client_id"`

	// Username and Password are optional broker credentials.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`

	// ReconnectInterval is how long to wait between connection attempts.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`

	// MaxReconnectAttempts is the maximum number of connection attempts.
	// 0 means unlimited.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// DefaultMQTTConfig returns an MQTTConfig with sensible defaults.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:               "tcp://localhost:1883",
		ClientID:             "carla-bridge",
		ConnectTimeout:       5 * time.Second,
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 0, // Unlimited
	}
}

// Validate checks that the configuration is valid.
func (c *MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	return nil
}

// MQTTSession implements Session over an MQTT broker at QoS 0.
type MQTTSession struct {
	cfg    MQTTConfig
	logger *slog.Logger

	mu     sync.Mutex
	client mqtt.Client
	closed bool

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	reconnectCount   atomic.Int64
}

// NewMQTTSession creates a session. Call Connect to establish it.
func NewMQTTSession(cfg MQTTConfig, logger *slog.Logger) (*MQTTSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTSession{cfg: cfg, logger: logger}, nil
}

// Connect establishes the broker connection.
func (s *MQTTSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.client != nil && s.client.IsConnected() {
		return nil // Already connected
	}

	s.logger.Info("connecting to broker", "broker", s.cfg.Broker, "client_id", s.cfg.ClientID)

	client := mqtt.NewClient(s.clientOptions())
	token := client.Connect()
	if !token.WaitTimeout(s.cfg.ConnectTimeout) {
		return fmt.Errorf("connect to %s: timeout", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", s.cfg.Broker, err)
	}

	s.client = client
	s.logger.Info("connected to broker", "broker", s.cfg.Broker)
	return nil
}

// clientOptions builds the paho client options. Handler ordering is left
// at the default (order matters): subscription callbacks must run
// serially in delivery order, or a command staged later could be
// overwritten by an earlier one racing through its own goroutine.
func (s *MQTTSession) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetAutoReconnect(true)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	return opts
}

// opTimeout bounds per-operation token waits (subscribe, publish,
// unsubscribe) so a wedged broker connection surfaces as an error
// instead of a hang.
func (s *MQTTSession) opTimeout() time.Duration {
	if s.cfg.ConnectTimeout > 0 {
		return s.cfg.ConnectTimeout
	}
	return 5 * time.Second
}

// ConnectWithRetry connects with automatic retry on failure.
func (s *MQTTSession) ConnectWithRetry(ctx context.Context) error {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := s.Connect(ctx)
		if err == nil {
			return nil
		}

		attempts++
		s.reconnectCount.Add(1)

		if s.cfg.MaxReconnectAttempts > 0 && attempts >= s.cfg.MaxReconnectAttempts {
			return fmt.Errorf("max reconnect attempts (%d) reached: %w", s.cfg.MaxReconnectAttempts, err)
		}

		s.logger.Warn("broker connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", s.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ReconnectInterval):
		}
	}
}

// DeclarePublisher creates a publisher for the given topic.
func (s *MQTTSession) DeclarePublisher(topic string) (Publisher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil || s.closed {
		return nil, fmt.Errorf("declare publisher %s: not connected", topic)
	}
	return &mqttPublisher{session: s, topic: topic}, nil
}

// Subscribe registers a handler for every message on the topic.
func (s *MQTTSession) Subscribe(topic string, handler func(payload []byte)) (Subscriber, error) {
	s.mu.Lock()
	client := s.client
	closed := s.closed
	s.mu.Unlock()

	if client == nil || closed {
		return nil, fmt.Errorf("subscribe %s: not connected", topic)
	}

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.messagesReceived.Add(1)
		handler(msg.Payload())
	})
	if !token.WaitTimeout(s.opTimeout()) {
		return nil, fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.logger.Debug("subscribed to topic", "topic", topic)
	return &mqttSubscriber{session: s, topic: topic}, nil
}

// Close disconnects from the broker.
func (s *MQTTSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}

	s.logger.Info("bus session closed")
	return nil
}

// Stats returns session statistics.
func (s *MQTTSession) Stats() SessionStats {
	s.mu.Lock()
	connected := s.client != nil && !s.closed && s.client.IsConnected()
	s.mu.Unlock()

	return SessionStats{
		Connected:        connected,
		MessagesSent:     s.messagesSent.Load(),
		MessagesReceived: s.messagesReceived.Load(),
		ReconnectCount:   s.reconnectCount.Load(),
	}
}

// SessionStats contains session statistics.
type SessionStats struct {
	Connected        bool  `json:"connected"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	ReconnectCount   int64 `json:"reconnect_count"`
}

type mqttPublisher struct {
	session *MQTTSession
	topic   string
}

func (p *mqttPublisher) Put(payload []byte) error {
	p.session.mu.Lock()
	client := p.session.client
	closed := p.session.closed
	p.session.mu.Unlock()

	if client == nil || closed {
		return fmt.Errorf("publish to %s: session closed", p.topic)
	}

	token := client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.session.opTimeout()) {
		return fmt.Errorf("publish to %s: timeout", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	p.session.messagesSent.Add(1)
	return nil
}

func (p *mqttPublisher) Close() error {
	return nil
}

type mqttSubscriber struct {
	session *MQTTSession
	topic   string
}

func (s *mqttSubscriber) Close() error {
	s.session.mu.Lock()
	client := s.session.client
	s.session.mu.Unlock()

	if client == nil {
		return nil
	}
	token := client.Unsubscribe(s.topic)
	if !token.WaitTimeout(s.session.opTimeout()) {
		return fmt.Errorf("unsubscribe %s: timeout", s.topic)
	}
	return token.Error()
}

// Interface checks.
var (
	_ Session    = (*MQTTSession)(nil)
	_ Publisher  = (*mqttPublisher)(nil)
	_ Subscriber = (*mqttSubscriber)(nil)
)
