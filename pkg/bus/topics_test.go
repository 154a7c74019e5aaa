package bus

import (
	"testing"
	"time"
)

func TestTopics(t *testing.T) {
	topics := NewTopics("v1")

	cases := []struct {
		got  string
		want string
	}{
		{topics.ControlCmd(), "v1/control_cmd"},
		{topics.GearCmd(), "v1/gear_cmd"},
		{topics.GateModeCmd(), "v1/gate_mode_cmd"},
		{topics.VelocityStatus(), "v1/velocity_status"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestMQTTConfigValidate(t *testing.T) {
	cfg := DefaultMQTTConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.Broker = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty broker")
	}

	cfg = DefaultMQTTConfig()
	cfg.ClientID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty client_id")
	}
}

func TestMQTTSession_OrderedDelivery(t *testing.T) {
	s, err := NewMQTTSession(DefaultMQTTConfig(), nil)
	if err != nil {
		t.Fatalf("NewMQTTSession: %v", err)
	}

	// Handler invocation must be serialized in delivery order; with
	// ordering disabled each callback runs in its own goroutine, and a
	// later command can lose the race against an earlier one.
	opts := s.clientOptions()
	if !opts.Order {
		t.Error("client options must keep in-order handler dispatch")
	}
	if opts.ConnectTimeout != s.cfg.ConnectTimeout {
		t.Errorf("connect timeout: got %v, want %v", opts.ConnectTimeout, s.cfg.ConnectTimeout)
	}
}

func TestMQTTSession_OpTimeout(t *testing.T) {
	cfg := DefaultMQTTConfig()
	cfg.ConnectTimeout = 3 * time.Second
	s, err := NewMQTTSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewMQTTSession: %v", err)
	}
	if got := s.opTimeout(); got != 3*time.Second {
		t.Errorf("opTimeout: got %v, want 3s", got)
	}

	cfg.ConnectTimeout = 0
	s, err = NewMQTTSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewMQTTSession: %v", err)
	}
	if got := s.opTimeout(); got != 5*time.Second {
		t.Errorf("opTimeout fallback: got %v, want 5s", got)
	}
}

func TestMQTTSession_NotConnected(t *testing.T) {
	s, err := NewMQTTSession(DefaultMQTTConfig(), nil)
	if err != nil {
		t.Fatalf("NewMQTTSession: %v", err)
	}

	if _, err := s.DeclarePublisher("v1/velocity_status"); err == nil {
		t.Error("expected error declaring publisher before connect")
	}
	if _, err := s.Subscribe("v1/control_cmd", func([]byte) {}); err == nil {
		t.Error("expected error subscribing before connect")
	}

	stats := s.Stats()
	if stats.Connected {
		t.Error("stats should report not connected")
	}
}
