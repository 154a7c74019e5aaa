package hub

import (
	"testing"
	"time"
)

func TestHub_BroadcastWithoutClients(t *testing.T) {
	h := New("status")
	go h.Run()

	// Must not block even with nobody listening.
	for i := 0; i < 300; i++ {
		h.Broadcast([]byte(`{}`))
	}

	if h.ClientCount() != 0 {
		t.Errorf("client count: got %d, want 0", h.ClientCount())
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := New("status")
	go h.Run()

	// No buffer and nobody reading: the first broadcast finds the
	// client's queue full and must evict it.
	slow := &Client{hub: h, send: make(chan []byte)}
	h.register <- slow
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	// ClientCount hammers the lock concurrently with the eviction.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.ClientCount()
		}
	}()

	h.Broadcast([]byte(`{}`))
	waitFor(t, func() bool { return h.ClientCount() == 0 })
	<-done

	if _, ok := <-slow.send; ok {
		t.Error("slow client's send channel should be closed")
	}
}

func TestHub_BroadcastJSON(t *testing.T) {
	h := New("status")
	go h.Run()

	if err := h.BroadcastJSON(map[string]int{"speed": 5}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}
