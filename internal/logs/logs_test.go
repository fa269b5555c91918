package logs

import (
	"testing"
	"time"
)

func TestManagerConsumeInfoKeepsStatusOK(t *testing.T) {
	t.Parallel()

	p := NewPipe(4)
	m := NewManager(p)
	p.Info("started")
	m.Consume()

	if got := m.Status(); got.Kind != StatusOK {
		t.Errorf("Status().Kind = %v, want StatusOK", got.Kind)
	}
}

func TestManagerErrorIsStickyCritical(t *testing.T) {
	t.Parallel()

	p := NewPipe(4)
	m := NewManager(p)
	p.Error("connection lost")
	m.Consume()

	got := m.Status()
	if got.Kind != StatusCritical {
		t.Fatalf("Status().Kind = %v, want StatusCritical", got.Kind)
	}
	if got.Message != "connection lost" {
		t.Errorf("Status().Message = %q, want %q", got.Message, "connection lost")
	}

	// A later Info must not clear the sticky critical status.
	p.Info("reconnected")
	m.Consume()
	if got := m.Status(); got.Kind != StatusCritical {
		t.Errorf("Status().Kind after Info = %v, want StatusCritical (sticky)", got.Kind)
	}
}

func TestManagerWarningExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	p := NewPipe(4)
	m := NewManager(p)
	p.Warning("stale book", 10*time.Millisecond)
	m.Consume()

	if got := m.Status(); got.Kind != StatusWarning {
		t.Fatalf("Status().Kind = %v, want StatusWarning", got.Kind)
	}

	time.Sleep(20 * time.Millisecond)
	// A 10ms lifetime rounds down to zero whole seconds, so the Status call
	// above already reported the entry and removed it; the queue is empty now.
	m.Status()
	if got := m.Status(); got.Kind != StatusOK {
		t.Errorf("Status().Kind after TTL expiry = %v, want StatusOK", got.Kind)
	}
}

func TestPipeNonBlockingWhenFull(t *testing.T) {
	t.Parallel()

	p := NewPipe(1)
	p.Info("first")
	done := make(chan struct{})
	go func() {
		p.Info("second, should drop not block")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Info() blocked on a full buffer, want non-blocking drop")
	}
}
