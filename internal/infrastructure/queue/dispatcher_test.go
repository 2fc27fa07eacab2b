package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/ports"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.AccountEvent
	err    error
	done   chan struct{}
	want   int
}

func newRecordingPublisher(want int) *recordingPublisher {
	return &recordingPublisher{done: make(chan struct{}), want: want}
}

func (p *recordingPublisher) Publish(_ context.Context, e ports.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	if len(p.events) == p.want {
		close(p.done)
	}
	return p.err
}

func (p *recordingPublisher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d events", p.want)
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	pub := newRecordingPublisher(20)
	d := NewDispatcher(4, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Enqueue(ports.AccountEvent{Type: ports.EventUserLoggedIn, Username: "alice", UserID: fmt.Sprint(i)})
		d.Enqueue(ports.AccountEvent{Type: ports.EventUserLoggedIn, Username: "bob", UserID: fmt.Sprint(i)})
	}
	pub.wait(t)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	next := map[string]int{}
	for _, e := range pub.events {
		if e.UserID != fmt.Sprint(next[e.Username]) {
			t.Fatalf("out of order for %s: got %s want %d", e.Username, e.UserID, next[e.Username])
		}
		next[e.Username]++
	}
}

func TestDispatcher_PublishErrorDoesNotStopWorker(t *testing.T) {
	pub := newRecordingPublisher(2)
	pub.err = errors.New("broker down")
	d := NewDispatcher(1, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(ports.AccountEvent{Type: ports.EventUserRegistered, Username: "alice"})
	d.Enqueue(ports.AccountEvent{Type: ports.EventUserRegistered, Username: "alice"})
	pub.wait(t)

	cancel()
	d.Wait()
}

func TestDispatcher_EnqueueDoesNotBlockWhenFull(t *testing.T) {
	pub := newRecordingPublisher(-1)
	d := NewDispatcher(1, pub, zerolog.Nop())
	// workers not started: the buffer fills and further events are dropped

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.AccountEvent{Type: ports.EventUserLoggedIn, Username: "alice"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full buffer")
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected full buffer of %d, got %d", channelBuffer, got)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingPublisher(-1), zerolog.Nop())
	first := d.shardIndex("alice")
	for i := 0; i < 5; i++ {
		if d.shardIndex("alice") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
