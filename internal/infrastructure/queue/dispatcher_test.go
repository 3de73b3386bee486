package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AccountEvent
	err    error
	done   chan struct{}
	want   int
}

func newRecordingPublisher(want int) *recordingPublisher {
	return &recordingPublisher{done: make(chan struct{}), want: want}
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	if len(p.events) == p.want {
		close(p.done)
	}
	return p.err
}

func (p *recordingPublisher) snapshot() []domain.AccountEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.AccountEvent(nil), p.events...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func TestDispatcher_PreservesPerAccountOrder(t *testing.T) {
	const perAccount = 50
	pub := newRecordingPublisher(perAccount * 2)
	d := NewDispatcher(3, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < perAccount; i++ {
		d.Enqueue(domain.AccountEvent{Type: domain.AccountUpdated, AccountID: 1})
		d.Enqueue(domain.AccountEvent{Type: domain.AccountUpdated, AccountID: 2, OccurredAt: time.Unix(int64(i), 0)})
	}

	waitFor(t, pub.done)
	cancel()
	d.Wait()

	var seen []int64
	for _, e := range pub.snapshot() {
		if e.AccountID == 2 {
			seen = append(seen, e.OccurredAt.Unix())
		}
	}
	if len(seen) != perAccount {
		t.Fatalf("got %d events for account 2, want %d", len(seen), perAccount)
	}
	for i, s := range seen {
		if s != int64(i) {
			t.Fatalf("event %d out of order: got sequence %d", i, s)
		}
	}
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	pub := newRecordingPublisher(-1)
	d := NewDispatcher(1, pub, zerolog.Nop())
	depth := metrics.EventsQueueDepth.WithLabelValues("0")
	before := testutil.ToFloat64(depth)

	// Workers are not started, so the single shard fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Enqueue(domain.AccountEvent{Type: domain.AccountCreated, AccountID: int64(i + 1)})
	}

	if got := len(d.workers[0]); got != channelBuffer {
		t.Errorf("queued = %d, want %d", got, channelBuffer)
	}
	// Dropped events must not stay counted in the depth gauge.
	if got := testutil.ToFloat64(depth) - before; got != channelBuffer {
		t.Errorf("queue depth grew by %v, want %d", got, channelBuffer)
	}
}

func TestDispatcher_QueueDepthReturnsToBaseline(t *testing.T) {
	const n = 20
	pub := newRecordingPublisher(n)
	d := NewDispatcher(1, pub, zerolog.Nop())
	depth := metrics.EventsQueueDepth.WithLabelValues("0")
	before := testutil.ToFloat64(depth)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	for i := 0; i < n; i++ {
		d.Enqueue(domain.AccountEvent{Type: domain.AccountUpdated, AccountID: 1})
		if got := testutil.ToFloat64(depth) - before; got < 0 {
			t.Fatalf("queue depth went negative: %v", got)
		}
	}
	waitFor(t, pub.done)
	cancel()
	d.Wait()

	if got := testutil.ToFloat64(depth) - before; got != 0 {
		t.Errorf("queue depth = %v after drain, want 0", got)
	}
}

func TestDispatcher_PublishErrorDoesNotStopWorker(t *testing.T) {
	pub := newRecordingPublisher(2)
	pub.err = errors.New("broker down")
	d := NewDispatcher(1, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Enqueue(domain.AccountEvent{Type: domain.AccountCreated, AccountID: 1})
	d.Enqueue(domain.AccountEvent{Type: domain.AccountDeleted, AccountID: 1})

	waitFor(t, pub.done)
	cancel()
	d.Wait()

	if got := len(pub.snapshot()); got != 2 {
		t.Errorf("published %d events, want 2", got)
	}
}

func TestDispatcher_WaitReturnsAfterCancel(t *testing.T) {
	d := NewDispatcher(0, newRecordingPublisher(-1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("workers = %d, want %d", len(d.workers), defaultWorkers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	waitFor(t, done)
}

func TestDispatcher_ShardIndex(t *testing.T) {
	d := NewDispatcher(4, newRecordingPublisher(-1), zerolog.Nop())
	tests := []struct {
		id   int64
		want int
	}{
		{1, 1},
		{4, 0},
		{7, 3},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := d.shardIndex(tt.id); got != tt.want {
			t.Errorf("shardIndex(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
