package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Dispatcher hands account events to a fixed set of workers. Events are
// sharded by account id, so events for one account are published in the
// order they were enqueued.
type Dispatcher struct {
	workers   []chan domain.AccountEvent
	publisher ports.AccountEventPublisher
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.AccountEventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.AccountEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccountEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// events still buffered at that point are discarded.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker started by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue never blocks. When the owning shard is full the event is dropped.
func (d *Dispatcher) Enqueue(event domain.AccountEvent) {
	idx := d.shardIndex(event.AccountID)
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx))
	// Count before the send so a fast worker never drives the gauge negative.
	depth.Inc()
	select {
	case d.workers[idx] <- event:
	default:
		depth.Dec()
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		d.log.Warn().
			Str("type", string(event.Type)).
			Int64("account_id", event.AccountID).
			Int("worker_id", idx).
			Msg("event queue full, dropping event")
	}
}

func (d *Dispatcher) shardIndex(accountID int64) int {
	if accountID < 0 {
		accountID = -accountID
	}
	return int(accountID % int64(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccountEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			depth.Dec()
			d.publish(ctx, id, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, id int, event domain.AccountEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		d.log.Error().Err(err).
			Str("type", string(event.Type)).
			Int64("account_id", event.AccountID).
			Int("worker_id", id).
			Msg("event publishing failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
}
