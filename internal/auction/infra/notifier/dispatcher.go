package notifier

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"go.uber.org/zap"
)

const (
	DefaultWorkers       = 4
	DefaultQueueSize     = 1024
	DefaultNotifyTimeout = 5 * time.Second
)

// Dispatcher delivers committed events to a Notifier on background workers.
// Events of one auction always land on the same worker, so they are delivered
// in the order they were published. Delivery is best effort: a full queue
// drops the event and a failed Notify is logged, never retried.
type Dispatcher struct {
	notifier domain.Notifier
	log      *zap.Logger
	queues   []chan domain.Event
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ domain.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with workers shards of queueSize events each
func NewDispatcher(n domain.Notifier, log *zap.Logger, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	queues := make([]chan domain.Event, workers)
	for i := range queues {
		queues[i] = make(chan domain.Event, queueSize)
	}
	return &Dispatcher{
		notifier: n,
		log:      log,
		queues:   queues,
		timeout:  timeout,
	}
}

// Start launches the workers. ctx is the parent of every Notify call.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, q := range d.queues {
		d.wg.Add(1)
		go d.work(ctx, i, q)
	}
	d.log.Info("Notification dispatcher started", zap.Int("workers", len(d.queues)))
}

// Publish implements domain.EventPublisher, it never blocks
func (d *Dispatcher) Publish(events domain.Events) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("Dispatcher stopped, dropping events", zap.Int("count", len(events)))
		return
	}
	for _, ev := range events {
		select {
		case d.queues[d.shard(ev)] <- ev:
		default:
			d.log.Warn("Notification queue full, event dropped",
				zap.String("auctionID", ev.AuctionID.String()),
				zap.String("userID", ev.SubjectUserID.String()),
				zap.String("type", string(ev.Type)),
			)
		}
	}
}

// Stop rejects new events and waits until the queued ones are delivered
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("Notification dispatcher stopped")
}

func (d *Dispatcher) shard(ev domain.Event) int {
	h := fnv.New32a()
	_, _ = h.Write(ev.AuctionID[:])
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) work(ctx context.Context, id int, q <-chan domain.Event) {
	defer d.wg.Done()
	for ev := range q {
		if err := d.deliver(ctx, ev); err != nil {
			d.log.Warn("Notification delivery failed",
				zap.Int("worker", id),
				zap.String("auctionID", ev.AuctionID.String()),
				zap.String("userID", ev.SubjectUserID.String()),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	return d.notifier.Notify(ctx, ev.SubjectUserID, ev.Type, ev)
}
