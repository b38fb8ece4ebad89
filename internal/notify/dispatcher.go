package notify

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
)

// Sink receives delivered notices. Deliver may be called from several
// workers at once.
type Sink interface {
	Deliver(ctx context.Context, n Notice) error
}

// DispatcherConfig sizes a Dispatcher.
type DispatcherConfig struct {
	Workers       int
	Buffer        int
	HighWatermark int
}

// Dispatcher queues notices and delivers them to a Sink from a fixed worker
// pool. It implements Notifier.
type Dispatcher struct {
	cfg     DispatcherConfig
	q       *Queue
	sink    Sink
	metrics *obs.Metrics
	seq     resource.Sequencer
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher. m may be nil.
func NewDispatcher(cfg DispatcherConfig, sink Sink, m *obs.Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Dispatcher{
		cfg:     cfg,
		q:       NewQueue(cfg.Buffer),
		sink:    sink,
		metrics: m,
		now:     time.Now,
	}
}

// Start runs the broker and workers until Stop or parent ends.
func (d *Dispatcher) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.q.Start(ctx, d.cfg.HighWatermark)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	obs.Logger.Debug("notice dispatcher started", "worker_count", d.cfg.Workers)
}

// Stop cancels the workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.q.Out():
			if err := d.sink.Deliver(ctx, n); err != nil {
				obs.Logger.Warn("notice_delivery_failed", "title", n.Title, "sequence", n.Sequence, "err", err)
			} else {
				d.metrics.ObserveNotice(string(n.Variant))
			}
			d.q.MarkDelivered()
		}
	}
}

// Notify stamps n with a sequence and time and queues it. Notices sent after
// CloseIntake are dropped.
func (d *Dispatcher) Notify(n Notice) {
	if n.Variant == "" {
		n.Variant = Default
	}
	n.Sequence = d.seq.Next()
	if n.At.IsZero() {
		n.At = d.now()
	}
	if !d.q.Enqueue(n) {
		obs.Logger.Debug("notice_dropped", "title", n.Title, "reason", "intake closed")
	}
}

// CloseIntake drops notices sent from now on.
func (d *Dispatcher) CloseIntake() { d.q.CloseIntake() }

// Pending returns notices accepted but not yet delivered.
func (d *Dispatcher) Pending() int {
	st := d.q.Stats()
	return int(st.Accepted - st.Delivered)
}

// DrainUntil blocks until every accepted notice is delivered or ctx ends.
func (d *Dispatcher) DrainUntil(ctx context.Context) bool {
	for {
		if d.q.Stats().Idle() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
