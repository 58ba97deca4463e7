package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"wardwatch/internal/metrics"
)

const (
	DefaultQueueSize   = 1000
	DefaultWorkers     = 4
	defaultSinkTimeout = 5 * time.Second
)

// Sink receives events from the dispatcher workers.
type Sink interface {
	Deliver(ctx context.Context, evt Event) error
}

// Publisher is what write paths depend on. Publish must never block.
type Publisher interface {
	Publish(evt Event) bool
}

type namedSink struct {
	name string
	sink Sink
}

// Dispatcher decouples publishers from delivery: Publish enqueues and
// returns, workers push each event to every sink. Sink errors and panics are
// logged and counted, never returned to the publisher.
type Dispatcher struct {
	queue   chan Event
	sinks   []namedSink
	workers int
	timeout time.Duration

	wg       sync.WaitGroup
	stopCh   chan struct{}
	started  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once

	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(queueSize, workers int, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:   make(chan Event, queueSize),
		workers: workers,
		timeout: defaultSinkTimeout,
		stopCh:  make(chan struct{}),
		logger:  logger.With("component", "realtime.dispatcher"),
		metrics: m,
	}
}

// AddSink registers a sink. Must be called before Start.
func (d *Dispatcher) AddSink(name string, s Sink) {
	if d.started.Load() {
		panic("realtime: AddSink after Start")
	}
	d.sinks = append(d.sinks, namedSink{name: name, sink: s})
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	for range d.workers {
		d.wg.Add(1)
		go d.worker()
	}
}

// Publish enqueues evt. It returns false when the event was dropped because
// the queue is full or the dispatcher is stopped.
func (d *Dispatcher) Publish(evt Event) bool {
	if d.stopped.Load() {
		d.metrics.EventDropped("stopped")
		return false
	}
	select {
	case d.queue <- evt:
		d.metrics.EventPublished(evt.Name)
		return true
	default:
		d.metrics.EventDropped("queue_full")
		d.logger.Warn("event queue full, dropping event", "event", evt.Name)
		return false
	}
}

// Stop signals the workers, lets them drain what is already queued and
// waits for them to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stopCh)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.queue:
			d.deliver(evt)
		case <-d.stopCh:
			for {
				select {
				case evt := <-d.queue:
					d.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(evt Event) {
	for _, ns := range d.sinks {
		if err := d.deliverOne(ns, evt); err != nil {
			d.metrics.SinkError(ns.name)
			d.logger.Warn("event delivery failed",
				"sink", ns.name, "event", evt.Name, "err", err)
		}
	}
}

func (d *Dispatcher) deliverOne(ns namedSink, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return ns.sink.Deliver(ctx, evt)
}
