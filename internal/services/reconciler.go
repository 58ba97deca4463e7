package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"wardwatch/internal/models"

	"gorm.io/gorm"
)

// Reconciler recomputes issue aggregates in the background. It heals a
// votes_count that missed an update: either because a recompute failed
// right after its vote was stored (Schedule) or because nobody voted since
// (the periodic sweep).
type Reconciler struct {
	db       *gorm.DB
	agg      *Aggregator
	interval time.Duration
	window   time.Duration
	logger   *slog.Logger

	queue   chan uint
	pending map[uint]bool
	mu      sync.Mutex

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewReconciler builds a reconciler. interval 0 disables the sweep; the
// Schedule queue still works.
func NewReconciler(gdb *gorm.DB, agg *Aggregator, interval, window time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		db:       gdb,
		agg:      agg,
		interval: interval,
		window:   window,
		logger:   logger.With("component", "reconciler"),
		queue:    make(chan uint, 1000),
		pending:  make(map[uint]bool),
		stop:     make(chan struct{}),
	}
}

// Schedule queues an issue for recomputation. Issues already queued are
// skipped, and a full queue drops the request.
func (r *Reconciler) Schedule(issueID uint) {
	r.mu.Lock()
	if r.pending[issueID] {
		r.mu.Unlock()
		return
	}
	r.pending[issueID] = true
	r.mu.Unlock()

	select {
	case r.queue <- issueID:
	default:
		r.mu.Lock()
		delete(r.pending, issueID)
		r.mu.Unlock()
		r.logger.Warn("reconcile queue full, dropping", "issue_id", issueID)
	}
}

// Pending reports how many issues are waiting.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Reconciler) Start() {
	r.wg.Add(1)
	go r.worker()
}

// Stop ends the worker and waits for the batch in hand.
func (r *Reconciler) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Reconciler) worker() {
	defer r.wg.Done()

	batch := make([]uint, 0, 50)
	flush := time.NewTicker(500 * time.Millisecond)
	defer flush.Stop()

	var sweep <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		sweep = t.C
	}

	for {
		select {
		case <-r.stop:
			return
		case id := <-r.queue:
			batch = append(batch, id)
			if len(batch) >= 50 {
				r.processBatch(batch)
				batch = batch[:0]
			}
		case <-flush.C:
			if len(batch) > 0 {
				r.processBatch(batch)
				batch = batch[:0]
			}
		case <-sweep:
			if _, err := r.Sweep(context.Background()); err != nil {
				r.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

func (r *Reconciler) processBatch(ids []uint) {
	for _, id := range ids {
		if _, err := r.agg.Recompute(context.Background(), id); err != nil {
			r.logger.Error("recompute failed", "issue_id", id, "error", err)
		}

		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}
}

// Sweep recomputes every issue that received a vote within the window and
// returns how many it touched.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	since := time.Now().UTC().Add(-r.window)

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("created_at >= ?", since).
		Distinct().
		Pluck("issue_report_id", &ids).Error; err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if _, err := r.agg.Recompute(ctx, id); err != nil {
			r.logger.Error("recompute failed", "issue_id", id, "error", err)
			continue
		}
		count++
	}
	r.logger.Info("sweep done", "issues", count)
	return count, nil
}
