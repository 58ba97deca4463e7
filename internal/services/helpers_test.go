package services

import (
	"sync"
	"testing"
	"wardwatch/internal/config"
	"wardwatch/internal/db/testdb"
	"wardwatch/internal/realtime"

	"gorm.io/gorm"
)

// capturePublisher records published events instead of fanning them out.
type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *capturePublisher) Publish(evt realtime.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return true
}

func (p *capturePublisher) named(name string) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type engine struct {
	db      *gorm.DB
	pub     *capturePublisher
	dir     *Directory
	agg     *Aggregator
	votes   *VoteService
	reads   *ReadStateService
	unread  *UnreadService
	threads *ThreadService
}

func newEngine(t *testing.T, cfg config.VotingConfig) *engine {
	t.Helper()
	gdb := testdb.New(t)
	pub := &capturePublisher{}
	dir := NewDirectory(gdb)
	agg := NewAggregator(gdb, cfg.EscalationThreshold, nil)
	return &engine{
		db:      gdb,
		pub:     pub,
		dir:     dir,
		agg:     agg,
		votes:   NewVoteService(gdb, dir, agg, cfg, pub, nil, nil),
		reads:   NewReadStateService(gdb, dir, pub, nil),
		unread:  NewUnreadService(gdb, dir),
		threads: NewThreadService(gdb, dir, pub),
	}
}
