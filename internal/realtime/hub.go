package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"wardwatch/internal/metrics"
)

// ErrUnknownSubscription is returned when a join/leave names a stream that
// does not exist or belongs to another user.
var ErrUnknownSubscription = errors.New("unknown subscription")

type SubscriptionID uint64

// Subscription is one open stream. Its channel is closed on Unsubscribe.
type Subscription struct {
	ID     SubscriptionID
	UserID uint

	ch     chan Event
	topics map[Topic]struct{}
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Hub routes events to the subscriptions of this process by topic.
// Delivery never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	topics  map[Topic]map[SubscriptionID]*Subscription
	subs    map[SubscriptionID]*Subscription
	lastID  SubscriptionID
	buffer  int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(buffer int, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:  make(map[Topic]map[SubscriptionID]*Subscription),
		subs:    make(map[SubscriptionID]*Subscription),
		buffer:  buffer,
		logger:  logger.With("component", "realtime.hub"),
		metrics: m,
	}
}

// Subscribe opens a subscription for userID joined to topics.
func (h *Hub) Subscribe(userID uint, topics ...Topic) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	sub := &Subscription{
		ID:     h.lastID,
		UserID: userID,
		ch:     make(chan Event, h.buffer),
		topics: make(map[Topic]struct{}),
	}
	h.subs[sub.ID] = sub
	for _, t := range topics {
		h.joinLocked(sub, t)
	}
	return sub
}

// Join adds topic to an open subscription owned by userID.
func (h *Hub) Join(id SubscriptionID, userID uint, topic Topic) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok || sub.UserID != userID {
		return ErrUnknownSubscription
	}
	h.joinLocked(sub, topic)
	return nil
}

// Leave removes topic from an open subscription owned by userID.
func (h *Hub) Leave(id SubscriptionID, userID uint, topic Topic) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok || sub.UserID != userID {
		return ErrUnknownSubscription
	}
	h.leaveLocked(sub, topic)
	return nil
}

// Unsubscribe closes the subscription. Calling it twice is harmless.
func (h *Hub) Unsubscribe(id SubscriptionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}
	for t := range sub.topics {
		h.leaveLocked(sub, t)
	}
	delete(h.subs, id)
	close(sub.ch)
}

// Topics returns the topics a subscription has joined.
func (h *Hub) Topics(id SubscriptionID) []Topic {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[id]
	if !ok {
		return nil
	}
	out := make([]Topic, 0, len(sub.topics))
	for t := range sub.topics {
		out = append(out, t)
	}
	return out
}

// Deliver hands evt to every subscription joined to any of its topics, once
// per subscription. It implements Sink and never returns an error.
func (h *Hub) Deliver(_ context.Context, evt Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[SubscriptionID]struct{})
	for _, t := range evt.Topics {
		for id, sub := range h.topics[t] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			select {
			case sub.ch <- evt:
			default:
				h.metrics.EventDropped("slow_subscriber")
				h.logger.Debug("subscriber buffer full, dropping event",
					"event", evt.Name, "subscription", id, "user_id", sub.UserID)
			}
		}
	}
	return nil
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	ids := make([]SubscriptionID, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Unsubscribe(id)
	}
}

func (h *Hub) joinLocked(sub *Subscription, t Topic) {
	if _, ok := h.topics[t]; !ok {
		h.topics[t] = make(map[SubscriptionID]*Subscription)
	}
	h.topics[t][sub.ID] = sub
	sub.topics[t] = struct{}{}
}

func (h *Hub) leaveLocked(sub *Subscription, t Topic) {
	if subs, ok := h.topics[t]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(h.topics, t)
		}
	}
	delete(sub.topics, t)
}
