package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event %s", evt.Name)
	default:
	}
}

func TestHubRoutesByTopic(t *testing.T) {
	h := NewHub(4, nil, nil)
	defer h.Close()

	viewer := h.Subscribe(1, UserTopic(1), GlobalTopic, IssueTopic("abc"))
	other := h.Subscribe(2, UserTopic(2), GlobalTopic)

	evt := NewEvent(EventMessageRead, MessageRead{IssueToken: "abc"}, IssueTopic("abc"))
	require.NoError(t, h.Deliver(context.Background(), evt))

	got := receive(t, viewer)
	assert.Equal(t, EventMessageRead, got.Name)
	assertNoEvent(t, other)

	invalidate := NewEvent(EventUnreadInvalidate, UnreadInvalidate{IssueToken: "abc"}, UserTopic(2))
	require.NoError(t, h.Deliver(context.Background(), invalidate))
	assert.Equal(t, EventUnreadInvalidate, receive(t, other).Name)
	assertNoEvent(t, viewer)
}

func TestHubDeliversOncePerSubscription(t *testing.T) {
	h := NewHub(4, nil, nil)
	defer h.Close()

	sub := h.Subscribe(1, GlobalTopic, IssueTopic("abc"))
	evt := NewEvent(EventVoteUpdated, VoteUpdated{IssueToken: "abc"}, IssueTopic("abc"), GlobalTopic)
	require.NoError(t, h.Deliver(context.Background(), evt))

	receive(t, sub)
	assertNoEvent(t, sub)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(1, nil, nil)
	defer h.Close()

	sub := h.Subscribe(1, GlobalTopic)
	evt := NewEvent(EventVoteUpdated, nil, GlobalTopic)

	done := make(chan struct{})
	go func() {
		for range 5 {
			_ = h.Deliver(context.Background(), evt)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on a full subscriber")
	}

	receive(t, sub)
	assertNoEvent(t, sub)
}

func TestHubJoinLeaveOwnership(t *testing.T) {
	h := NewHub(4, nil, nil)
	defer h.Close()

	sub := h.Subscribe(7, UserTopic(7))

	assert.ErrorIs(t, h.Join(sub.ID, 8, IssueTopic("abc")), ErrUnknownSubscription)
	assert.ErrorIs(t, h.Join(sub.ID+100, 7, IssueTopic("abc")), ErrUnknownSubscription)

	require.NoError(t, h.Join(sub.ID, 7, IssueTopic("abc")))
	assert.ElementsMatch(t, []Topic{UserTopic(7), IssueTopic("abc")}, h.Topics(sub.ID))

	require.NoError(t, h.Leave(sub.ID, 7, IssueTopic("abc")))
	require.NoError(t, h.Deliver(context.Background(), NewEvent(EventMessageRead, nil, IssueTopic("abc"))))
	assertNoEvent(t, sub)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(4, nil, nil)

	sub := h.Subscribe(1, GlobalTopic)
	h.Unsubscribe(sub.ID)
	h.Unsubscribe(sub.ID)

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Nil(t, h.Topics(sub.ID))
	require.NoError(t, h.Deliver(context.Background(), NewEvent(EventVoteUpdated, nil, GlobalTopic)))
}
