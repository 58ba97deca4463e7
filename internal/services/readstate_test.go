package services

import (
	"context"
	"testing"
	"time"
	"wardwatch/internal/config"
	"wardwatch/internal/db/testdb"
	"wardwatch/internal/models"
	"wardwatch/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkReadIsMonotonic(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	ctx := context.Background()

	u := testdb.User(t, e.db, models.RoleResident, nil)
	issue := testdb.Issue(t, e.db, u, nil, models.IssueStatusNew)
	caller := CallerFromUser(&u)

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(90 * time.Second)

	got, err := e.reads.MarkRead(ctx, caller, issue.Token, &t2)
	require.NoError(t, err)
	assert.True(t, got.Equal(t2), "got %s", got)

	// An older marker never moves it back.
	got, err = e.reads.MarkRead(ctx, caller, issue.Token, &t1)
	require.NoError(t, err)
	assert.True(t, got.Equal(t2), "got %s", got)

	got, err = e.reads.MarkRead(ctx, caller, issue.Token, &t2)
	require.NoError(t, err)
	assert.True(t, got.Equal(t2), "got %s", got)

	got, err = e.reads.MarkRead(ctx, caller, issue.Token, &t3)
	require.NoError(t, err)
	assert.True(t, got.Equal(t3), "got %s", got)

	last, err := e.reads.LastSeen(ctx, caller, issue.Token)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(t3))

	var rows int64
	require.NoError(t, e.db.Model(&models.IssueChatRead{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestMarkReadDefaultsToNow(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	now := time.Date(2025, 6, 1, 8, 30, 0, 123456789, time.UTC)
	e.reads.now = func() time.Time { return now }

	u := testdb.User(t, e.db, models.RoleStaff, nil)
	issue := testdb.Issue(t, e.db, u, nil, models.IssueStatusNew)

	got, err := e.reads.MarkRead(context.Background(), CallerFromUser(&u), issue.Token, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Truncate(time.Microsecond)), "got %s", got)
}

func TestMarkReadPublishes(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())

	u := testdb.User(t, e.db, models.RoleResident, nil)
	issue := testdb.Issue(t, e.db, u, nil, models.IssueStatusNew)

	_, err := e.reads.MarkRead(context.Background(), CallerFromUser(&u), issue.Token, nil)
	require.NoError(t, err)

	read := e.pub.named(realtime.EventMessageRead)
	require.Len(t, read, 1)
	assert.Equal(t, []realtime.Topic{realtime.IssueTopic(issue.Token)}, read[0].Topics)
	assert.Equal(t, u.Token, read[0].Payload.(realtime.MessageRead).UserToken)

	inv := e.pub.named(realtime.EventUnreadInvalidate)
	require.Len(t, inv, 1)
	assert.Equal(t, []realtime.Topic{realtime.UserTopic(u.ID)}, inv[0].Topics)
}

func TestLastSeenWithoutState(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	u := testdb.User(t, e.db, models.RoleResident, nil)
	issue := testdb.Issue(t, e.db, u, nil, models.IssueStatusNew)

	last, err := e.reads.LastSeen(context.Background(), CallerFromUser(&u), issue.Token)
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = e.reads.LastSeen(context.Background(), CallerFromUser(&u), "bogus")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.reads.MarkRead(context.Background(), Caller{}, issue.Token, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
