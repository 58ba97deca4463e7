package services

import (
	"context"
	"testing"
	"time"
	"wardwatch/internal/config"
	"wardwatch/internal/db/testdb"
	"wardwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRecomputeIsFullSumAndIdempotent(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	ctx := context.Background()

	author := testdb.User(t, e.db, models.RoleStaff, nil)
	issue := testdb.Issue(t, e.db, author, nil, models.IssueStatusNew)
	for _, w := range []float64{1.0, 0.4, 0.4, 1.5} {
		u := testdb.User(t, e.db, models.RoleResident, nil)
		require.NoError(t, e.db.Create(&models.Vote{UserID: u.ID, IssueReportID: issue.ID, Weight: w}).Error)
	}

	// A stale counter is overwritten, not adjusted.
	require.NoError(t, e.db.Model(&models.IssueReport{}).Where("id = ?", issue.ID).UpdateColumn("votes_count", 42).Error)

	first, err := e.agg.Recompute(ctx, issue.ID)
	require.NoError(t, err)
	second, err := e.agg.Recompute(ctx, issue.ID)
	require.NoError(t, err)

	assert.InDelta(t, 3.3, first.Total, 1e-9)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(4), first.Count)
	assert.Equal(t, 3, storedScore(t, e, issue.ID))
}

func TestRecomputeWithoutVotes(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	author := testdb.User(t, e.db, models.RoleStaff, nil)
	issue := testdb.Issue(t, e.db, author, nil, models.IssueStatusNew)

	agg, err := e.agg.Recompute(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Zero(t, agg.Total)
	assert.False(t, agg.Escalated)
	assert.Zero(t, storedScore(t, e, issue.ID))
}

func TestReconcilerSweep(t *testing.T) {
	e := newEngine(t, config.DefaultVoting())
	r := NewReconciler(e.db, e.agg, 0, time.Hour, nil)

	author := testdb.User(t, e.db, models.RoleStaff, nil)
	recent := testdb.Issue(t, e.db, author, nil, models.IssueStatusNew)
	old := testdb.Issue(t, e.db, author, nil, models.IssueStatusNew)

	voter := testdb.User(t, e.db, models.RoleAdmin, nil)
	require.NoError(t, e.db.Create(&models.Vote{UserID: voter.ID, IssueReportID: recent.ID, Weight: 2}).Error)
	require.NoError(t, e.db.Create(&models.Vote{
		UserID: voter.ID, IssueReportID: old.ID, Weight: 2,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}).Error)

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, storedScore(t, e, recent.ID))
	assert.Equal(t, 0, storedScore(t, e, old.ID))
}

func TestReconcilerSchedule(t *testing.T) {
	// The in-memory database is closed by t.Cleanup, after this check.
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	e := newEngine(t, config.DefaultVoting())
	r := NewReconciler(e.db, e.agg, 0, time.Hour, nil)

	author := testdb.User(t, e.db, models.RoleStaff, nil)
	issue := testdb.Issue(t, e.db, author, nil, models.IssueStatusNew)
	require.NoError(t, e.db.Create(&models.Vote{UserID: author.ID, IssueReportID: issue.ID, Weight: 0.8}).Error)

	r.Schedule(issue.ID)
	r.Schedule(issue.ID)
	assert.Equal(t, 1, r.Pending())

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool { return r.Pending() == 0 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, storedScore(t, e, issue.ID))
}
