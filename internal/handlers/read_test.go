package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wardwatch/internal/db/testdb"
	"wardwatch/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func parseTime(t *testing.T, v any) time.Time {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "not a timestamp: %v", v)
	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}

func TestReadState(t *testing.T) {
	s := newTestServer(t)
	u := testdb.User(t, s.db, models.RoleResident, nil)
	issue := testdb.Issue(t, s.db, u, nil, models.IssueStatusNew)
	path := "/api/issue-reports/" + issue.Token + "/read"

	w, body := s.do(http.MethodGet, path, &u, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["last_seen_at"])

	t2 := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	w, body = s.do(http.MethodPut, path, &u, map[string]any{"last_seen_at": t2.Format(time.RFC3339)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, parseTime(t, body["last_seen_at"]).Equal(t2))

	// Older value as epoch milliseconds is ignored.
	w, body = s.do(http.MethodPut, path, &u, map[string]any{"last_seen_at": t2.Add(-time.Hour).UnixMilli()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseTime(t, body["last_seen_at"]).Equal(t2))

	// No body means now.
	w, body = s.do(http.MethodPut, path, &u, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, parseTime(t, body["last_seen_at"]).After(t2))

	w, body = s.do(http.MethodGet, path, &u, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseTime(t, body["last_seen_at"]).After(t2))
}

func TestReadStateRejectsBadTimestamp(t *testing.T) {
	s := newTestServer(t)
	u := testdb.User(t, s.db, models.RoleResident, nil)
	issue := testdb.Issue(t, s.db, u, nil, models.IssueStatusNew)

	w, body := s.do(http.MethodPut, "/api/issue-reports/"+issue.Token+"/read", &u, map[string]any{"last_seen_at": "yesterday"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, body))
	details := body["error"].(map[string]any)["details"].([]any)
	assert.Equal(t, "last_seen_at", details[0].(map[string]any)["field"])

	w, _ = s.do(http.MethodPut, "/api/issue-reports/"+uuid.NewString()+"/read", &u, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnreadCounts(t *testing.T) {
	s := newTestServer(t)
	reader := testdb.User(t, s.db, models.RoleResident, nil)
	other := testdb.User(t, s.db, models.RoleStaff, nil)
	a := testdb.Issue(t, s.db, reader, nil, models.IssueStatusNew)
	b := testdb.Issue(t, s.db, reader, nil, models.IssueStatusNew)

	now := time.Now().UTC()
	testdb.Message(t, s.db, a, other, now.Add(-time.Minute))
	testdb.Message(t, s.db, a, reader, now.Add(-time.Second))

	w, body := s.do(http.MethodGet, "/api/issue-reports/unread?tokens="+a.Token+","+b.Token+",bogus", &reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{a.Token: 1.0, b.Token: 0.0, "bogus": 0.0}, body)
}
