package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wardwatch/internal/auth"
	"wardwatch/internal/config"
	"wardwatch/internal/db/testdb"
	"wardwatch/internal/handlers"
	"wardwatch/internal/metrics"
	"wardwatch/internal/middleware"
	"wardwatch/internal/models"
	"wardwatch/internal/realtime"
	"wardwatch/internal/router"
	"wardwatch/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
	tokens *auth.JWTManager
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb := testdb.New(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cfg := config.DefaultVoting()

	hub := realtime.NewHub(16, nil, m)
	dispatcher := realtime.NewDispatcher(64, 2, nil, m)
	dispatcher.AddSink("hub", hub)
	dispatcher.Start()
	t.Cleanup(func() {
		dispatcher.Stop()
		hub.Close()
	})

	dir := services.NewDirectory(gdb)
	agg := services.NewAggregator(gdb, cfg.EscalationThreshold, m)
	tokens := auth.NewJWTManager("test-secret", "wardwatch", time.Hour)

	engine := router.New(router.Options{
		DB:            gdb,
		Tokens:        tokens,
		SessionName:   "wardwatch_test",
		SessionSecret: "test-session-secret",
		Gatherer:      reg,
	}, router.Handlers{
		Vote:    handlers.NewVoteHandler(services.NewVoteService(gdb, dir, agg, cfg, dispatcher, nil, m)),
		Read:    handlers.NewReadHandler(services.NewReadStateService(gdb, dir, dispatcher, nil), services.NewUnreadService(gdb, dir)),
		Message: handlers.NewMessageHandler(services.NewThreadService(gdb, dir, dispatcher)),
		Stream:  handlers.NewStreamHandler(hub, dir, time.Second, m),
		Health:  handlers.NewHealthHandler(gdb, nil),
	})

	// Stand-in for the identity service's login.
	engine.GET("/test/login/:id", func(c *gin.Context) {
		var user models.User
		if err := gdb.Where("token = ?", c.Param("id")).First(&user).Error; err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		session := sessions.Default(c)
		session.Set(middleware.SessionUserKey, user.ID)
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})

	return &testServer{t: t, db: gdb, engine: engine, tokens: tokens, hub: hub}
}

func (s *testServer) bearer(u models.User) string {
	s.t.Helper()
	tok, err := s.tokens.Generate(u.Token, string(u.Role))
	require.NoError(s.t, err)
	return "Bearer " + tok
}

// do performs a request as u (anonymous when u is nil) and decodes the JSON
// response into a map.
func (s *testServer) do(method, path string, u *models.User, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", s.bearer(*u))
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "no error object in %v", body)
	code, _ := e["code"].(string)
	return code
}
