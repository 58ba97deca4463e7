package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
	"wardwatch/internal/metrics"
	"wardwatch/internal/middleware"
	"wardwatch/internal/realtime"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
)

// StreamHandler serves the realtime event stream over SSE. Each stream is a
// hub subscription joined to the user's own topic and the global topic;
// issue rooms are joined on demand.
type StreamHandler struct {
	hub       *realtime.Hub
	dir       *services.Directory
	heartbeat time.Duration
	metrics   *metrics.Metrics
}

func NewStreamHandler(hub *realtime.Hub, dir *services.Directory, heartbeat time.Duration, m *metrics.Metrics) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &StreamHandler{hub: hub, dir: dir, heartbeat: heartbeat, metrics: m}
}

// Stream handles GET /api/realtime/stream?issue=<token>
func (h *StreamHandler) Stream(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		RenderError(c, services.ErrUnauthorized)
		return
	}

	topics := []realtime.Topic{realtime.UserTopic(user.ID), realtime.GlobalTopic}
	for _, token := range c.QueryArray("issue") {
		issue, err := h.dir.IssueByToken(c.Request.Context(), token)
		if err != nil {
			RenderError(c, err)
			return
		}
		topics = append(topics, realtime.IssueTopic(issue.Token))
	}

	sub := h.hub.Subscribe(user.ID, topics...)
	defer h.hub.Unsubscribe(sub.ID)
	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{
		"subscription_id": strconv.FormatUint(uint64(sub.ID), 10),
		"topics":          topics,
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case evt, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(evt.Name, evt)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().UTC()})
			return true
		}
	})
}

// Join handles POST /api/realtime/subscriptions/:id/issues/:token
func (h *StreamHandler) Join(c *gin.Context) {
	h.changeRoom(c, h.hub.Join)
}

// Leave handles DELETE /api/realtime/subscriptions/:id/issues/:token
func (h *StreamHandler) Leave(c *gin.Context) {
	h.changeRoom(c, h.hub.Leave)
}

func (h *StreamHandler) changeRoom(c *gin.Context, op func(realtime.SubscriptionID, uint, realtime.Topic) error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		RenderError(c, services.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusNotFound, "not_found", "subscription not found", nil)
		return
	}

	issue, err := h.dir.IssueByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		RenderError(c, err)
		return
	}

	if err := op(realtime.SubscriptionID(id), user.ID, realtime.IssueTopic(issue.Token)); err != nil {
		if errors.Is(err, realtime.ErrUnknownSubscription) {
			writeError(c, http.StatusNotFound, "not_found", "subscription not found", nil)
			return
		}
		RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": h.hub.Topics(realtime.SubscriptionID(id))})
}
