package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
)

type ReadHandler struct {
	reads  *services.ReadStateService
	unread *services.UnreadService
}

func NewReadHandler(reads *services.ReadStateService, unread *services.UnreadService) *ReadHandler {
	return &ReadHandler{reads: reads, unread: unread}
}

type markReadRequest struct {
	LastSeenAt json.RawMessage `json:"last_seen_at"`
}

// Get handles GET /api/issue-reports/:token/read
func (h *ReadHandler) Get(c *gin.Context) {
	last, err := h.reads.LastSeen(c.Request.Context(), caller(c), c.Param("token"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_seen_at": last})
}

// Mark handles PUT /api/issue-reports/:token/read. An empty body marks the
// thread read up to now.
func (h *ReadHandler) Mark(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RenderError(c, services.NewValidationError("body", "must be a JSON object"))
		return
	}

	seenAt, err := parseTimestamp(req.LastSeenAt)
	if err != nil {
		RenderError(c, services.NewValidationError("last_seen_at", err.Error()))
		return
	}

	stored, err := h.reads.MarkRead(c.Request.Context(), caller(c), c.Param("token"), seenAt)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_seen_at": stored})
}

// Unread handles GET /api/issue-reports/unread?tokens=a,b,c
func (h *ReadHandler) Unread(c *gin.Context) {
	var tokens []string
	for _, raw := range c.QueryArray("tokens") {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}
	}

	counts, err := h.unread.UnreadCounts(c.Request.Context(), caller(c), tokens)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// parseTimestamp accepts an RFC3339 string or epoch milliseconds, either as
// a JSON number or a numeric string. Absent and null mean "now".
func parseTimestamp(raw json.RawMessage) (*time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	invalid := errors.New("must be an RFC3339 timestamp or epoch milliseconds")

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalid
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, invalid
	}
	t = t.UTC()
	return &t, nil
}
