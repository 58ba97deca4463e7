package handlers

import (
	"net/http"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Cast handles POST /api/votes/:issueToken
func (h *VoteHandler) Cast(c *gin.Context) {
	res, err := h.votes.Cast(c.Request.Context(), caller(c), c.Param("issueToken"))
	if err != nil {
		RenderError(c, err)
		return
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"success":   true,
		"weight":    res.Weight,
		"total":     res.Total,
		"threshold": res.Threshold,
		"escalated": res.Escalated,
		"created":   res.Created,
	})
}

// Summary handles GET /api/votes/:issueToken/summary
func (h *VoteHandler) Summary(c *gin.Context) {
	sum, err := h.votes.Summary(c.Request.Context(), caller(c), c.Param("issueToken"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
