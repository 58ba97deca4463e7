package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"wardwatch/internal/middleware"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RenderError maps a service error to a status code and the JSON error body.
// Anything unrecognised is logged and reported as 500 without detail.
func RenderError(c *gin.Context, err error) {
	var (
		dup  *services.DuplicateVoteError
		verr *services.ValidationError
	)

	switch {
	case errors.As(err, &dup):
		writeError(c, http.StatusConflict, "duplicate_vote", "already voted", gin.H{"weight": dup.Weight})
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, "validation_error", "validation failed", verr.Errors)
	case errors.Is(err, services.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", "issue not found", nil)
	case errors.Is(err, services.ErrVotingClosed):
		writeError(c, http.StatusBadRequest, "voting_closed", "voting is closed for resolved issues", nil)
	default:
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message, Details: details}})
}

// caller returns the authenticated actor as a services.Caller.
func caller(c *gin.Context) services.Caller {
	return services.CallerFromUser(middleware.CurrentUser(c))
}
