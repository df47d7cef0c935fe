package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/doc-approval/internal/domain/workflow"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrForbidden), errors.Is(err, workflow.ErrNoEligibleStep):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal failures are logged and not echoed.
func (h *Handlers) respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	body := Response{Success: false, Error: err.Error()}
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "path", c.FullPath())
		body.Error = "internal server error"
	}
	c.JSON(status, body)
}
