package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = "1"

type errorResponse struct {
	Error string `json:"error"`
	Seat  string `json:"seat,omitempty"`
}

// writeError maps an error category to a status code. Unknown errors are
// logged and answered with a generic message.
func writeError(c *gin.Context, err error) {
	var conflict *domain.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, errorResponse{Error: conflict.Error(), Seat: conflict.Seat})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTransient):
		logger.FromContext(c.Request.Context()).Warn("transient storage failure", "path", c.FullPath(), "error", err)
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable, please retry"})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
