package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"athleteapi/internal/services"
)

// respondError maps service error kinds to a status and a fixed message.
// The error text itself is only logged.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrClientInput):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, services.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrUpstreamProvider):
		msg = "verification provider unavailable"
	}

	fields := []zap.Field{zap.String("op", op), zap.Int("status", status), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Info("request failed", fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
