package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academy/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// ServiceError maps service errors onto HTTP statuses. Not-found and
// unclassified responses never carry the underlying cause.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, service.ErrConflict):
		Error(c, http.StatusConflict, err.Error(), map[string]any{"reason": "conflict"})
	case errors.Is(err, service.ErrInvalidState):
		Error(c, http.StatusConflict, err.Error(), map[string]any{"reason": "invalid_state"})
	case errors.Is(err, service.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"reason": "upstream_unavailable"})
	case errors.Is(err, service.ErrParseFailure):
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"reason": "parse_failure"})
	default:
		// Storage and driver errors stay in the access log.
		_ = c.Error(err)
		Error(c, http.StatusBadGateway, "internal error", nil)
	}
}
