package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Pagination *forum.Pagination `json:"pagination,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, data any, p forum.Pagination) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message, Error: http.StatusText(status)})
}

// respondError maps forum error kinds onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without leaking details.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, forum.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, forum.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, forum.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, forum.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, forum.ErrConflict):
		status = http.StatusConflict
	}

	message := forum.Message(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		message = "internal server error"
	}
	if message == "" {
		message = http.StatusText(status)
	}
	respondFail(c, status, message)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the integer query parameter, or 0 when absent or malformed.
func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}
