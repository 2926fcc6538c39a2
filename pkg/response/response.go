package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON body every endpoint returns.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      T      `json:"data,omitempty"`
	Count     *int   `json:"count,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success writes a success envelope.
func Success[T any](c *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("request_id"),
	})
}

// List writes a success envelope with a count for collection endpoints.
func List[T any](c *gin.Context, data []T, message string) {
	n := len(data)
	c.JSON(http.StatusOK, Envelope[[]T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Count:     &n,
		RequestID: c.GetString("request_id"),
	})
}

// Error writes a failure envelope.
func Error(c *gin.Context, status int, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope[any]{
		Success:   false,
		Message:   message,
		Details:   details,
		RequestID: c.GetString("request_id"),
	})
}

// AbortError writes a failure envelope and aborts the middleware chain.
func AbortError(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, Envelope[any]{
		Success:   false,
		Message:   message,
		Details:   details,
		RequestID: c.GetString("request_id"),
	})
}
