package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Status    bool   `json:"status"`
	Code      int    `json:"code"`
	Data      any    `json:"data,omitempty"`
	Error     any    `json:"error,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func envelope(code int, data any, message string) Envelope {
	return Envelope{
		Status:    code == http.StatusOK || code == http.StatusCreated,
		Code:      code,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
	}
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// Respond writes a successful envelope.
func Respond(c *gin.Context, code int, data any, message string) {
	c.JSON(code, envelope(code, data, message))
}

// Fail aborts the chain with an error envelope.
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope(code, nil, message))
}

// Recovery turns panics into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("panic_recovered", "path", c.FullPath(), "panic", rec)
		Fail(c, http.StatusInternalServerError, "internal server error")
	})
}
