package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/internal/audit"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/middleware"
)

const (
	defaultEventsLimit = 20
	maxEventsLimit     = 100
)

// RegisterEventRoutes exposes the caller's audit trail at rg/auth/events.
func RegisterEventRoutes(rg *gin.RouterGroup, rec audit.Recorder, guard gin.HandlerFunc) {
	rg.GET("/auth/events", guard, func(c *gin.Context) {
		limit := defaultEventsLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				middleware.Fail(c, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxEventsLimit)
		}

		events, err := rec.Recent(c.Request.Context(), middleware.Subject(c), limit)
		if err != nil {
			logger.Error("audit_list_failed", "error", err)
			middleware.Fail(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if events == nil {
			events = []audit.Event{}
		}
		middleware.Respond(c, http.StatusOK, events, "ok")
	})
}
