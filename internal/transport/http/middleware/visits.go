package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/port"
)

// TrackVisits counts page views for the site stats dashboard. Counting is
// best effort and never blocks or fails the request.
func TrackVisits(visits port.VisitCounter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if err := visits.RecordVisit(c.Request.Context(), c.Request.URL.Path, time.Now().UTC()); err != nil {
				logger.Warn("visit tracking failed", zap.Error(err))
			}
		}

		c.Next()
	}
}
