package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the health check response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "ok"})
}

// GetReadiness handles GET /health/ready. The store is pinged.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := map[string]string{"store": "ok"}
	status, httpStatus := "ok", http.StatusOK

	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			checks["store"] = "error"
			status, httpStatus = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, Health{Status: status, Checks: checks})
}
