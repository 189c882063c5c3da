package handlers

import (
	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

// ListAuditLogs handles GET /audit-logs.
//
// entity_type with entity_id returns one entity's history; actor_tech_id or
// actor_dispatcher_id returns one actor's entries; neither returns the most
// recent entries across all entities. Results are newest first.
func (s *Server) ListAuditLogs(c *gin.Context) {
	var q domain.AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, apperrors.Validation(apperrors.FieldError{
			Field: "query", Code: "format", Message: "invalid query parameters: " + err.Error(),
		}))
		return
	}
	items, err := s.trail.Query(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// ListActivity handles GET /activity?limit.
func (s *Server) ListActivity(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	items, err := s.trail.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}
