package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateRequest handles POST /requests.
func (s *Server) CreateRequest(c *gin.Context) {
	var in domain.CreateRequestInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Requests.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Request created")
}

// ListRequests handles GET /requests?client_id&status.
func (s *Server) ListRequests(c *gin.Context) {
	status, ok := queryStatus(c, domain.RequestStatus.Valid)
	if !ok {
		return
	}
	items, err := s.svc.Requests.List(c.Request.Context(), c.Query("client_id"), status)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetRequest handles GET /requests/:id.
func (s *Server) GetRequest(c *gin.Context) {
	item, err := s.svc.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateRequest handles PATCH /requests/:id.
func (s *Server) UpdateRequest(c *gin.Context) {
	var patch domain.RequestPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Requests.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Request updated")
}

// DeleteRequest handles DELETE /requests/:id.
func (s *Server) DeleteRequest(c *gin.Context) {
	if err := s.svc.Requests.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Request deleted")
}

// ConvertRequest handles POST /requests/:id/convert.
func (s *Server) ConvertRequest(c *gin.Context) {
	job, err := s.svc.Requests.ConvertToJob(c.Request.Context(), c.Param("id"), actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, job, "Request converted to job "+job.JobNumber)
}
