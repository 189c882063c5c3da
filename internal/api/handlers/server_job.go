package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateJob handles POST /jobs.
func (s *Server) CreateJob(c *gin.Context) {
	var in domain.CreateJobInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Jobs.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Job "+item.JobNumber+" created")
}

// ListJobs handles GET /jobs?client_id&status.
func (s *Server) ListJobs(c *gin.Context) {
	status, ok := queryStatus(c, domain.JobStatus.Valid)
	if !ok {
		return
	}
	items, err := s.svc.Jobs.List(c.Request.Context(), c.Query("client_id"), status)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetJob handles GET /jobs/:id.
func (s *Server) GetJob(c *gin.Context) {
	item, err := s.svc.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateJob handles PATCH /jobs/:id.
func (s *Server) UpdateJob(c *gin.Context) {
	var patch domain.JobPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Jobs.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Job "+item.JobNumber+" updated")
}

// DeleteJob handles DELETE /jobs/:id.
func (s *Server) DeleteJob(c *gin.Context) {
	if err := s.svc.Jobs.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Job deleted")
}

// CreateVisit handles POST /visits.
func (s *Server) CreateVisit(c *gin.Context) {
	var in domain.CreateVisitInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Visits.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Visit scheduled")
}

// ListVisits handles GET /visits?job_id&technician_id.
func (s *Server) ListVisits(c *gin.Context) {
	items, err := s.svc.Visits.List(c.Request.Context(), c.Query("job_id"), c.Query("technician_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetVisit handles GET /visits/:id.
func (s *Server) GetVisit(c *gin.Context) {
	item, err := s.svc.Visits.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateVisit handles PATCH /visits/:id.
func (s *Server) UpdateVisit(c *gin.Context) {
	var patch domain.VisitPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Visits.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Visit updated")
}

// DeleteVisit handles DELETE /visits/:id.
func (s *Server) DeleteVisit(c *gin.Context) {
	if err := s.svc.Visits.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Visit deleted")
}
