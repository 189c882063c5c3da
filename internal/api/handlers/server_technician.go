package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateTechnician handles POST /technicians.
func (s *Server) CreateTechnician(c *gin.Context) {
	var in domain.CreateTechnicianInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Technicians.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Technician created")
}

// ListTechnicians handles GET /technicians?active.
func (s *Server) ListTechnicians(c *gin.Context) {
	activeOnly, ok := queryBool(c, "active")
	if !ok {
		return
	}
	items, err := s.svc.Technicians.List(c.Request.Context(), activeOnly)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetTechnician handles GET /technicians/:id.
func (s *Server) GetTechnician(c *gin.Context) {
	item, err := s.svc.Technicians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateTechnician handles PATCH /technicians/:id.
func (s *Server) UpdateTechnician(c *gin.Context) {
	var patch domain.TechnicianPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Technicians.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Technician updated")
}

// DeleteTechnician handles DELETE /technicians/:id.
func (s *Server) DeleteTechnician(c *gin.Context) {
	if err := s.svc.Technicians.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Technician deleted")
}

// PingTechnicianLocation handles POST /technicians/:id/location.
func (s *Server) PingTechnicianLocation(c *gin.Context) {
	var ping domain.LocationPing
	if !bindJSON(c, &ping) {
		return
	}
	item, err := s.svc.Technicians.PingLocation(c.Request.Context(), c.Param("id"), ping, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}
