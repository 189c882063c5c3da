package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateNote handles POST /notes.
func (s *Server) CreateNote(c *gin.Context) {
	var in domain.CreateNoteInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Notes.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Note added")
}

// ListNotes handles GET /notes?client_id&job_id.
func (s *Server) ListNotes(c *gin.Context) {
	items, err := s.svc.Notes.List(c.Request.Context(), c.Query("client_id"), c.Query("job_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetNote handles GET /notes/:id.
func (s *Server) GetNote(c *gin.Context) {
	item, err := s.svc.Notes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateNote handles PATCH /notes/:id.
func (s *Server) UpdateNote(c *gin.Context) {
	var patch domain.NotePatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Notes.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Note updated")
}

// DeleteNote handles DELETE /notes/:id.
func (s *Server) DeleteNote(c *gin.Context) {
	if err := s.svc.Notes.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Note deleted")
}
