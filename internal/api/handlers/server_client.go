package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateClient handles POST /clients.
func (s *Server) CreateClient(c *gin.Context) {
	var in domain.CreateClientInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Clients.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Client created")
}

// ListClients handles GET /clients.
func (s *Server) ListClients(c *gin.Context) {
	items, err := s.svc.Clients.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetClient handles GET /clients/:id.
func (s *Server) GetClient(c *gin.Context) {
	item, err := s.svc.Clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateClient handles PATCH /clients/:id.
func (s *Server) UpdateClient(c *gin.Context) {
	var patch domain.ClientPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Clients.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Client updated")
}

// DeleteClient handles DELETE /clients/:id.
func (s *Server) DeleteClient(c *gin.Context) {
	if err := s.svc.Clients.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Client deleted")
}

// CreateContact handles POST /contacts.
func (s *Server) CreateContact(c *gin.Context) {
	var in domain.CreateContactInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Contacts.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Contact created")
}

// ListContacts handles GET /contacts?client_id.
func (s *Server) ListContacts(c *gin.Context) {
	items, err := s.svc.Contacts.List(c.Request.Context(), c.Query("client_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetContact handles GET /contacts/:id.
func (s *Server) GetContact(c *gin.Context) {
	item, err := s.svc.Contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateContact handles PATCH /contacts/:id.
func (s *Server) UpdateContact(c *gin.Context) {
	var patch domain.ContactPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Contacts.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Contact updated")
}

// DeleteContact handles DELETE /contacts/:id.
func (s *Server) DeleteContact(c *gin.Context) {
	if err := s.svc.Contacts.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Contact deleted")
}
