package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateQuote handles POST /quotes.
func (s *Server) CreateQuote(c *gin.Context) {
	var in domain.CreateQuoteInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Quotes.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Quote "+item.QuoteNumber+" created")
}

// ListQuotes handles GET /quotes?client_id&request_id&status.
func (s *Server) ListQuotes(c *gin.Context) {
	status, ok := queryStatus(c, domain.QuoteStatus.Valid)
	if !ok {
		return
	}
	items, err := s.svc.Quotes.List(c.Request.Context(), c.Query("client_id"), c.Query("request_id"), status)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetQuote handles GET /quotes/:id.
func (s *Server) GetQuote(c *gin.Context) {
	item, err := s.svc.Quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateQuote handles PATCH /quotes/:id.
func (s *Server) UpdateQuote(c *gin.Context) {
	var patch domain.QuotePatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Quotes.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Quote "+item.QuoteNumber+" updated")
}

// DeleteQuote handles DELETE /quotes/:id.
func (s *Server) DeleteQuote(c *gin.Context) {
	if err := s.svc.Quotes.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Quote deleted")
}

// ConvertQuote handles POST /quotes/:id/convert.
func (s *Server) ConvertQuote(c *gin.Context) {
	job, err := s.svc.Quotes.ConvertToJob(c.Request.Context(), c.Param("id"), actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, job, "Quote converted to job "+job.JobNumber)
}
