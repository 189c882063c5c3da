package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

// CreateInventoryItem handles POST /inventory.
func (s *Server) CreateInventoryItem(c *gin.Context) {
	var in domain.CreateInventoryItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.svc.Inventory.Create(c.Request.Context(), in, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Inventory item created")
}

// ListInventory handles GET /inventory?below_reorder.
func (s *Server) ListInventory(c *gin.Context) {
	below, ok := queryBool(c, "below_reorder")
	if !ok {
		return
	}
	items, err := s.svc.Inventory.List(c.Request.Context(), below)
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, items)
}

// GetInventoryItem handles GET /inventory/:id.
func (s *Server) GetInventoryItem(c *gin.Context) {
	item, err := s.svc.Inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "")
}

// UpdateInventoryItem handles PATCH /inventory/:id.
func (s *Server) UpdateInventoryItem(c *gin.Context) {
	var patch domain.InventoryItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.svc.Inventory.Update(c.Request.Context(), c.Param("id"), patch, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Inventory item updated")
}

// DeleteInventoryItem handles DELETE /inventory/:id.
func (s *Server) DeleteInventoryItem(c *gin.Context) {
	if err := s.svc.Inventory.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Inventory item deleted")
}

// AdjustInventory handles POST /inventory/:id/adjust.
func (s *Server) AdjustInventory(c *gin.Context) {
	var adj domain.StockAdjustment
	if !bindJSON(c, &adj) {
		return
	}
	item, err := s.svc.Inventory.AdjustStock(c.Request.Context(), c.Param("id"), adj, actorOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Stock adjusted")
}
