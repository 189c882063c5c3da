// Package handlers maps the /api/v1 HTTP surface onto the mutation
// orchestrator and the trail query service.
//
// Every response body uses the envelope {err, code?, item?, message?}. An
// empty err means success. Failures are pushed onto the gin context and
// rendered by middleware.ErrorHandler.
//
// Import Path: fieldops.io/fieldops/internal/api/handlers
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/governance/audit"
	"fieldops.io/fieldops/internal/usecase"
)

// Pinger reports store reachability for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements all API handlers.
type Server struct {
	svc    *usecase.Services
	trail  *audit.Service
	health Pinger
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Services *usecase.Services
	Trail    *audit.Service
	Health   Pinger
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		svc:    deps.Services,
		trail:  deps.Trail,
		health: deps.Health,
	}
}

// RegisterHealth mounts the unauthenticated health checks.
func (s *Server) RegisterHealth(rg *gin.RouterGroup) {
	rg.GET("/health/live", s.GetLiveness)
	rg.GET("/health/ready", s.GetReadiness)
}

// Register mounts the authenticated API routes on rg.
func (s *Server) Register(rg *gin.RouterGroup) {
	rg.POST("/clients", s.CreateClient)
	rg.GET("/clients", s.ListClients)
	rg.GET("/clients/:id", s.GetClient)
	rg.PATCH("/clients/:id", s.UpdateClient)
	rg.DELETE("/clients/:id", s.DeleteClient)

	rg.POST("/contacts", s.CreateContact)
	rg.GET("/contacts", s.ListContacts)
	rg.GET("/contacts/:id", s.GetContact)
	rg.PATCH("/contacts/:id", s.UpdateContact)
	rg.DELETE("/contacts/:id", s.DeleteContact)

	rg.POST("/technicians", s.CreateTechnician)
	rg.GET("/technicians", s.ListTechnicians)
	rg.GET("/technicians/:id", s.GetTechnician)
	rg.PATCH("/technicians/:id", s.UpdateTechnician)
	rg.DELETE("/technicians/:id", s.DeleteTechnician)
	rg.POST("/technicians/:id/location", s.PingTechnicianLocation)

	rg.POST("/requests", s.CreateRequest)
	rg.GET("/requests", s.ListRequests)
	rg.GET("/requests/:id", s.GetRequest)
	rg.PATCH("/requests/:id", s.UpdateRequest)
	rg.DELETE("/requests/:id", s.DeleteRequest)
	rg.POST("/requests/:id/convert", s.ConvertRequest)

	rg.POST("/quotes", s.CreateQuote)
	rg.GET("/quotes", s.ListQuotes)
	rg.GET("/quotes/:id", s.GetQuote)
	rg.PATCH("/quotes/:id", s.UpdateQuote)
	rg.DELETE("/quotes/:id", s.DeleteQuote)
	rg.POST("/quotes/:id/convert", s.ConvertQuote)

	rg.POST("/jobs", s.CreateJob)
	rg.GET("/jobs", s.ListJobs)
	rg.GET("/jobs/:id", s.GetJob)
	rg.PATCH("/jobs/:id", s.UpdateJob)
	rg.DELETE("/jobs/:id", s.DeleteJob)

	rg.POST("/visits", s.CreateVisit)
	rg.GET("/visits", s.ListVisits)
	rg.GET("/visits/:id", s.GetVisit)
	rg.PATCH("/visits/:id", s.UpdateVisit)
	rg.DELETE("/visits/:id", s.DeleteVisit)

	rg.POST("/notes", s.CreateNote)
	rg.GET("/notes", s.ListNotes)
	rg.GET("/notes/:id", s.GetNote)
	rg.PATCH("/notes/:id", s.UpdateNote)
	rg.DELETE("/notes/:id", s.DeleteNote)

	rg.POST("/inventory", s.CreateInventoryItem)
	rg.GET("/inventory", s.ListInventory)
	rg.GET("/inventory/:id", s.GetInventoryItem)
	rg.PATCH("/inventory/:id", s.UpdateInventoryItem)
	rg.DELETE("/inventory/:id", s.DeleteInventoryItem)
	rg.POST("/inventory/:id/adjust", s.AdjustInventory)

	rg.GET("/audit-logs", middleware.RequireRole(middleware.RoleDispatcher), s.ListAuditLogs)
	rg.GET("/activity", s.ListActivity)
}
