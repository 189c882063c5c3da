package audit

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/store"
)

// Service answers audit and activity trail queries.
type Service struct {
	trail store.TrailReader
}

// NewService creates a trail query service.
func NewService(trail store.TrailReader) *Service {
	return &Service{trail: trail}
}

// ByEntity returns the history of one entity, newest first.
func (s *Service) ByEntity(ctx context.Context, kind domain.Kind, id string, limit int) ([]domain.AuditLogEntry, error) {
	return s.Query(ctx, domain.AuditQuery{EntityType: kind, EntityID: id, Limit: limit})
}

// Recent returns the most recent entries across all entities.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	return s.Query(ctx, domain.AuditQuery{Limit: limit})
}

// ByActor returns entries attributed to one actor. The system actor has no
// id to filter on, so an empty actor is rejected rather than widened to
// every entry.
func (s *Service) ByActor(ctx context.Context, actor domain.ActorContext, limit int) ([]domain.AuditLogEntry, error) {
	if actor.TechID == "" && actor.DispatcherID == "" {
		return nil, apperrors.Validation(apperrors.FieldError{Field: "actor", Code: "required",
			Message: "actor_tech_id or actor_dispatcher_id is required"})
	}
	return s.Query(ctx, domain.AuditQuery{ActorTechID: actor.TechID, ActorDispatcherID: actor.DispatcherID, Limit: limit})
}

// Query validates q and runs it.
func (s *Service) Query(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLogEntry, error) {
	var fields []apperrors.FieldError
	if q.EntityType != "" && !q.EntityType.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "entity_type", Code: "oneof",
			Message: fmt.Sprintf("entity_type %q is not a known entity type", q.EntityType)})
	}
	if q.EntityID != "" && q.EntityType == "" {
		fields = append(fields, apperrors.FieldError{Field: "entity_type", Code: "required_with",
			Message: "entity_type is required when entity_id is given"})
	}
	if q.ActorTechID != "" && q.ActorDispatcherID != "" {
		fields = append(fields, apperrors.FieldError{Field: "actor_dispatcher_id", Code: "excluded_with",
			Message: "filter by actor_tech_id or actor_dispatcher_id, not both"})
	}
	if q.Limit < 0 {
		fields = append(fields, apperrors.FieldError{Field: "limit", Code: "gte", Message: "limit must be greater than or equal to 0"})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields...)
	}

	entries, err := s.trail.QueryAudit(ctx, q)
	if err != nil {
		return nil, apperrors.ErrInternalFailure(fmt.Errorf("query audit trail: %w", err))
	}
	return entries, nil
}

// RecentActivity returns the newest activity feed entries.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	entries, err := s.trail.RecentActivity(ctx, limit)
	if err != nil {
		return nil, apperrors.ErrInternalFailure(fmt.Errorf("query activity feed: %w", err))
	}
	return entries, nil
}
