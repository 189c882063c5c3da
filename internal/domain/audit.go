package domain

import "time"

// Change is the before and after value of one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeRecord maps field names to their change. An empty record means
// nothing tracked changed.
type ChangeRecord map[string]Change

// AuditAction is the kind of mutation an audit entry describes.
type AuditAction string

const (
	AuditCreated AuditAction = "created"
	AuditUpdated AuditAction = "updated"
	AuditDeleted AuditAction = "deleted"
)

// AuditLogEntry is an immutable compliance record of one mutation.
type AuditLogEntry struct {
	ID                string       `json:"id"`
	EntityType        Kind         `json:"entity_type"`
	EntityID          string       `json:"entity_id"`
	Action            AuditAction  `json:"action"`
	Changes           ChangeRecord `json:"changes"`
	ActorTechID       *string      `json:"actor_tech_id"`
	ActorDispatcherID *string      `json:"actor_dispatcher_id"`
	Reason            *string      `json:"reason,omitempty"`
	IPAddress         *string      `json:"ip_address,omitempty"`
	UserAgent         *string      `json:"user_agent,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// ActivityLogEntry is a human-readable line in the operations feed.
type ActivityLogEntry struct {
	ID                string    `json:"id"`
	Description       string    `json:"description"`
	ActorTechID       *string   `json:"actor_tech_id"`
	ActorDispatcherID *string   `json:"actor_dispatcher_id"`
	EntityType        Kind      `json:"entity_type,omitempty"`
	EntityID          string    `json:"entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// AuditQuery selects audit entries. EntityType with EntityID, or one actor
// id, narrows the result; with neither set the most recent entries across
// all entities are returned. Results are newest first.
type AuditQuery struct {
	EntityType        Kind   `form:"entity_type" json:"entity_type,omitempty"`
	EntityID          string `form:"entity_id" json:"entity_id,omitempty"`
	ActorTechID       string `form:"actor_tech_id" json:"actor_tech_id,omitempty"`
	ActorDispatcherID string `form:"actor_dispatcher_id" json:"actor_dispatcher_id,omitempty"`
	Limit             int    `form:"limit" json:"limit,omitempty"`
}

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// NormalizedLimit clamps a requested page size.
func NormalizedLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultQueryLimit
	case limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return limit
	}
}
