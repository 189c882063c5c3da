package domain

import (
	"encoding/json"
	"time"
)

// EventType defines the type of domain event.
type EventType string

const (
	// EventActivityLogged is raised after commit for each activity entry.
	EventActivityLogged EventType = "ACTIVITY_LOGGED"
	// EventStatusDerived is raised after commit when a parent status was
	// recomputed from its children.
	EventStatusDerived EventType = "STATUS_DERIVED"
)

// DomainEvent is an immutable notification raised once a mutation commits.
type DomainEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	AggregateType Kind      `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	Payload       []byte    `json:"payload"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewActivityEvent wraps an activity entry for post-commit dispatch.
func NewActivityEvent(entry ActivityLogEntry, actor ActorContext) (*DomainEvent, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return &DomainEvent{
		EventID:       NewID(),
		EventType:     EventActivityLogged,
		AggregateType: entry.EntityType,
		AggregateID:   entry.EntityID,
		Payload:       payload,
		CreatedBy:     actor.Label(),
		CreatedAt:     entry.CreatedAt,
	}, nil
}

// StatusDerivedPayload describes a derived parent status change.
type StatusDerivedPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// NewStatusDerivedEvent builds the event for a derived status change on ref.
func NewStatusDerivedEvent(ref Ref, from, to, reason string, at time.Time) (*DomainEvent, error) {
	payload, err := json.Marshal(StatusDerivedPayload{From: from, To: to, Reason: reason})
	if err != nil {
		return nil, err
	}
	return &DomainEvent{
		EventID:       NewID(),
		EventType:     EventStatusDerived,
		AggregateType: ref.Kind,
		AggregateID:   ref.ID,
		Payload:       payload,
		CreatedBy:     "system",
		CreatedAt:     at,
	}, nil
}
