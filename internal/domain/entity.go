// Package domain defines the fieldops business records, their status
// enumerations, the per-entity patch types that act as update allow-lists,
// and the audit and activity trail entries.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind names an entity type. It doubles as the audit entity_type and the
// persistence bucket.
type Kind string

const (
	KindClient        Kind = "client"
	KindContact       Kind = "contact"
	KindTechnician    Kind = "technician"
	KindRequest       Kind = "request"
	KindQuote         Kind = "quote"
	KindQuoteLineItem Kind = "quote_line_item"
	KindJob           Kind = "job"
	KindVisit         Kind = "visit"
	KindNote          Kind = "note"
	KindInventoryItem Kind = "inventory_item"
)

// Kinds lists every entity kind.
var Kinds = []Kind{
	KindClient, KindContact, KindTechnician, KindRequest, KindQuote,
	KindQuoteLineItem, KindJob, KindVisit, KindNote, KindInventoryItem,
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Entity is a persisted business record.
type Entity interface {
	EntityKind() Kind
	EntityID() string
}

// NewID returns a time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Ref identifies one entity.
type Ref struct {
	Kind Kind   `json:"entity_type"`
	ID   string `json:"entity_id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// RefOf returns the reference for e.
func RefOf(e Entity) Ref {
	return Ref{Kind: e.EntityKind(), ID: e.EntityID()}
}
