// Package store defines the persistence contract the orchestrator runs
// against. Entities are stored as JSON documents keyed by (kind, id); the
// store never exposes SQL to callers.
//
// Two implementations exist: store/memory for tests and single-process
// deployments, and store/postgres backed by pgx.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fieldops.io/fieldops/internal/domain"
)

var (
	// ErrNotFound is returned when no document matches (kind, id).
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write violates a uniqueness rule.
	ErrConflict = errors.New("store: unique constraint violated")
	// ErrReadOnly is returned when a view attempts a write.
	ErrReadOnly = errors.New("store: read-only transaction")
)

// ConflictError names the unique field that was violated.
type ConflictError struct {
	Kind  domain.Kind
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %s.%s already exists", e.Kind, e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// UniqueFields lists document fields that must be unique per kind. The
// postgres schema carries matching unique indexes. Values are compared
// case-insensitively.
var UniqueFields = map[domain.Kind][]string{
	domain.KindQuote:         {"quote_number"},
	domain.KindJob:           {"job_number"},
	domain.KindTechnician:    {"email"},
	domain.KindInventoryItem: {"sku"},
}

// Filter selects documents by containment on top-level fields: scalar
// values must be equal and array values must all be present in the
// document's array.
type Filter map[string]any

// Reader is the read side of a transaction.
type Reader interface {
	Get(ctx context.Context, kind domain.Kind, id string) (json.RawMessage, error)
	List(ctx context.Context, kind domain.Kind, filter Filter) ([]json.RawMessage, error)
	// LastSequence returns the greatest value of field among documents of
	// kind, ordered numerically by suffix, or "" when there are none.
	LastSequence(ctx context.Context, kind domain.Kind, field string) (string, error)
}

// Tx is a unit of work. Every write is visible to later reads in the same
// Tx and commits or rolls back with it.
type Tx interface {
	Reader
	Insert(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error
	Update(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error
	Delete(ctx context.Context, kind domain.Kind, id string) error
	AppendAudit(ctx context.Context, entry *domain.AuditLogEntry) error
	AppendActivity(ctx context.Context, entry *domain.ActivityLogEntry) error
	// Savepoint runs fn in a nested scope. If fn fails, only its writes are
	// undone and the surrounding Tx stays usable.
	Savepoint(ctx context.Context, fn func(Tx) error) error
}

// TrailReader queries the audit and activity trails.
type TrailReader interface {
	QueryAudit(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLogEntry, error)
	RecentActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
}

// Store owns the connection and hands out transactions.
type Store interface {
	TrailReader
	// RunInTx commits iff fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, r Reader) error) error
	Ping(ctx context.Context) error
	Close()
}

// Get loads and decodes one entity.
func Get[T any](ctx context.Context, r Reader, kind domain.Kind, id string) (*T, error) {
	raw, err := r.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, id, err)
	}
	return &out, nil
}

// List loads and decodes every entity matching filter, ordered by id.
func List[T any](ctx context.Context, r Reader, kind domain.Kind, filter Filter) ([]T, error) {
	raws, err := r.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Exists reports whether (kind, id) is stored.
func Exists(ctx context.Context, r Reader, kind domain.Kind, id string) (bool, error) {
	_, err := r.Get(ctx, kind, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Insert encodes and stores a new entity.
func Insert(ctx context.Context, tx Tx, e domain.Entity) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.EntityKind(), err)
	}
	return tx.Insert(ctx, e.EntityKind(), e.EntityID(), doc)
}

// Update encodes and replaces an existing entity.
func Update(ctx context.Context, tx Tx, e domain.Entity) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.EntityKind(), err)
	}
	return tx.Update(ctx, e.EntityKind(), e.EntityID(), doc)
}

// Delete removes an entity.
func Delete(ctx context.Context, tx Tx, e domain.Entity) error {
	return tx.Delete(ctx, e.EntityKind(), e.EntityID())
}
