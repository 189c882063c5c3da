// Package postgres implements store.Store on PostgreSQL through pgx.
// Entities live in one JSONB document table; the audit and activity trails
// are relational append-only tables.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/store"
)

//go:embed schema.sql
var schemaSQL string

var _ store.Store = (*Store)(nil)

const uniqueViolation = "23505"

// conflictFields maps unique constraint names to the field they protect.
var conflictFields = map[string]string{
	"entities_pkey":                 "id",
	"entities_quote_number_key":     "quote_number",
	"entities_job_number_key":       "job_number",
	"entities_technician_email_key": "email",
	"entities_inventory_sku_key":    "sku",
	"audit_logs_pkey":               "id",
	"activity_logs_pkey":            "id",
}

// querier is satisfied by pgx.Tx at every nesting level.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The pool is owned by the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply fieldops schema: %w", err)
	}
	logger.Info("Store schema applied")
	return nil
}

// RunInTx runs fn in a read-write transaction; any error rolls back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{q: ptx})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r store.Reader) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{q: ptx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to the infrastructure layer.
func (s *Store) Close() {}

// QueryAudit returns matching audit entries newest first.
func (s *Store) QueryAudit(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLogEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.EntityType != "" {
		add("entity_type = $%d", string(q.EntityType))
	}
	if q.EntityID != "" {
		add("entity_id = $%d", q.EntityID)
	}
	if q.ActorTechID != "" {
		add("actor_tech_id = $%d", q.ActorTechID)
	}
	if q.ActorDispatcherID != "" {
		add("actor_dispatcher_id = $%d", q.ActorDispatcherID)
	}

	sql := `SELECT id, entity_type, entity_id, action, changes, actor_tech_id, actor_dispatcher_id,
	               reason, ip_address, user_agent, created_at
	          FROM audit_logs`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, domain.NormalizedLimit(q.Limit))
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AuditLogEntry, 0)
	for rows.Next() {
		var (
			e       domain.AuditLogEntry
			kind    string
			action  string
			changes []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.EntityID, &action, &changes, &e.ActorTechID,
			&e.ActorDispatcherID, &e.Reason, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.EntityType = domain.Kind(kind)
		e.Action = domain.AuditAction(action)
		e.Changes = domain.ChangeRecord{}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode audit changes %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentActivity returns the newest activity entries first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, description, actor_tech_id, actor_dispatcher_id,
		       COALESCE(entity_type, ''), COALESCE(entity_id, ''), created_at
		  FROM activity_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, domain.NormalizedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActivityLogEntry, 0)
	for rows.Next() {
		var (
			e    domain.ActivityLogEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.ActorTechID, &e.ActorDispatcherID,
			&kind, &e.EntityID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		e.EntityType = domain.Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

type tx struct {
	q querier
}

func (t *tx) Get(ctx context.Context, kind domain.Kind, id string) (json.RawMessage, error) {
	var data []byte
	err := t.q.QueryRow(ctx, `SELECT data FROM entities WHERE kind = $1 AND id = $2`, string(kind), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return data, nil
}

func (t *tx) List(ctx context.Context, kind domain.Kind, filter store.Filter) ([]json.RawMessage, error) {
	sql := `SELECT data FROM entities WHERE kind = $1`
	args := []any{string(kind)}
	if len(filter) > 0 {
		contained, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		sql += ` AND data @> $2::jsonb`
		args = append(args, contained)
	}
	sql += ` ORDER BY id`

	rows, err := t.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// LastSequence takes a transaction-scoped advisory lock on the sequence so
// concurrent creators number one after another.
func (t *tx) LastSequence(ctx context.Context, kind domain.Kind, field string) (string, error) {
	if _, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(kind)+"."+field); err != nil {
		return "", fmt.Errorf("lock %s sequence: %w", kind, err)
	}
	var last string
	err := t.q.QueryRow(ctx, `
		SELECT data->>$2 FROM entities
		 WHERE kind = $1 AND data ? $2
		 ORDER BY length(data->>$2) DESC, data->>$2 DESC
		 LIMIT 1`, string(kind), field).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last %s.%s: %w", kind, field, err)
	}
	return last, nil
}

func (t *tx) Insert(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error {
	_, err := t.q.Exec(ctx, `INSERT INTO entities (kind, id, data) VALUES ($1, $2, $3)`, string(kind), id, []byte(doc))
	if err != nil {
		return mapWriteError(kind, fmt.Errorf("insert %s %s: %w", kind, id, err))
	}
	return nil
}

func (t *tx) Update(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error {
	tag, err := t.q.Exec(ctx, `UPDATE entities SET data = $3, updated_at = now() WHERE kind = $1 AND id = $2`,
		string(kind), id, []byte(doc))
	if err != nil {
		return mapWriteError(kind, fmt.Errorf("update %s %s: %w", kind, id, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, kind domain.Kind, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM entities WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (t *tx) AppendAudit(ctx context.Context, e *domain.AuditLogEntry) error {
	changes := e.Changes
	if changes == nil {
		changes = domain.ChangeRecord{}
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, changes, actor_tech_id,
		                        actor_dispatcher_id, reason, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, string(e.EntityType), e.EntityID, string(e.Action), raw, e.ActorTechID,
		e.ActorDispatcherID, e.Reason, e.IPAddress, e.UserAgent, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (t *tx) AppendActivity(ctx context.Context, e *domain.ActivityLogEntry) error {
	var kind, entityID *string
	if e.EntityType != "" {
		k := string(e.EntityType)
		kind = &k
	}
	if e.EntityID != "" {
		entityID = &e.EntityID
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO activity_logs (id, description, actor_tech_id, actor_dispatcher_id, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Description, e.ActorTechID, e.ActorDispatcherID, kind, entityID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// Savepoint uses a pgx nested transaction, which pgx issues as SAVEPOINT.
func (t *tx) Savepoint(ctx context.Context, fn func(store.Tx) error) error {
	sp, err := t.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if err := fn(&tx{q: sp}); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			logger.Warn("Savepoint rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func mapWriteError(kind domain.Kind, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := conflictFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return fmt.Errorf("%w: %w", &store.ConflictError{Kind: kind, Field: field}, err)
	}
	return err
}
