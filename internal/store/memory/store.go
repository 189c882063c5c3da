// Package memory provides an in-process transactional store. A transaction
// works on a private copy of the state that replaces the committed state
// only when the transaction function succeeds. Transactions are serialized.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/store"
)

var _ store.Store = (*Store)(nil)

var errTxDone = errors.New("memory store: transaction already finished")

type state struct {
	docs     map[domain.Kind]map[string]json.RawMessage
	audit    []domain.AuditLogEntry
	activity []domain.ActivityLogEntry
}

func newState() *state {
	return &state{docs: make(map[domain.Kind]map[string]json.RawMessage)}
}

// clone copies the maps and slices. Documents themselves are never mutated
// in place, so the byte slices are shared.
func (s *state) clone() *state {
	out := &state{
		docs:     make(map[domain.Kind]map[string]json.RawMessage, len(s.docs)),
		audit:    append([]domain.AuditLogEntry(nil), s.audit...),
		activity: append([]domain.ActivityLogEntry(nil), s.activity...),
	}
	for kind, bucket := range s.docs {
		cp := make(map[string]json.RawMessage, len(bucket))
		for id, doc := range bucket {
			cp[id] = doc
		}
		out.docs[kind] = cp
	}
	return out
}

func (s *state) bucket(kind domain.Kind) map[string]json.RawMessage {
	b, ok := s.docs[kind]
	if !ok {
		b = make(map[string]json.RawMessage)
		s.docs[kind] = b
	}
	return b
}

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// RunInTx executes fn against a working copy and swaps it in on success.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{reader: reader{st: s.state.clone()}}
	err := fn(ctx, t)
	t.done = true
	if err != nil {
		return err
	}
	s.state = t.st
	return nil
}

// View runs fn against the committed state.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r store.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &reader{st: s.state})
}

// QueryAudit returns matching audit entries newest first.
func (s *Store) QueryAudit(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := domain.NormalizedLimit(q.Limit)
	out := make([]domain.AuditLogEntry, 0)
	for i := len(s.state.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.state.audit[i]
		if q.EntityType != "" && e.EntityType != q.EntityType {
			continue
		}
		if q.EntityID != "" && e.EntityID != q.EntityID {
			continue
		}
		if q.ActorTechID != "" && (e.ActorTechID == nil || *e.ActorTechID != q.ActorTechID) {
			continue
		}
		if q.ActorDispatcherID != "" && (e.ActorDispatcherID == nil || *e.ActorDispatcherID != q.ActorDispatcherID) {
			continue
		}
		out = append(out, copyAudit(e))
	}
	return out, nil
}

// RecentActivity returns the newest activity entries first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = domain.NormalizedLimit(limit)
	out := make([]domain.ActivityLogEntry, 0, limit)
	for i := len(s.state.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyActivity(s.state.activity[i]))
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() {}

type reader struct {
	st *state
}

func (r *reader) Get(ctx context.Context, kind domain.Kind, id string) (json.RawMessage, error) {
	doc, ok := r.st.docs[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return doc, nil
}

func (r *reader) List(ctx context.Context, kind domain.Kind, filter store.Filter) ([]json.RawMessage, error) {
	bucket := r.st.docs[kind]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		doc := bucket[id]
		if len(want) > 0 {
			ok, err := matches(doc, want)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *reader) LastSequence(ctx context.Context, kind domain.Kind, field string) (string, error) {
	var last string
	for _, doc := range r.st.docs[kind] {
		fields, err := decode(doc)
		if err != nil {
			return "", err
		}
		v, _ := fields[field].(string)
		if v == "" {
			continue
		}
		// Numeric order: longer suffix is larger.
		if len(v) > len(last) || (len(v) == len(last) && v > last) {
			last = v
		}
	}
	return last, nil
}

type tx struct {
	reader
	done bool
}

func (t *tx) Get(ctx context.Context, kind domain.Kind, id string) (json.RawMessage, error) {
	if t.done {
		return nil, errTxDone
	}
	return t.reader.Get(ctx, kind, id)
}

func (t *tx) Insert(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error {
	if t.done {
		return errTxDone
	}
	b := t.st.bucket(kind)
	if _, exists := b[id]; exists {
		return &store.ConflictError{Kind: kind, Field: "id"}
	}
	if err := t.checkUnique(kind, id, doc); err != nil {
		return err
	}
	b[id] = append(json.RawMessage(nil), doc...)
	return nil
}

func (t *tx) Update(ctx context.Context, kind domain.Kind, id string, doc json.RawMessage) error {
	if t.done {
		return errTxDone
	}
	b := t.st.bucket(kind)
	if _, exists := b[id]; !exists {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	if err := t.checkUnique(kind, id, doc); err != nil {
		return err
	}
	b[id] = append(json.RawMessage(nil), doc...)
	return nil
}

func (t *tx) Delete(ctx context.Context, kind domain.Kind, id string) error {
	if t.done {
		return errTxDone
	}
	b := t.st.bucket(kind)
	if _, exists := b[id]; !exists {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	delete(b, id)
	return nil
}

func (t *tx) AppendAudit(ctx context.Context, entry *domain.AuditLogEntry) error {
	if t.done {
		return errTxDone
	}
	if entry.ActorTechID != nil && entry.ActorDispatcherID != nil {
		return errors.New("memory store: audit entry names both a technician and a dispatcher")
	}
	t.st.audit = append(t.st.audit, copyAudit(*entry))
	return nil
}

func (t *tx) AppendActivity(ctx context.Context, entry *domain.ActivityLogEntry) error {
	if t.done {
		return errTxDone
	}
	t.st.activity = append(t.st.activity, copyActivity(*entry))
	return nil
}

// Savepoint snapshots the working state and restores it if fn fails.
func (t *tx) Savepoint(ctx context.Context, fn func(store.Tx) error) error {
	if t.done {
		return errTxDone
	}
	snapshot := t.st.clone()
	if err := fn(t); err != nil {
		t.st = snapshot
		return err
	}
	return nil
}

func (t *tx) checkUnique(kind domain.Kind, id string, doc json.RawMessage) error {
	fields := store.UniqueFields[kind]
	if len(fields) == 0 {
		return nil
	}
	incoming, err := decode(doc)
	if err != nil {
		return err
	}
	for _, field := range fields {
		v, _ := incoming[field].(string)
		if v == "" {
			continue
		}
		for otherID, other := range t.st.docs[kind] {
			if otherID == id {
				continue
			}
			existing, err := decode(other)
			if err != nil {
				return err
			}
			if ov, _ := existing[field].(string); strings.EqualFold(ov, v) {
				return &store.ConflictError{Kind: kind, Field: field}
			}
		}
	}
	return nil
}

// The trail is append-only: entries are copied on the way in and on the
// way out so no caller holds a reference into stored state.
func copyAudit(e domain.AuditLogEntry) domain.AuditLogEntry {
	if e.Changes != nil {
		changes := make(domain.ChangeRecord, len(e.Changes))
		for field, c := range e.Changes {
			changes[field] = domain.Change{Old: copyValue(c.Old), New: copyValue(c.New)}
		}
		e.Changes = changes
	}
	e.ActorTechID = copyString(e.ActorTechID)
	e.ActorDispatcherID = copyString(e.ActorDispatcherID)
	e.Reason = copyString(e.Reason)
	e.IPAddress = copyString(e.IPAddress)
	e.UserAgent = copyString(e.UserAgent)
	return e
}

func copyActivity(e domain.ActivityLogEntry) domain.ActivityLogEntry {
	e.ActorTechID = copyString(e.ActorTechID)
	e.ActorDispatcherID = copyString(e.ActorDispatcherID)
	return e
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// copyValue copies the container types a change value can hold. Scalars
// and value types are returned as is.
func copyValue(v any) any {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

func decode(doc json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("memory store: decode document: %w", err)
	}
	return fields, nil
}

// normalize round-trips the filter through JSON so values compare in the
// same representation as decoded documents.
func normalize(filter store.Filter) (map[string]any, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("memory store: encode filter: %w", err)
	}
	return decode(raw)
}

func matches(doc json.RawMessage, want map[string]any) (bool, error) {
	fields, err := decode(doc)
	if err != nil {
		return false, err
	}
	for k, wv := range want {
		dv, ok := fields[k]
		if !ok {
			return false, nil
		}
		if wantArr, isArr := wv.([]any); isArr {
			docArr, _ := dv.([]any)
			if !containsAll(docArr, wantArr) {
				return false, nil
			}
			continue
		}
		if !reflect.DeepEqual(dv, wv) {
			return false, nil
		}
	}
	return true, nil
}

func containsAll(have, want []any) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if reflect.DeepEqual(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
