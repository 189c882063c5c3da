package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/store"
)

func insertTech(t *testing.T, s *Store, tech *domain.Technician) {
	t.Helper()
	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return store.Insert(ctx, tx, tech)
	})
	require.NoError(t, err)
}

func TestRunInTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	insertTech(t, s, &domain.Technician{ID: "t1", Name: "Ada", Email: "ada@example.com"})

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, store.Insert(ctx, tx, &domain.Technician{ID: "t2", Email: "bob@example.com"}))
		// Visible inside the same transaction.
		ok, err := store.Exists(ctx, tx, domain.KindTechnician, "t2")
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(ctx context.Context, r store.Reader) error {
		techs, err := store.List[domain.Technician](ctx, r, domain.KindTechnician, nil)
		require.NoError(t, err)
		require.Len(t, techs, 1)
		require.Equal(t, "t1", techs[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestTx_UniqueFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	insertTech(t, s, &domain.Technician{ID: "t1", Email: "ada@example.com"})

	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return store.Insert(ctx, tx, &domain.Technician{ID: "t2", Email: "ADA@example.com"})
	})
	require.ErrorIs(t, err, store.ErrConflict)
	var ce *store.ConflictError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "email", ce.Field)

	// Updating the owner of the value is not a conflict.
	err = s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return store.Update(ctx, tx, &domain.Technician{ID: "t1", Email: "ada@example.com", Name: "Ada L"})
	})
	require.NoError(t, err)
}

func TestTx_NotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := store.Get[domain.Job](ctx, tx, domain.KindJob, "missing")
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Delete(ctx, domain.KindJob, "missing")
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestList_Filter(t *testing.T) {
	ctx := context.Background()
	s := New()
	jobA, jobB := "job-a", "job-b"
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, v := range []*domain.Visit{
			{ID: "v1", JobID: jobA, Status: domain.VisitScheduled, TechnicianIDs: []string{"t1", "t2"}},
			{ID: "v2", JobID: jobA, Status: domain.VisitCompleted, TechnicianIDs: []string{"t2"}},
			{ID: "v3", JobID: jobB, Status: domain.VisitScheduled, TechnicianIDs: []string{}},
		} {
			if err := store.Insert(ctx, tx, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter store.Filter
		want   []string
	}{
		{"all", nil, []string{"v1", "v2", "v3"}},
		{"by job", store.Filter{"job_id": jobA}, []string{"v1", "v2"}},
		{"by job and status", store.Filter{"job_id": jobA, "status": domain.VisitScheduled}, []string{"v1"}},
		{"array containment", store.Filter{"technician_ids": []string{"t2"}}, []string{"v1", "v2"}},
		{"array containment all", store.Filter{"technician_ids": []string{"t1", "t2"}}, []string{"v1"}},
		{"no match", store.Filter{"job_id": "job-c"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.View(ctx, func(ctx context.Context, r store.Reader) error {
				visits, err := store.List[domain.Visit](ctx, r, domain.KindVisit, tt.filter)
				require.NoError(t, err)
				ids := make([]string, 0, len(visits))
				for _, v := range visits {
					ids = append(ids, v.ID)
				}
				require.Equal(t, tt.want, ids)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestLastSequence_NumericOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		last, err := tx.LastSequence(ctx, domain.KindQuote, "quote_number")
		require.NoError(t, err)
		require.Empty(t, last)

		for i, n := range []string{"Q-9998", "Q-10000", "Q-9999"} {
			q := &domain.Quote{ID: string(rune('a' + i)), QuoteNumber: n}
			if err := store.Insert(ctx, tx, q); err != nil {
				return err
			}
		}
		last, err = tx.LastSequence(ctx, domain.KindQuote, "quote_number")
		require.NoError(t, err)
		require.Equal(t, "Q-10000", last)
		return nil
	})
	require.NoError(t, err)
}

func TestSavepoint_RollsBackOnlyNestedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, store.Insert(ctx, tx, &domain.Client{ID: "c1", Name: "Acme"}))
		spErr := tx.Savepoint(ctx, func(sp store.Tx) error {
			require.NoError(t, sp.AppendActivity(ctx, &domain.ActivityLogEntry{ID: "a1"}))
			return errors.New("audit sink down")
		})
		require.Error(t, spErr)
		return tx.AppendActivity(ctx, &domain.ActivityLogEntry{ID: "a2"})
	})
	require.NoError(t, err)

	activity, err := s.RecentActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	require.Equal(t, "a2", activity[0].ID)

	err = s.View(ctx, func(ctx context.Context, r store.Reader) error {
		ok, err := store.Exists(ctx, r, domain.KindClient, "c1")
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)
}

func TestQueryAudit(t *testing.T) {
	ctx := context.Background()
	s := New()
	tech, disp := "t1", "d1"
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		entries := []*domain.AuditLogEntry{
			{ID: "1", EntityType: domain.KindJob, EntityID: "j1", Action: domain.AuditCreated, ActorTechID: &tech},
			{ID: "2", EntityType: domain.KindJob, EntityID: "j1", Action: domain.AuditUpdated, ActorDispatcherID: &disp},
			{ID: "3", EntityType: domain.KindVisit, EntityID: "v1", Action: domain.AuditCreated, ActorTechID: &tech},
		}
		for _, e := range entries {
			if err := tx.AppendAudit(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	byEntity, err := s.QueryAudit(ctx, domain.AuditQuery{EntityType: domain.KindJob, EntityID: "j1"})
	require.NoError(t, err)
	require.Equal(t, []string{"2", "1"}, auditIDs(byEntity))

	byTech, err := s.QueryAudit(ctx, domain.AuditQuery{ActorTechID: tech})
	require.NoError(t, err)
	require.Equal(t, []string{"3", "1"}, auditIDs(byTech))

	recent, err := s.QueryAudit(ctx, domain.AuditQuery{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"3", "2"}, auditIDs(recent))

	err = s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AppendAudit(ctx, &domain.AuditLogEntry{ID: "4", ActorTechID: &tech, ActorDispatcherID: &disp})
	})
	require.Error(t, err)
}

func TestQueryAudit_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	tech := "t1"
	entry := &domain.AuditLogEntry{
		ID: "1", EntityType: domain.KindJob, EntityID: "j1", Action: domain.AuditUpdated,
		Changes: domain.ChangeRecord{
			"status":         {Old: "A", New: "B"},
			"technician_ids": {Old: []string{"t1"}, New: []string{"t1", "t2"}},
		},
		ActorTechID: &tech,
	}
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AppendAudit(ctx, entry)
	}))
	entry.Changes["status"] = domain.Change{Old: "caller", New: "edit"}

	first, err := s.QueryAudit(ctx, domain.AuditQuery{EntityType: domain.KindJob, EntityID: "j1"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Changes["status"] = domain.Change{Old: "X", New: "Y"}
	first[0].Changes["technician_ids"].New.([]string)[0] = "tampered"
	*first[0].ActorTechID = "t9"
	delete(first[0].Changes, "technician_ids")

	again, err := s.QueryAudit(ctx, domain.AuditQuery{EntityType: domain.KindJob, EntityID: "j1"})
	require.NoError(t, err)
	require.Equal(t, domain.Change{Old: "A", New: "B"}, again[0].Changes["status"])
	require.Equal(t, domain.Change{Old: []string{"t1"}, New: []string{"t1", "t2"}}, again[0].Changes["technician_ids"])
	require.Equal(t, "t1", *again[0].ActorTechID)
}

func TestRecentActivity_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	disp := "d1"
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AppendActivity(ctx, &domain.ActivityLogEntry{ID: "a1", Description: "Job J-0001 created", ActorDispatcherID: &disp})
	}))

	feed, err := s.RecentActivity(ctx, 10)
	require.NoError(t, err)
	*feed[0].ActorDispatcherID = "d9"

	feed, err = s.RecentActivity(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "d1", *feed[0].ActorDispatcherID)
}

func auditIDs(entries []domain.AuditLogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestRunInTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().RunInTx(ctx, func(context.Context, store.Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
