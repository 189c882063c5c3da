package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

func TestScenario_QuoteApprovalPropagatesToRequest(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	req, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "Leaking tap"}, dispatcher)
	require.NoError(t, err)
	require.Equal(t, domain.RequestNew, req.Status)

	q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{
		ClientID:  c.ID,
		RequestID: &req.ID,
		Title:     "Replace tap",
	}, dispatcher)
	require.NoError(t, err)

	got, err := f.svc.Requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestQuoted, got.Status)
	require.Len(t, got.Quotes, 1)

	approved := domain.QuoteApproved
	first, err := f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Status: &approved}, dispatcher)
	require.NoError(t, err)
	require.NotNil(t, first.ApprovedAt)

	got, err = f.svc.Requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestQuoteApproved, got.Status)

	second, err := f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Status: &approved}, dispatcher)
	require.NoError(t, err)
	require.True(t, first.ApprovedAt.Equal(*second.ApprovedAt))

	// The repeat wrote no audit entry for the quote.
	require.Len(t, f.audit(domain.KindQuote, q.ID), 2)

	// The derived request change is audited with its cause.
	reqAudit := f.audit(domain.KindRequest, req.ID)
	require.Len(t, reqAudit, 3)
	require.Equal(t, domain.ChangeRecord{"status": {Old: "Quoted", New: "QuoteApproved"}}, reqAudit[0].Changes)
	require.Equal(t, "quote Q-0001 Approved", *reqAudit[0].Reason)
}

func TestScenario_VisitStatusesDriveJob(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	require.Equal(t, domain.JobUnscheduled, j.Status)

	v := f.visit(j.ID, domain.VisitScheduled)
	requireJobStatus(t, f, j.ID, domain.JobScheduled)

	_, err := f.svc.Visits.Update(f.ctx, v.ID, domain.VisitPatch{Status: ptr(domain.VisitInProgress)}, tech)
	require.NoError(t, err)
	requireJobStatus(t, f, j.ID, domain.JobInProgress)

	_, err = f.svc.Visits.Update(f.ctx, v.ID, domain.VisitPatch{Status: ptr(domain.VisitCompleted)}, tech)
	require.NoError(t, err)
	done := requireJobStatus(t, f, j.ID, domain.JobCompleted)
	require.NotNil(t, done.CompletedAt)
}

func TestScenario_JobFollowsAllVisits(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	v1 := f.visit(j.ID, domain.VisitScheduled)
	v2 := f.visit(j.ID, domain.VisitScheduled)

	_, err := f.svc.Visits.Update(f.ctx, v1.ID, domain.VisitPatch{Status: ptr(domain.VisitCompleted)}, tech)
	require.NoError(t, err)
	requireJobStatus(t, f, j.ID, domain.JobScheduled)

	_, err = f.svc.Visits.Update(f.ctx, v2.ID, domain.VisitPatch{Status: ptr(domain.VisitInProgress)}, tech)
	require.NoError(t, err)
	requireJobStatus(t, f, j.ID, domain.JobInProgress)

	_, err = f.svc.Visits.Update(f.ctx, v2.ID, domain.VisitPatch{Status: ptr(domain.VisitCompleted)}, tech)
	require.NoError(t, err)
	requireJobStatus(t, f, j.ID, domain.JobCompleted)
}

func TestScenario_DeletingVisits(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	v1 := f.visit(j.ID, domain.VisitScheduled)
	v2 := f.visit(j.ID, domain.VisitScheduled)

	require.NoError(t, f.svc.Visits.Delete(f.ctx, v1.ID, dispatcher))
	requireJobStatus(t, f, j.ID, domain.JobScheduled)

	require.NoError(t, f.svc.Visits.Delete(f.ctx, v2.ID, dispatcher))
	requireJobStatus(t, f, j.ID, domain.JobUnscheduled)
}

func TestScenario_DeletingTechnicianKeepsTheirNotes(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	tom, err := f.svc.Technicians.Create(f.ctx, domain.CreateTechnicianInput{Name: "Tom", Email: "tom@fieldops.io"}, dispatcher)
	require.NoError(t, err)

	author := domain.ActorContext{TechID: tom.ID}
	note, err := f.svc.Notes.Create(f.ctx, domain.CreateNoteInput{ClientID: &c.ID, Content: "Gate code 1234"}, author)
	require.NoError(t, err)
	require.Equal(t, tom.ID, *note.CreatorTechID)

	j := f.job(c.ID)
	v, err := f.svc.Visits.Create(f.ctx, domain.CreateVisitInput{JobID: j.ID, TechnicianIDs: []string{tom.ID}}, dispatcher)
	require.NoError(t, err)

	require.NoError(t, f.svc.Technicians.Delete(f.ctx, tom.ID, dispatcher))

	got, err := f.svc.Notes.Get(f.ctx, note.ID)
	require.NoError(t, err)
	require.Nil(t, got.CreatorTechID)
	require.Equal(t, "Gate code 1234", got.Content)

	visit, err := f.svc.Visits.Get(f.ctx, v.ID)
	require.NoError(t, err)
	require.Empty(t, visit.TechnicianIDs)

	_, err = f.svc.Technicians.Get(f.ctx, tom.ID)
	requireKind(t, err, apperrors.KindNotFound, "TECHNICIAN_NOT_FOUND")
}

func TestQuoteNumbering(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	for i := 1; i <= 12; i++ {
		q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Quote"}, dispatcher)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("Q-%04d", i), q.QuoteNumber)
	}
	j := f.job(c.ID)
	require.Equal(t, "J-0001", j.JobNumber)
}

func TestQuote_ConvertedQuoteIsLocked(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Roof"}, dispatcher)
	require.NoError(t, err)

	_, err = f.svc.Quotes.ConvertToJob(f.ctx, q.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeQuoteNotApproved)

	_, err = f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Status: ptr(domain.QuoteApproved)}, dispatcher)
	require.NoError(t, err)
	job, err := f.svc.Quotes.ConvertToJob(f.ctx, q.ID, dispatcher)
	require.NoError(t, err)
	require.Equal(t, q.ID, *job.QuoteID)

	before, err := f.svc.Quotes.Get(f.ctx, q.ID)
	require.NoError(t, err)
	auditBefore := len(f.audit(domain.KindQuote, q.ID))

	_, err = f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Title: ptr("Roof v2")}, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeQuoteConvertedLocked)
	err = f.svc.Quotes.Delete(f.ctx, q.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeQuoteConvertedLocked)

	after, err := f.svc.Quotes.Get(f.ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Len(t, f.audit(domain.KindQuote, q.ID), auditBefore)
}

func TestQuote_ConvertMarksRequestConverted(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	req, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "New boiler", RequiresQuote: true}, dispatcher)
	require.NoError(t, err)
	q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, RequestID: &req.ID, Title: "Boiler"}, dispatcher)
	require.NoError(t, err)
	_, err = f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Status: ptr(domain.QuoteApproved)}, dispatcher)
	require.NoError(t, err)

	job, err := f.svc.Quotes.ConvertToJob(f.ctx, q.ID, dispatcher)
	require.NoError(t, err)
	require.Equal(t, req.ID, *job.RequestID)

	got, err := f.svc.Requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestConvertedToJob, got.Status)

	err = f.svc.Requests.Delete(f.ctx, req.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeRequestConverted)
}

func TestQuote_LineItemReplacement(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{
		ClientID: c.ID,
		Title:    "Service",
		TaxRate:  decimal.RequireFromString("0.10"),
		LineItems: []domain.LineItemInput{
			{Description: "Labour", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("45.00")},
			{Description: "Filter", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("12.50")},
		},
	}, dispatcher)
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(decimal.RequireFromString("102.50")))
	require.True(t, q.Total.Equal(decimal.RequireFromString("112.75")))
	labour, filter := q.LineItems[0], q.LineItems[1]

	items := []domain.LineItemInput{
		{ID: &labour.ID, Description: "Labour", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("45")},
		{Description: "Valve", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("30")},
	}
	updated, err := f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{LineItems: &items}, dispatcher)
	require.NoError(t, err)
	require.Len(t, updated.LineItems, 2)
	require.Equal(t, labour.ID, updated.LineItems[0].ID)
	require.Equal(t, "Valve", updated.LineItems[1].Description)
	require.True(t, updated.Subtotal.Equal(decimal.RequireFromString("165")))

	labourAudit := f.audit(domain.KindQuoteLineItem, labour.ID)
	require.Equal(t, domain.AuditUpdated, labourAudit[0].Action)
	require.Contains(t, labourAudit[0].Changes, "quantity")
	require.NotContains(t, labourAudit[0].Changes, "unit_price")

	filterAudit := f.audit(domain.KindQuoteLineItem, filter.ID)
	require.Equal(t, domain.AuditDeleted, filterAudit[0].Action)

	valveAudit := f.audit(domain.KindQuoteLineItem, updated.LineItems[1].ID)
	require.Len(t, valveAudit, 1)
	require.Equal(t, domain.AuditCreated, valveAudit[0].Action)

	quoteAudit := f.audit(domain.KindQuote, q.ID)
	require.Contains(t, quoteAudit[0].Changes, "subtotal")
	require.Contains(t, quoteAudit[0].Changes, "total")

	bogus := []domain.LineItemInput{{ID: ptr("other"), Description: "x", Quantity: decimal.NewFromInt(1)}}
	_, err = f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{LineItems: &bogus}, dispatcher)
	requireKind(t, err, apperrors.KindNotFound, "QUOTE_LINE_ITEM_NOT_FOUND")
}

func TestQuote_ExpireDue(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	due, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Due", ExpiresAt: &past}, dispatcher)
	require.NoError(t, err)
	draft, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Draft", ExpiresAt: &past}, dispatcher)
	require.NoError(t, err)
	later, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Later", ExpiresAt: &future}, dispatcher)
	require.NoError(t, err)
	for _, id := range []string{due.ID, later.ID} {
		_, err := f.svc.Quotes.Update(f.ctx, id, domain.QuotePatch{Status: ptr(domain.QuoteSent)}, dispatcher)
		require.NoError(t, err)
	}

	n, err := f.svc.Quotes.ExpireDue(f.ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	for id, want := range map[string]domain.QuoteStatus{
		due.ID:   domain.QuoteExpired,
		draft.ID: domain.QuoteDraft,
		later.ID: domain.QuoteSent,
	} {
		got, err := f.svc.Quotes.Get(f.ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, got.Status)
	}

	entries := f.audit(domain.KindQuote, due.ID)
	require.Nil(t, entries[0].ActorDispatcherID)
	require.Equal(t, "quote expired", *entries[0].Reason)
}

func TestQuote_ExpireCountsOnlyTransitions(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	expiresAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	q, err := f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, Title: "Boiler", ExpiresAt: &expiresAt}, dispatcher)
	require.NoError(t, err)
	_, err = f.svc.Quotes.Update(f.ctx, q.ID, domain.QuotePatch{Status: ptr(domain.QuoteSent)}, dispatcher)
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"not yet due", expiresAt.Add(-time.Hour), false},
		{"due", expiresAt.Add(time.Hour), true},
		{"already expired", expiresAt.Add(2 * time.Hour), false},
	}
	for _, tt := range tests {
		changed, err := f.svc.Quotes.expire(f.ctx, q.ID, tt.now)
		require.NoError(t, err, tt.name)
		require.Equal(t, tt.want, changed, tt.name)
	}

	n, err := f.svc.Quotes.ExpireDue(f.ctx, expiresAt.Add(3*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, f.audit(domain.KindQuote, q.ID), 3)
}

func TestRequest_StatusRules(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	req, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "Noise"}, dispatcher)
	require.NoError(t, err)

	_, err = f.svc.Requests.Update(f.ctx, req.ID, domain.RequestPatch{Status: ptr(domain.RequestQuoted)}, dispatcher)
	requireKind(t, err, apperrors.KindValidationFailed, apperrors.CodeStatusNotSettable)

	cancelled, err := f.svc.Requests.Update(f.ctx, req.ID, domain.RequestPatch{Status: ptr(domain.RequestCancelled)}, dispatcher)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)

	again, err := f.svc.Requests.Update(f.ctx, req.ID, domain.RequestPatch{Status: ptr(domain.RequestCancelled)}, dispatcher)
	require.NoError(t, err)
	require.True(t, cancelled.CancelledAt.Equal(*again.CancelledAt))

	_, err = f.svc.Requests.Update(f.ctx, req.ID, domain.RequestPatch{Status: ptr(domain.RequestNew)}, dispatcher)
	requireKind(t, err, apperrors.KindValidationFailed, apperrors.CodeInvalidStatusTransition)

	_, err = f.svc.Requests.ConvertToJob(f.ctx, req.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeRequestClosed)
}

func TestRequest_DeleteGuards(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	quoted, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "Quoted"}, dispatcher)
	require.NoError(t, err)
	_, err = f.svc.Quotes.Create(f.ctx, domain.CreateQuoteInput{ClientID: c.ID, RequestID: &quoted.ID, Title: "Q"}, dispatcher)
	require.NoError(t, err)

	err = f.svc.Requests.Delete(f.ctx, quoted.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeRequestHasQuotes)

	direct, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "Direct"}, dispatcher)
	require.NoError(t, err)
	job, err := f.svc.Requests.ConvertToJob(f.ctx, direct.ID, dispatcher)
	require.NoError(t, err)
	require.Equal(t, domain.JobUnscheduled, job.Status)

	err = f.svc.Requests.Delete(f.ctx, direct.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeRequestConverted)

	plain, err := f.svc.Requests.Create(f.ctx, domain.CreateRequestInput{ClientID: c.ID, Title: "Plain"}, dispatcher)
	require.NoError(t, err)
	require.NoError(t, f.svc.Requests.Delete(f.ctx, plain.ID, dispatcher))
}

func TestJob_StatusWithVisits(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)

	got, err := f.svc.Jobs.Update(f.ctx, j.ID, domain.JobPatch{Status: ptr(domain.JobInProgress)}, dispatcher)
	require.NoError(t, err)
	require.Equal(t, domain.JobInProgress, got.Status)

	f.visit(j.ID, domain.VisitScheduled)
	_, err = f.svc.Jobs.Update(f.ctx, j.ID, domain.JobPatch{Status: ptr(domain.JobCompleted)}, dispatcher)
	requireKind(t, err, apperrors.KindValidationFailed, apperrors.CodeStatusNotSettable)

	got, err = f.svc.Jobs.Update(f.ctx, j.ID, domain.JobPatch{Status: ptr(domain.JobCancelled)}, dispatcher)
	require.NoError(t, err)
	require.Equal(t, domain.JobCancelled, got.Status)
}

func TestJob_CancelledStaysCancelled(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	v := f.visit(j.ID, domain.VisitScheduled)

	_, err := f.svc.Jobs.Update(f.ctx, j.ID, domain.JobPatch{Status: ptr(domain.JobCancelled)}, dispatcher)
	require.NoError(t, err)
	before := len(f.audit(domain.KindJob, j.ID))

	_, err = f.svc.Visits.Update(f.ctx, v.ID, domain.VisitPatch{Status: ptr(domain.VisitInProgress)}, tech)
	require.NoError(t, err)
	requireJobStatus(t, f, j.ID, domain.JobCancelled)

	require.NoError(t, f.svc.Visits.Delete(f.ctx, v.ID, dispatcher))
	requireJobStatus(t, f, j.ID, domain.JobCancelled)
	require.Len(t, f.audit(domain.KindJob, j.ID), before)
}

func TestJob_CascadeDeleteIsOneAuditEntry(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	v := f.visit(j.ID, domain.VisitScheduled)
	_, err := f.svc.Notes.Create(f.ctx, domain.CreateNoteInput{JobID: &j.ID, Content: "Bring ladder"}, tech)
	require.NoError(t, err)

	require.NoError(t, f.svc.Jobs.Delete(f.ctx, j.ID, dispatcher))

	entries := f.audit(domain.KindJob, j.ID)
	require.Equal(t, domain.AuditDeleted, entries[0].Action)
	require.Equal(t, domain.Change{Old: 1, New: 0}, entries[0].Changes["visits"])
	require.Equal(t, domain.Change{Old: 1, New: 0}, entries[0].Changes["notes"])

	visitAudit := f.audit(domain.KindVisit, v.ID)
	require.Len(t, visitAudit, 1)
	require.Equal(t, domain.AuditCreated, visitAudit[0].Action)

	_, err = f.svc.Visits.Get(f.ctx, v.ID)
	requireKind(t, err, apperrors.KindNotFound, "VISIT_NOT_FOUND")
}

func TestVisit_ScheduleValidation(t *testing.T) {
	f := newFixture(t)
	c := f.client("Acme")
	j := f.job(c.ID)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := f.svc.Visits.Create(f.ctx, domain.CreateVisitInput{JobID: j.ID, ScheduledStart: &start, ScheduledEnd: &end}, dispatcher)
	requireKind(t, err, apperrors.KindValidationFailed, apperrors.CodeValidationFailed)
	require.Contains(t, err.Error(), "scheduled_end must be after scheduled_start")

	_, err = f.svc.Visits.Create(f.ctx, domain.CreateVisitInput{JobID: j.ID, ScheduleType: domain.ScheduleWindow, ArrivalWindowStart: &start}, dispatcher)
	requireKind(t, err, apperrors.KindValidationFailed, apperrors.CodeValidationFailed)

	_, err = f.svc.Visits.Create(f.ctx, domain.CreateVisitInput{JobID: j.ID, TechnicianIDs: []string{"ghost"}}, dispatcher)
	requireKind(t, err, apperrors.KindNotFound, "TECHNICIAN_NOT_FOUND")

	requireJobStatus(t, f, j.ID, domain.JobUnscheduled)
}

func TestClient_DeleteGuardsAndCascade(t *testing.T) {
	f := newFixture(t)
	busy := f.client("Busy")
	f.job(busy.ID)
	err := f.svc.Clients.Delete(f.ctx, busy.ID, dispatcher)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeClientHasWork)

	idle := f.client("Idle")
	contact, err := f.svc.Contacts.Create(f.ctx, domain.CreateContactInput{ClientID: idle.ID, Name: "Ann"}, dispatcher)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clients.Delete(f.ctx, idle.ID, dispatcher))

	_, err = f.svc.Contacts.Get(f.ctx, contact.ID)
	requireKind(t, err, apperrors.KindNotFound, "CONTACT_NOT_FOUND")
	entries := f.audit(domain.KindClient, idle.ID)
	require.Equal(t, domain.Change{Old: 1, New: 0}, entries[0].Changes["contacts"])
}

func TestInventory_AdjustStock(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.Inventory.Create(f.ctx, domain.CreateInventoryItemInput{
		SKU: "FLT-10", Name: "Filter", Quantity: decimal.NewFromInt(5), ReorderThreshold: decimal.NewFromInt(2),
	}, dispatcher)
	require.NoError(t, err)

	got, err := f.svc.Inventory.AdjustStock(f.ctx, item.ID, domain.StockAdjustment{Delta: decimal.NewFromInt(-4), Reason: "job J-0001"}, tech)
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(decimal.NewFromInt(1)))

	_, err = f.svc.Inventory.AdjustStock(f.ctx, item.ID, domain.StockAdjustment{Delta: decimal.NewFromInt(-2)}, tech)
	requireKind(t, err, apperrors.KindBusinessRuleViolation, apperrors.CodeInsufficientStock)

	low, err := f.svc.Inventory.List(f.ctx, true)
	require.NoError(t, err)
	require.Len(t, low, 1)

	entries := f.audit(domain.KindInventoryItem, item.ID)
	require.Equal(t, "job J-0001", *entries[0].Reason)
	require.Contains(t, entries[0].Changes, "quantity")

	_, err = f.svc.Inventory.Create(f.ctx, domain.CreateInventoryItemInput{SKU: "flt-10", Name: "Dup"}, dispatcher)
	requireKind(t, err, apperrors.KindConflict, apperrors.CodeInventorySKUTaken)
}

func requireJobStatus(t *testing.T, f *fixture, id string, want domain.JobStatus) *domain.JobDetail {
	t.Helper()
	j, err := f.svc.Jobs.Get(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, want, j.Status)
	return j
}
