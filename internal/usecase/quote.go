package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/lifecycle"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/store"
)

var (
	quoteCreatedFields = append([]string{"quote_number", "client_id", "request_id"},
		append(append([]string{}, domain.QuoteTrackedFields...), domain.QuoteTotalsTrackedFields...)...)
	quoteStampFields      = []string{"sent_at", "viewed_at", "approved_at", "rejected_at"}
	lineItemCreatedFields = append([]string{"quote_id"}, domain.LineItemTrackedFields...)
)

// QuoteService manages quotes and their line items.
type QuoteService struct {
	o *Orchestrator
}

// Create numbers a new Draft quote. A quote answering a request moves an
// open request to Quoted.
func (s *QuoteService) Create(ctx context.Context, in domain.CreateQuoteInput, actor domain.ActorContext) (*domain.QuoteDetail, error) {
	var out *domain.QuoteDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindQuote, ActionCreate}, in, actor, func(u *Unit) error {
		if err := requireExists(u.Context(), u.Tx(), domain.KindClient, in.ClientID); err != nil {
			return err
		}
		var req *domain.Request
		if in.RequestID != nil {
			var err error
			req, err = load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, *in.RequestID)
			if err != nil {
				return err
			}
			if req.ClientID != in.ClientID {
				return apperrors.BusinessRule(apperrors.CodeRelationMismatch,
					"request belongs to a different client").
					WithParams(map[string]interface{}{"request_id": req.ID, "client_id": in.ClientID})
			}
			if err := convertible(req); err != nil {
				return err
			}
		}

		number, err := nextNumber(u.Context(), u.Tx(), domain.KindQuote, "quote_number", lifecycle.QuotePrefix)
		if err != nil {
			return err
		}
		q := &domain.Quote{
			ID:          domain.NewID(),
			QuoteNumber: number,
			ClientID:    in.ClientID,
			RequestID:   in.RequestID,
			Title:       in.Title,
			Notes:       in.Notes,
			Status:      domain.QuoteDraft,
			TaxRate:     in.TaxRate,
			ExpiresAt:   in.ExpiresAt,
			CreatedAt:   u.Now(),
			UpdatedAt:   u.Now(),
		}
		items := make([]domain.QuoteLineItem, 0, len(in.LineItems))
		for i, li := range in.LineItems {
			items = append(items, newLineItem(q.ID, li, i, u.Now()))
		}
		applyTotals(q, items)
		if err := u.Create(q, quoteCreatedFields, fmt.Sprintf("Quote %s created", q.QuoteNumber)); err != nil {
			return err
		}
		for i := range items {
			if err := u.Create(&items[i], lineItemCreatedFields, ""); err != nil {
				return err
			}
		}

		if req != nil {
			if next, changed := lifecycle.RequestStatusOnQuoteCreated(req.Status); changed {
				if err := applyDerivedRequest(u, req, next, fmt.Sprintf("quote %s created", q.QuoteNumber)); err != nil {
					return err
				}
			}
		}
		out, err = quoteDetail(u.Context(), u.Tx(), q.ID)
		return err
	})
	return out, err
}

func (s *QuoteService) Get(ctx context.Context, id string) (*domain.QuoteDetail, error) {
	var out *domain.QuoteDetail
	err := s.o.View(ctx, Op{domain.KindQuote, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = quoteDetail(ctx, r, id)
		return err
	})
	return out, err
}

// List returns quotes, narrowed by client, request and status when given.
func (s *QuoteService) List(ctx context.Context, clientID, requestID string, status domain.QuoteStatus) ([]domain.Quote, error) {
	var out []domain.Quote
	err := s.o.View(ctx, Op{domain.KindQuote, "list"}, func(ctx context.Context, r store.Reader) error {
		filter := store.Filter{}
		if clientID != "" {
			filter["client_id"] = clientID
		}
		if requestID != "" {
			filter["request_id"] = requestID
		}
		if status != "" {
			filter["status"] = status
		}
		var err error
		out, err = store.List[domain.Quote](ctx, r, domain.KindQuote, filter)
		return err
	})
	return out, err
}

// Update applies patch to an unconverted quote. Line items, when given,
// replace the current set; totals follow. Approval and rejection carry
// over to the linked request.
func (s *QuoteService) Update(ctx context.Context, id string, patch domain.QuotePatch, actor domain.ActorContext) (*domain.QuoteDetail, error) {
	var out *domain.QuoteDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindQuote, ActionUpdate}, patch, actor, func(u *Unit) error {
		q, err := loadUnlockedQuote(u, id)
		if err != nil {
			return err
		}
		prev := *q
		if patch.Status != nil {
			next, err := lifecycle.QuoteGraph.Next(q.Status, *patch.Status)
			if err != nil {
				return err
			}
			q.Status = next
			lifecycle.StampQuote(q, prev.Status, next, u.Now())
		}
		set(&q.Title, patch.Title)
		set(&q.Notes, patch.Notes)
		set(&q.TaxRate, patch.TaxRate)
		setTime(&q.ExpiresAt, patch.ExpiresAt)

		items, err := store.List[domain.QuoteLineItem](u.Context(), u.Tx(), domain.KindQuoteLineItem, store.Filter{"quote_id": id})
		if err != nil {
			return err
		}
		if patch.LineItems != nil {
			items, err = replaceLineItems(u, q.ID, items, *patch.LineItems)
			if err != nil {
				return err
			}
		}
		applyTotals(q, items)

		changes := changeset.Merge(
			changeset.Diff(&prev, patch, domain.QuoteTrackedFields),
			changeset.Diff(&prev, q, append(append([]string{}, domain.QuoteTotalsTrackedFields...), quoteStampFields...)),
		)
		touch(&q.UpdatedAt, changes, u.Now())
		desc := fmt.Sprintf("Quote %s updated", q.QuoteNumber)
		if q.Status != prev.Status {
			desc = fmt.Sprintf("Quote %s marked %s", q.QuoteNumber, q.Status)
		}
		if err := u.Save(q, changes, desc); err != nil {
			return err
		}

		if q.Status != prev.Status && q.RequestID != nil {
			if target, ok := lifecycle.RequestStatusForQuote(q.Status); ok {
				reason := fmt.Sprintf("quote %s %s", q.QuoteNumber, q.Status)
				if err := deriveRequest(u, *q.RequestID, target, reason); err != nil {
					return err
				}
			}
		}
		out, err = quoteDetail(u.Context(), u.Tx(), id)
		return err
	})
	return out, err
}

// Delete removes an unconverted quote and its line items.
func (s *QuoteService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindQuote, ActionDelete}, actor, func(u *Unit) error {
		q, err := loadUnlockedQuote(u, id)
		if err != nil {
			return err
		}
		items, err := store.List[domain.QuoteLineItem](u.Context(), u.Tx(), domain.KindQuoteLineItem, store.Filter{"quote_id": id})
		if err != nil {
			return err
		}
		for i := range items {
			if err := store.Delete(u.Context(), u.Tx(), &items[i]); err != nil {
				return fmt.Errorf("delete line item %s: %w", items[i].ID, err)
			}
		}
		summary := cascadeSummary(map[string]int{"line_items": len(items)})
		return u.Remove(q, quoteCreatedFields, summary, fmt.Sprintf("Quote %s deleted", q.QuoteNumber))
	})
}

// ConvertToJob creates a job from an approved quote and locks the quote.
// The quote's request, if still open, becomes ConvertedToJob.
func (s *QuoteService) ConvertToJob(ctx context.Context, id string, actor domain.ActorContext) (*domain.JobDetail, error) {
	var out *domain.JobDetail
	err := s.o.Execute(ctx, Op{domain.KindQuote, ActionConvert}, actor, func(u *Unit) error {
		q, err := loadUnlockedQuote(u, id)
		if err != nil {
			return err
		}
		if q.Status != domain.QuoteApproved {
			return apperrors.BusinessRule(apperrors.CodeQuoteNotApproved,
				fmt.Sprintf("quote %s is %s; only approved quotes can be converted", q.QuoteNumber, q.Status))
		}
		job, err := createJob(u, jobSeed{
			ClientID:    q.ClientID,
			QuoteID:     &q.ID,
			RequestID:   q.RequestID,
			Title:       q.Title,
			Description: q.Notes,
		})
		if err != nil {
			return err
		}

		prev := *q
		q.JobID = &job.ID
		q.UpdatedAt = u.Now()
		changes := changeset.Diff(&prev, q, []string{"job_id"})
		if err := u.Save(q, changes, fmt.Sprintf("Quote %s converted to job %s", q.QuoteNumber, job.JobNumber)); err != nil {
			return err
		}

		if q.RequestID != nil {
			req, err := load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, *q.RequestID)
			if err != nil {
				return err
			}
			if !req.Status.Terminal() {
				prevReq := *req
				req.Status = domain.RequestConvertedToJob
				req.JobID = &job.ID
				req.UpdatedAt = u.Now()
				if err := store.Update(u.Context(), u.Tx(), req); err != nil {
					return fmt.Errorf("update request %s: %w", req.ID, err)
				}
				reason := fmt.Sprintf("quote %s converted to job %s", q.QuoteNumber, job.JobNumber)
				u.Derived(domain.RefOf(req), string(prevReq.Status), string(req.Status), reason)
			}
		}
		out, err = jobDetail(u.Context(), u.Tx(), job.ID)
		return err
	})
	return out, err
}

// ExpireDue moves sent or viewed quotes whose expiry has passed to Expired.
// Each quote is expired in its own transaction as the system. It returns
// how many quotes were expired.
func (s *QuoteService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []string
	err := s.o.View(ctx, Op{domain.KindQuote, ActionExpire}, func(ctx context.Context, r store.Reader) error {
		for _, status := range []domain.QuoteStatus{domain.QuoteSent, domain.QuoteViewed} {
			quotes, err := store.List[domain.Quote](ctx, r, domain.KindQuote, store.Filter{"status": status})
			if err != nil {
				return err
			}
			for _, q := range quotes {
				if q.ExpiresAt != nil && !q.ExpiresAt.After(now) && !q.Converted() {
					due = append(due, q.ID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range due {
		changed, err := s.expire(ctx, id, now)
		if err != nil {
			logger.Warn("Quote expiry skipped", zap.String("quote_id", id), zap.Error(err))
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

// expire re-checks the quote inside the transaction and reports whether it
// actually moved to Expired. A quote that was answered, re-dated or already
// expired since the sweep listed it is left alone.
func (s *QuoteService) expire(ctx context.Context, id string, now time.Time) (bool, error) {
	actor := domain.SystemActor("quote expired")
	changed := false
	err := s.o.Execute(ctx, Op{domain.KindQuote, ActionExpire}, actor, func(u *Unit) error {
		changed = false
		q, err := loadUnlockedQuote(u, id)
		if err != nil {
			return err
		}
		if q.ExpiresAt == nil || q.ExpiresAt.After(now) {
			return nil
		}
		if q.Status != domain.QuoteSent && q.Status != domain.QuoteViewed {
			return nil
		}
		next, err := lifecycle.QuoteGraph.Next(q.Status, domain.QuoteExpired)
		if err != nil {
			return err
		}
		prev := *q
		q.Status = next
		q.UpdatedAt = u.Now()
		if err := u.Save(q, changeset.Diff(&prev, q, []string{"status"}), ""); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// loadUnlockedQuote loads a quote and rejects it once converted.
func loadUnlockedQuote(u *Unit, id string) (*domain.Quote, error) {
	q, err := load[domain.Quote](u.Context(), u.Tx(), domain.KindQuote, id)
	if err != nil {
		return nil, err
	}
	if q.Converted() {
		return nil, apperrors.BusinessRule(apperrors.CodeQuoteConvertedLocked,
			fmt.Sprintf("quote %s has been converted to a job and can no longer be changed", q.QuoteNumber)).
			WithParams(map[string]interface{}{"job_id": *q.JobID})
	}
	return q, nil
}

// replaceLineItems reconciles the stored items with incoming: matched ids
// update in place, new entries are created, missing ids are deleted. Each
// outcome is audited on the line item. Positions follow incoming order.
func replaceLineItems(u *Unit, quoteID string, existing []domain.QuoteLineItem, incoming []domain.LineItemInput) ([]domain.QuoteLineItem, error) {
	byID := make(map[string]*domain.QuoteLineItem, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	out := make([]domain.QuoteLineItem, 0, len(incoming))
	kept := make(map[string]bool, len(incoming))
	for pos, in := range incoming {
		if in.ID == nil || *in.ID == "" {
			li := newLineItem(quoteID, in, pos, u.Now())
			if err := u.Create(&li, lineItemCreatedFields, ""); err != nil {
				return nil, err
			}
			out = append(out, li)
			continue
		}

		cur, ok := byID[*in.ID]
		if !ok || kept[*in.ID] {
			return nil, apperrors.ErrEntityNotFound(string(domain.KindQuoteLineItem), *in.ID).
				WithParams(map[string]interface{}{"id": *in.ID, "quote_id": quoteID})
		}
		kept[*in.ID] = true
		patch := domain.LineItemPatch{
			Description: &in.Description,
			Quantity:    &in.Quantity,
			UnitPrice:   &in.UnitPrice,
			Position:    ptr(pos),
		}
		changes := changeset.Diff(cur, patch, domain.LineItemTrackedFields)
		cur.Description = in.Description
		cur.Quantity = in.Quantity
		cur.UnitPrice = in.UnitPrice
		cur.Position = pos
		cur.Total = money(in.Quantity.Mul(in.UnitPrice))
		touch(&cur.UpdatedAt, changes, u.Now())
		if err := u.Save(cur, changes, ""); err != nil {
			return nil, err
		}
		out = append(out, *cur)
	}

	for i := range existing {
		if kept[existing[i].ID] {
			continue
		}
		if err := u.Remove(&existing[i], lineItemCreatedFields, nil, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func newLineItem(quoteID string, in domain.LineItemInput, pos int, now time.Time) domain.QuoteLineItem {
	return domain.QuoteLineItem{
		ID:          domain.NewID(),
		QuoteID:     quoteID,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Total:       money(in.Quantity.Mul(in.UnitPrice)),
		Position:    pos,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// applyTotals recomputes subtotal, tax and total from items.
func applyTotals(q *domain.Quote, items []domain.QuoteLineItem) {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.Total)
	}
	q.Subtotal = money(subtotal)
	q.TaxAmount = money(subtotal.Mul(q.TaxRate))
	q.Total = q.Subtotal.Add(q.TaxAmount)
}

func quoteDetail(ctx context.Context, r store.Reader, id string) (*domain.QuoteDetail, error) {
	q, err := load[domain.Quote](ctx, r, domain.KindQuote, id)
	if err != nil {
		return nil, err
	}
	items, err := store.List[domain.QuoteLineItem](ctx, r, domain.KindQuoteLineItem, store.Filter{"quote_id": id})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b domain.QuoteLineItem) int { return a.Position - b.Position })
	return &domain.QuoteDetail{Quote: *q, LineItems: items}, nil
}
