package usecase

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/lifecycle"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/store"
)

// requestLinkFields extends the tracked set for conversions.
var requestLinkFields = append(append([]string{}, domain.RequestTrackedFields...), "job_id", "cancelled_at")

// RequestService manages inbound work requests.
type RequestService struct {
	o *Orchestrator
}

func (s *RequestService) Create(ctx context.Context, in domain.CreateRequestInput, actor domain.ActorContext) (*domain.RequestDetail, error) {
	var out *domain.RequestDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindRequest, ActionCreate}, in, actor, func(u *Unit) error {
		if err := requireExists(u.Context(), u.Tx(), domain.KindClient, in.ClientID); err != nil {
			return err
		}
		r := &domain.Request{
			ID:            domain.NewID(),
			ClientID:      in.ClientID,
			Title:         in.Title,
			Description:   in.Description,
			Source:        in.Source,
			Priority:      in.Priority,
			Status:        domain.RequestNew,
			RequiresQuote: in.RequiresQuote,
			CreatedAt:     u.Now(),
			UpdatedAt:     u.Now(),
		}
		if err := u.Create(r, domain.RequestTrackedFields, fmt.Sprintf("Request %q received", r.Title)); err != nil {
			return err
		}
		var err error
		out, err = requestDetail(u.Context(), u.Tx(), r.ID)
		return err
	})
	return out, err
}

func (s *RequestService) Get(ctx context.Context, id string) (*domain.RequestDetail, error) {
	var out *domain.RequestDetail
	err := s.o.View(ctx, Op{domain.KindRequest, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = requestDetail(ctx, r, id)
		return err
	})
	return out, err
}

// List returns requests, narrowed by client and status when given.
func (s *RequestService) List(ctx context.Context, clientID string, status domain.RequestStatus) ([]domain.Request, error) {
	var out []domain.Request
	err := s.o.View(ctx, Op{domain.KindRequest, "list"}, func(ctx context.Context, r store.Reader) error {
		filter := store.Filter{}
		if clientID != "" {
			filter["client_id"] = clientID
		}
		if status != "" {
			filter["status"] = status
		}
		var err error
		out, err = store.List[domain.Request](ctx, r, domain.KindRequest, filter)
		return err
	})
	return out, err
}

// Update applies patch. A status change must follow the request graph;
// quote-driven statuses cannot be requested.
func (s *RequestService) Update(ctx context.Context, id string, patch domain.RequestPatch, actor domain.ActorContext) (*domain.RequestDetail, error) {
	var out *domain.RequestDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindRequest, ActionUpdate}, patch, actor, func(u *Unit) error {
		r, err := load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, id)
		if err != nil {
			return err
		}
		prev := *r
		if patch.Status != nil {
			next, err := lifecycle.RequestGraph.Next(r.Status, *patch.Status)
			if err != nil {
				return err
			}
			r.Status = next
			lifecycle.StampRequest(r, prev.Status, next, u.Now())
		}
		set(&r.Title, patch.Title)
		set(&r.Description, patch.Description)
		set(&r.Source, patch.Source)
		set(&r.Priority, patch.Priority)
		set(&r.RequiresQuote, patch.RequiresQuote)

		changes := changeset.Merge(
			changeset.Diff(&prev, patch, domain.RequestTrackedFields),
			changeset.Diff(&prev, r, []string{"cancelled_at"}),
		)
		touch(&r.UpdatedAt, changes, u.Now())
		desc := fmt.Sprintf("Request %q updated", r.Title)
		if r.Status != prev.Status {
			desc = fmt.Sprintf("Request %q moved to %s", r.Title, r.Status)
		}
		if err := u.Save(r, changes, desc); err != nil {
			return err
		}
		out, err = requestDetail(u.Context(), u.Tx(), id)
		return err
	})
	return out, err
}

// Delete removes a request that has neither quotes nor a job.
func (s *RequestService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindRequest, ActionDelete}, actor, func(u *Unit) error {
		r, err := load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, id)
		if err != nil {
			return err
		}
		if r.Status == domain.RequestConvertedToJob || r.JobID != nil {
			return apperrors.BusinessRule(apperrors.CodeRequestConverted,
				"cannot delete a request that has been converted to a job")
		}
		n, err := countBy(u.Context(), u.Tx(), domain.KindQuote, store.Filter{"request_id": id})
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.BusinessRule(apperrors.CodeRequestHasQuotes,
				"cannot delete a request with quotes").
				WithParams(map[string]interface{}{"quotes": n})
		}
		return u.Remove(r, domain.RequestTrackedFields, nil, fmt.Sprintf("Request %q deleted", r.Title))
	})
}

// ConvertToJob creates a job directly from a request that does not need a
// quote. Requests that need one are converted through their approved quote.
func (s *RequestService) ConvertToJob(ctx context.Context, id string, actor domain.ActorContext) (*domain.JobDetail, error) {
	var out *domain.JobDetail
	err := s.o.Execute(ctx, Op{domain.KindRequest, ActionConvert}, actor, func(u *Unit) error {
		r, err := load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, id)
		if err != nil {
			return err
		}
		if err := convertible(r); err != nil {
			return err
		}
		if r.RequiresQuote {
			return apperrors.BusinessRule(apperrors.CodeQuoteNotApproved,
				"request requires a quote; convert its approved quote instead")
		}

		job, err := createJob(u, jobSeed{
			ClientID:    r.ClientID,
			RequestID:   &r.ID,
			Title:       r.Title,
			Description: r.Description,
			Priority:    r.Priority,
		})
		if err != nil {
			return err
		}

		prev := *r
		r.Status = domain.RequestConvertedToJob
		r.JobID = &job.ID
		r.UpdatedAt = u.Now()
		changes := changeset.Diff(&prev, r, requestLinkFields)
		if err := u.Save(r, changes, fmt.Sprintf("Request %q converted to job %s", r.Title, job.JobNumber)); err != nil {
			return err
		}
		out, err = jobDetail(u.Context(), u.Tx(), job.ID)
		return err
	})
	return out, err
}

// convertible rejects requests that are already closed.
func convertible(r *domain.Request) error {
	switch {
	case r.Status == domain.RequestConvertedToJob || r.JobID != nil:
		return apperrors.BusinessRule(apperrors.CodeRequestConverted, "request has already been converted to a job")
	case r.Status == domain.RequestCancelled:
		return apperrors.BusinessRule(apperrors.CodeRequestClosed, "request is cancelled")
	}
	return nil
}

// deriveRequest moves a request to target because of a quote change.
// Terminal requests keep their status.
func deriveRequest(u *Unit, requestID string, target domain.RequestStatus, reason string) error {
	r, err := load[domain.Request](u.Context(), u.Tx(), domain.KindRequest, requestID)
	if err != nil {
		return err
	}
	next, changed := lifecycle.DeriveRequestStatus(r.Status, target)
	if !changed {
		return nil
	}
	return applyDerivedRequest(u, r, next, reason)
}

func applyDerivedRequest(u *Unit, r *domain.Request, next domain.RequestStatus, reason string) error {
	prev := r.Status
	r.Status = next
	r.UpdatedAt = u.Now()
	if err := store.Update(u.Context(), u.Tx(), r); err != nil {
		return fmt.Errorf("update request %s status: %w", r.ID, err)
	}
	u.Derived(domain.RefOf(r), string(prev), string(next), reason)
	return nil
}

func requestDetail(ctx context.Context, r store.Reader, id string) (*domain.RequestDetail, error) {
	req, err := load[domain.Request](ctx, r, domain.KindRequest, id)
	if err != nil {
		return nil, err
	}
	quotes, err := store.List[domain.Quote](ctx, r, domain.KindQuote, store.Filter{"request_id": id})
	if err != nil {
		return nil, err
	}
	return &domain.RequestDetail{Request: *req, Quotes: quotes}, nil
}
