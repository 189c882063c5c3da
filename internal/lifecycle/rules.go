package lifecycle

import (
	"time"

	"fieldops.io/fieldops/internal/domain"
)

// RequestGraph governs caller status writes on requests. Cancelled is
// reachable from every non-terminal state.
var RequestGraph = Graph[domain.RequestStatus]{
	entity: "request",
	valid:  domain.RequestStatus.Valid,
	edges: map[domain.RequestStatus][]domain.RequestStatus{
		domain.RequestNew:           {domain.RequestReviewing, domain.RequestNeedsQuote, domain.RequestCancelled},
		domain.RequestReviewing:     {domain.RequestNew, domain.RequestNeedsQuote, domain.RequestCancelled},
		domain.RequestNeedsQuote:    {domain.RequestReviewing, domain.RequestCancelled},
		domain.RequestQuoted:        {domain.RequestCancelled},
		domain.RequestQuoteApproved: {domain.RequestCancelled},
		domain.RequestQuoteRejected: {domain.RequestNeedsQuote, domain.RequestCancelled},
	},
	derived: map[domain.RequestStatus]bool{
		domain.RequestQuoted:         true,
		domain.RequestQuoteApproved:  true,
		domain.RequestQuoteRejected:  true,
		domain.RequestConvertedToJob: true,
	},
}

// QuoteGraph governs caller status writes on quotes.
var QuoteGraph = Graph[domain.QuoteStatus]{
	entity: "quote",
	valid:  domain.QuoteStatus.Valid,
	edges: map[domain.QuoteStatus][]domain.QuoteStatus{
		domain.QuoteDraft:    {domain.QuoteSent, domain.QuoteViewed, domain.QuoteApproved, domain.QuoteRejected, domain.QuoteCancelled},
		domain.QuoteSent:     {domain.QuoteViewed, domain.QuoteApproved, domain.QuoteRejected, domain.QuoteRevised, domain.QuoteExpired, domain.QuoteCancelled},
		domain.QuoteViewed:   {domain.QuoteApproved, domain.QuoteRejected, domain.QuoteRevised, domain.QuoteExpired, domain.QuoteCancelled},
		domain.QuoteRevised:  {domain.QuoteDraft, domain.QuoteSent, domain.QuoteCancelled},
		domain.QuoteApproved: {domain.QuoteCancelled},
		domain.QuoteRejected: {domain.QuoteRevised},
		domain.QuoteExpired:  {domain.QuoteRevised},
	},
}

// JobGraph governs caller status writes on jobs without visits.
var JobGraph = Graph[domain.JobStatus]{
	entity: "job",
	valid:  domain.JobStatus.Valid,
	edges: map[domain.JobStatus][]domain.JobStatus{
		domain.JobUnscheduled: {domain.JobScheduled, domain.JobInProgress, domain.JobCompleted, domain.JobCancelled},
		domain.JobScheduled:   {domain.JobUnscheduled, domain.JobInProgress, domain.JobCompleted, domain.JobCancelled},
		domain.JobInProgress:  {domain.JobScheduled, domain.JobCompleted, domain.JobCancelled},
	},
}

// JobWithVisitsGraph applies once a job has visits: its status follows
// them, so only cancellation may be requested.
var JobWithVisitsGraph = Graph[domain.JobStatus]{
	entity: "job",
	valid:  domain.JobStatus.Valid,
	edges: map[domain.JobStatus][]domain.JobStatus{
		domain.JobUnscheduled: {domain.JobCancelled},
		domain.JobScheduled:   {domain.JobCancelled},
		domain.JobInProgress:  {domain.JobCancelled},
		domain.JobCompleted:   {domain.JobCancelled},
	},
	derived: map[domain.JobStatus]bool{
		domain.JobUnscheduled: true,
		domain.JobScheduled:   true,
		domain.JobInProgress:  true,
		domain.JobCompleted:   true,
	},
}

// VisitGraph governs visit status writes.
var VisitGraph = Graph[domain.VisitStatus]{
	entity: "visit",
	valid:  domain.VisitStatus.Valid,
	edges: map[domain.VisitStatus][]domain.VisitStatus{
		domain.VisitScheduled:  {domain.VisitInProgress, domain.VisitCompleted, domain.VisitCancelled},
		domain.VisitInProgress: {domain.VisitCompleted, domain.VisitCancelled},
	},
}

// NextJobStatus picks the graph by whether the job has visits.
func NextJobStatus(current, requested domain.JobStatus, hasVisits bool) (domain.JobStatus, error) {
	if hasVisits {
		return JobWithVisitsGraph.Next(current, requested)
	}
	return JobGraph.Next(current, requested)
}

// StampQuote sets the first-time timestamp for entering next. A stamp that
// is already set is kept, and a self-transition never stamps.
func StampQuote(q *domain.Quote, prev, next domain.QuoteStatus, now time.Time) {
	if prev == next {
		return
	}
	var slot **time.Time
	switch next {
	case domain.QuoteSent:
		slot = &q.SentAt
	case domain.QuoteViewed:
		slot = &q.ViewedAt
	case domain.QuoteApproved:
		slot = &q.ApprovedAt
	case domain.QuoteRejected:
		slot = &q.RejectedAt
	default:
		return
	}
	if *slot == nil {
		t := now
		*slot = &t
	}
}

// StampRequest records cancelled_at the first time a request is cancelled.
func StampRequest(r *domain.Request, prev, next domain.RequestStatus, now time.Time) {
	if prev == next || next != domain.RequestCancelled || r.CancelledAt != nil {
		return
	}
	t := now
	r.CancelledAt = &t
}

// StampJob records completed_at when a job first completes.
func StampJob(j *domain.Job, prev, next domain.JobStatus, now time.Time) {
	if prev == next || next != domain.JobCompleted || j.CompletedAt != nil {
		return
	}
	t := now
	j.CompletedAt = &t
}

// RequestStatusForQuote returns the request status implied by a quote
// status, if any.
func RequestStatusForQuote(qs domain.QuoteStatus) (domain.RequestStatus, bool) {
	switch qs {
	case domain.QuoteApproved:
		return domain.RequestQuoteApproved, true
	case domain.QuoteRejected:
		return domain.RequestQuoteRejected, true
	}
	return "", false
}

// DeriveRequestStatus applies a related-quote driven status to a request.
// Terminal requests are left alone. It reports whether the status changes.
func DeriveRequestStatus(current, target domain.RequestStatus) (domain.RequestStatus, bool) {
	if current.Terminal() || current == target {
		return current, false
	}
	return target, true
}

// RequestStatusOnQuoteCreated is the status a request takes when a quote is
// created for it.
func RequestStatusOnQuoteCreated(current domain.RequestStatus) (domain.RequestStatus, bool) {
	switch current {
	case domain.RequestNew, domain.RequestReviewing, domain.RequestNeedsQuote, domain.RequestQuoteRejected:
		return domain.RequestQuoted, true
	}
	return current, false
}

// DeriveJobStatus computes a job's status from the statuses of all its
// visits: all Completed gives Completed; otherwise any InProgress gives
// InProgress; otherwise any Scheduled gives Scheduled; otherwise current.
// A cancelled job stays cancelled whatever its visits do.
func DeriveJobStatus(current domain.JobStatus, visits []domain.VisitStatus) domain.JobStatus {
	if len(visits) == 0 || current == domain.JobCancelled {
		return current
	}
	allCompleted := true
	anyInProgress, anyScheduled := false, false
	for _, s := range visits {
		switch s {
		case domain.VisitCompleted:
		case domain.VisitInProgress:
			anyInProgress = true
		case domain.VisitScheduled:
			anyScheduled = true
		}
		if s != domain.VisitCompleted {
			allCompleted = false
		}
	}
	switch {
	case allCompleted:
		return domain.JobCompleted
	case anyInProgress:
		return domain.JobInProgress
	case anyScheduled:
		return domain.JobScheduled
	default:
		return current
	}
}

// JobStatusOnVisitCreated returns the job status after a visit is added.
// Only an unscheduled job moves, so a cancelled job is left alone.
func JobStatusOnVisitCreated(job domain.JobStatus, visit domain.VisitStatus) (domain.JobStatus, bool) {
	if visit == domain.VisitScheduled && job == domain.JobUnscheduled {
		return domain.JobScheduled, true
	}
	return job, false
}

// JobStatusOnVisitDeleted returns the job status after a visit is removed;
// remaining counts the job's visits left after the deletion.
func JobStatusOnVisitDeleted(job domain.JobStatus, remaining int) (domain.JobStatus, bool) {
	if remaining == 0 && job != domain.JobUnscheduled && job != domain.JobCancelled {
		return domain.JobUnscheduled, true
	}
	return job, false
}
