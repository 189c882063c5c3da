package domain

// RequestStatus is the lifecycle state of a Request.
type RequestStatus string

const (
	RequestNew            RequestStatus = "New"
	RequestReviewing      RequestStatus = "Reviewing"
	RequestNeedsQuote     RequestStatus = "NeedsQuote"
	RequestQuoted         RequestStatus = "Quoted"
	RequestQuoteApproved  RequestStatus = "QuoteApproved"
	RequestQuoteRejected  RequestStatus = "QuoteRejected"
	RequestConvertedToJob RequestStatus = "ConvertedToJob"
	RequestCancelled      RequestStatus = "Cancelled"
)

// RequestStatuses lists the Request enumeration.
var RequestStatuses = []RequestStatus{
	RequestNew, RequestReviewing, RequestNeedsQuote, RequestQuoted,
	RequestQuoteApproved, RequestQuoteRejected, RequestConvertedToJob, RequestCancelled,
}

func (s RequestStatus) Valid() bool { return contains(RequestStatuses, s) }

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestConvertedToJob || s == RequestCancelled
}

// QuoteStatus is the lifecycle state of a Quote.
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "Draft"
	QuoteSent      QuoteStatus = "Sent"
	QuoteViewed    QuoteStatus = "Viewed"
	QuoteApproved  QuoteStatus = "Approved"
	QuoteRejected  QuoteStatus = "Rejected"
	QuoteRevised   QuoteStatus = "Revised"
	QuoteExpired   QuoteStatus = "Expired"
	QuoteCancelled QuoteStatus = "Cancelled"
)

// QuoteStatuses lists the Quote enumeration.
var QuoteStatuses = []QuoteStatus{
	QuoteDraft, QuoteSent, QuoteViewed, QuoteApproved,
	QuoteRejected, QuoteRevised, QuoteExpired, QuoteCancelled,
}

func (s QuoteStatus) Valid() bool { return contains(QuoteStatuses, s) }

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobUnscheduled JobStatus = "Unscheduled"
	JobScheduled   JobStatus = "Scheduled"
	JobInProgress  JobStatus = "InProgress"
	JobCompleted   JobStatus = "Completed"
	JobCancelled   JobStatus = "Cancelled"
)

// JobStatuses lists the Job enumeration.
var JobStatuses = []JobStatus{JobUnscheduled, JobScheduled, JobInProgress, JobCompleted, JobCancelled}

func (s JobStatus) Valid() bool { return contains(JobStatuses, s) }

// VisitStatus is the lifecycle state of a Visit.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "Scheduled"
	VisitInProgress VisitStatus = "InProgress"
	VisitCompleted  VisitStatus = "Completed"
	VisitCancelled  VisitStatus = "Cancelled"
)

// VisitStatuses lists the Visit enumeration.
var VisitStatuses = []VisitStatus{VisitScheduled, VisitInProgress, VisitCompleted, VisitCancelled}

func (s VisitStatus) Valid() bool { return contains(VisitStatuses, s) }

// ScheduleType controls which timing fields a Visit must carry.
type ScheduleType string

const (
	ScheduleFixed   ScheduleType = "fixed"
	ScheduleWindow  ScheduleType = "window"
	ScheduleAnytime ScheduleType = "anytime"
)

func contains[S ~string](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
