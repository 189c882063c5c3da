package domain

import "time"

// Request is an inbound work request from a client. Its status moves to
// Quoted, QuoteApproved and QuoteRejected as linked quotes change, and to
// ConvertedToJob when work is created from it.
type Request struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Source        string        `json:"source,omitempty"`
	Priority      string        `json:"priority,omitempty"`
	Status        RequestStatus `json:"status"`
	RequiresQuote bool          `json:"requires_quote"`
	JobID         *string       `json:"job_id,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (r *Request) EntityKind() Kind { return KindRequest }
func (r *Request) EntityID() string { return r.ID }

// RequestDetail is a Request with its quotes.
type RequestDetail struct {
	Request
	Quotes []Quote `json:"quotes"`
}

type CreateRequestInput struct {
	ClientID      string `json:"client_id" validate:"required"`
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	Source        string `json:"source" validate:"omitempty,oneof=phone email web walk_in"`
	Priority      string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	RequiresQuote bool   `json:"requires_quote"`
}

type RequestPatch struct {
	Title         *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string        `json:"description" validate:"omitempty,max=5000"`
	Source        *string        `json:"source" validate:"omitempty,oneof=phone email web walk_in"`
	Priority      *string        `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	RequiresQuote *bool          `json:"requires_quote"`
	Status        *RequestStatus `json:"status" validate:"omitempty,oneof=New Reviewing NeedsQuote Quoted QuoteApproved QuoteRejected ConvertedToJob Cancelled"`
}

var RequestTrackedFields = []string{"title", "description", "source", "priority", "requires_quote", "status"}
