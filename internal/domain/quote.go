package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a priced proposal for a client, optionally answering a Request.
// A quote with a JobID has been converted and is locked.
type Quote struct {
	ID          string          `json:"id"`
	QuoteNumber string          `json:"quote_number"`
	ClientID    string          `json:"client_id"`
	RequestID   *string         `json:"request_id,omitempty"`
	JobID       *string         `json:"job_id,omitempty"`
	Title       string          `json:"title"`
	Notes       string          `json:"notes,omitempty"`
	Status      QuoteStatus     `json:"status"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	ViewedAt    *time.Time      `json:"viewed_at,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	RejectedAt  *time.Time      `json:"rejected_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (q *Quote) EntityKind() Kind { return KindQuote }
func (q *Quote) EntityID() string { return q.ID }

// Converted reports whether a job has been created from the quote.
func (q *Quote) Converted() bool { return q.JobID != nil }

// QuoteLineItem is one priced line on a Quote.
type QuoteLineItem struct {
	ID          string          `json:"id"`
	QuoteID     string          `json:"quote_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Position    int             `json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (li *QuoteLineItem) EntityKind() Kind { return KindQuoteLineItem }
func (li *QuoteLineItem) EntityID() string { return li.ID }

// QuoteDetail is a Quote with its ordered line items.
type QuoteDetail struct {
	Quote
	LineItems []QuoteLineItem `json:"line_items"`
}

// LineItemInput is an incoming line item. Items with an ID update the
// existing line in place; items without one are created.
type LineItemInput struct {
	ID          *string         `json:"id"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type CreateQuoteInput struct {
	ClientID  string          `json:"client_id" validate:"required"`
	RequestID *string         `json:"request_id"`
	Title     string          `json:"title" validate:"required,max=200"`
	Notes     string          `json:"notes" validate:"max=5000"`
	TaxRate   decimal.Decimal `json:"tax_rate" validate:"gte=0,lte=1"`
	ExpiresAt *time.Time      `json:"expires_at"`
	LineItems []LineItemInput `json:"line_items" validate:"dive"`
}

// QuotePatch lists the updatable Quote fields. LineItems, when present,
// replaces the line item set: matched ids update, new entries create,
// missing ids delete.
type QuotePatch struct {
	Title     *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Notes     *string          `json:"notes" validate:"omitempty,max=5000"`
	TaxRate   *decimal.Decimal `json:"tax_rate" validate:"omitempty,gte=0,lte=1"`
	ExpiresAt *time.Time       `json:"expires_at"`
	Status    *QuoteStatus     `json:"status" validate:"omitempty,oneof=Draft Sent Viewed Approved Rejected Revised Expired Cancelled"`
	LineItems *[]LineItemInput `json:"line_items" validate:"omitempty,dive"`
}

var QuoteTrackedFields = []string{"title", "notes", "tax_rate", "expires_at", "status"}

// QuoteTotalsTrackedFields are diffed when line items change the totals.
var QuoteTotalsTrackedFields = []string{"subtotal", "tax_amount", "total"}

// QuoteTotalsPatch carries recomputed totals into the change-set.
type QuoteTotalsPatch struct {
	Subtotal  *decimal.Decimal `json:"subtotal"`
	TaxAmount *decimal.Decimal `json:"tax_amount"`
	Total     *decimal.Decimal `json:"total"`
}

type LineItemPatch struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Position    *int             `json:"position"`
}

var LineItemTrackedFields = []string{"description", "quantity", "unit_price", "position"}
