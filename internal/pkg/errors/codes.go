package errors

import "strings"

// Error code constants.
// Codes are stable identifiers; messages are English and may change.

// Validation error codes.
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeStatusNotSettable       = "STATUS_NOT_SETTABLE"
	CodeInvalidSchedule         = "INVALID_SCHEDULE"
)

// Business-rule error codes.
const (
	CodeQuoteConvertedLocked = "QUOTE_CONVERTED_LOCKED"
	CodeQuoteNotApproved     = "QUOTE_NOT_APPROVED"
	CodeRequestHasQuotes     = "REQUEST_HAS_QUOTES"
	CodeRequestConverted     = "REQUEST_CONVERTED"
	CodeRequestClosed        = "REQUEST_CLOSED"
	CodeClientHasWork        = "CLIENT_HAS_WORK"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeActorAmbiguous       = "ACTOR_AMBIGUOUS"
	CodeRelationMismatch     = "RELATION_MISMATCH"
)

// Conflict error codes.
const (
	CodeTechnicianEmailTaken = "TECHNICIAN_EMAIL_TAKEN"
	CodeInventorySKUTaken    = "INVENTORY_SKU_TAKEN"
	CodeDuplicateRecord      = "DUPLICATE_RECORD"
)

// Internal error codes.
const (
	CodeInternal = "INTERNAL_ERROR"
)

// Convenience constructors using predefined codes.

// ErrEntityNotFound creates a not-found error specific to an entity type,
// e.g. ErrEntityNotFound("quote_line_item") has code QUOTE_LINE_ITEM_NOT_FOUND.
func ErrEntityNotFound(entityType, id string) *AppError {
	label := strings.ReplaceAll(entityType, "_", " ")
	return NotFound(strings.ToUpper(entityType)+"_NOT_FOUND", label+" not found").
		WithParams(map[string]interface{}{"id": id})
}

// ErrInternalFailure creates the generic failure returned at the orchestrator boundary.
func ErrInternalFailure(err error) *AppError {
	return Wrap(err, KindInternal, CodeInternal, "an internal error occurred")
}
