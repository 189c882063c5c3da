package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

// Envelope is the success form of every response body.
type Envelope struct {
	Err     string `json:"err"`
	Item    any    `json:"item,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListEnvelope carries a collection.
type ListEnvelope struct {
	Err   string `json:"err"`
	Items any    `json:"items"`
	Count int    `json:"count"`
}

func respond(c *gin.Context, status int, item any, message string) {
	c.JSON(status, Envelope{Item: item, Message: message})
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListEnvelope{Items: items, Count: len(items)})
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// bindJSON decodes the request body into dst. Rule validation happens in
// the orchestrator; this only rejects malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperrors.Validation(apperrors.FieldError{
			Field:   "body",
			Code:    "json",
			Message: "request body is not valid JSON: " + err.Error(),
		}))
		return false
	}
	return true
}

// actorOf returns the authenticated actor for the request.
func actorOf(c *gin.Context) domain.ActorContext {
	return middleware.ActorFrom(c.Request.Context())
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		fail(c, apperrors.Validation(apperrors.FieldError{
			Field: name, Code: "boolean", Message: name + " must be true or false",
		}))
		return false, false
	}
	return v, true
}

// queryLimit parses the optional limit parameter; 0 means the default page size.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		fail(c, apperrors.Validation(apperrors.FieldError{
			Field: "limit", Code: "gte", Message: "limit must be a non-negative integer",
		}))
		return 0, false
	}
	return domain.NormalizedLimit(n), true
}

// queryStatus parses an optional status filter against its enumeration.
func queryStatus[S ~string](c *gin.Context, valid func(S) bool) (S, bool) {
	s := S(c.Query("status"))
	if s == "" || valid(s) {
		return s, true
	}
	fail(c, apperrors.Validation(apperrors.FieldError{
		Field: "status", Code: "oneof", Message: "status " + strconv.Quote(string(s)) + " is not a known status",
	}))
	return "", false
}
