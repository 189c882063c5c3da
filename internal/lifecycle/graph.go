// Package lifecycle holds the status rules for requests, quotes, jobs and
// visits. Everything here is pure: callers pass the current state and get
// back the target state or a validation error.
package lifecycle

import (
	"fmt"
	"strings"

	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

// Graph is a caller-facing transition table for one entity type. Statuses in
// derived may only be reached through a related-entity rule, never requested.
type Graph[S ~string] struct {
	entity  string
	valid   func(S) bool
	edges   map[S][]S
	derived map[S]bool
}

// Next validates a requested transition. Requesting the current status is
// always allowed and returns it unchanged.
func (g Graph[S]) Next(current, requested S) (S, error) {
	if !g.valid(requested) {
		return current, transitionError(g.entity, string(current), string(requested),
			fmt.Sprintf("%q is not a valid %s status", requested, g.entity))
	}
	if requested == current {
		return current, nil
	}
	if g.derived[requested] {
		return current, apperrors.New(apperrors.KindValidationFailed, apperrors.CodeStatusNotSettable,
			fmt.Sprintf("%s status %s is set automatically and cannot be requested", g.entity, requested)).
			WithParams(map[string]interface{}{"from": string(current), "to": string(requested)})
	}
	for _, allowed := range g.edges[current] {
		if allowed == requested {
			return requested, nil
		}
	}
	return current, transitionError(g.entity, string(current), string(requested),
		fmt.Sprintf("%s cannot move from %s to %s", g.entity, current, requested))
}

// Allowed lists the statuses a caller may request from current.
func (g Graph[S]) Allowed(current S) []S {
	out := make([]S, 0, len(g.edges[current]))
	out = append(out, g.edges[current]...)
	return out
}

// Terminal reports whether no caller transition leaves s.
func (g Graph[S]) Terminal(s S) bool {
	return len(g.edges[s]) == 0
}

func transitionError(entity, from, to, msg string) *apperrors.AppError {
	return apperrors.New(apperrors.KindValidationFailed, apperrors.CodeInvalidStatusTransition, msg).
		WithParams(map[string]interface{}{"entity_type": strings.ToLower(entity), "from": from, "to": to})
}
