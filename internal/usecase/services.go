package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/lifecycle"
	"fieldops.io/fieldops/internal/store"
)

// Services bundles the per-entity operations sharing one Orchestrator.
type Services struct {
	Orchestrator *Orchestrator
	Clients      *ClientService
	Contacts     *ContactService
	Technicians  *TechnicianService
	Requests     *RequestService
	Quotes       *QuoteService
	Jobs         *JobService
	Visits       *VisitService
	Notes        *NoteService
	Inventory    *InventoryService
}

// NewServices wires every entity service to o.
func NewServices(o *Orchestrator) *Services {
	return &Services{
		Orchestrator: o,
		Clients:      &ClientService{o: o},
		Contacts:     &ContactService{o: o},
		Technicians:  &TechnicianService{o: o},
		Requests:     &RequestService{o: o},
		Quotes:       &QuoteService{o: o},
		Jobs:         &JobService{o: o},
		Visits:       &VisitService{o: o},
		Notes:        &NoteService{o: o},
		Inventory:    &InventoryService{o: o},
	}
}

// set copies *v into dst when v is present.
func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// setTime copies a present timestamp into a nullable field.
func setTime(dst **time.Time, v *time.Time) {
	if v != nil {
		t := *v
		*dst = &t
	}
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// nextNumber allocates the next PREFIX-NNNN value of field for kind.
func nextNumber(ctx context.Context, tx store.Tx, kind domain.Kind, field, prefix string) (string, error) {
	last, err := tx.LastSequence(ctx, kind, field)
	if err != nil {
		return "", fmt.Errorf("read last %s: %w", field, err)
	}
	return lifecycle.NextSequence(prefix, last)
}

func countBy(ctx context.Context, r store.Reader, kind domain.Kind, filter store.Filter) (int, error) {
	raws, err := r.List(ctx, kind, filter)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", kind, err)
	}
	return len(raws), nil
}

// cascadeSummary records how many children of each kind a delete removed.
func cascadeSummary(counts map[string]int) domain.ChangeRecord {
	out := domain.ChangeRecord{}
	for name, n := range counts {
		out[name] = domain.Change{Old: n, New: 0}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// touch stamps updatedAt when the mutation changed anything.
func touch(updatedAt *time.Time, changes domain.ChangeRecord, now time.Time) {
	if len(changes) > 0 {
		*updatedAt = now
	}
}

func sortedVisits(vs []domain.Visit) []domain.Visit {
	slices.SortStableFunc(vs, func(a, b domain.Visit) int {
		ta, tb := a.ScheduledStart, b.ScheduledStart
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return 1
		case tb == nil:
			return -1
		}
		return ta.Compare(*tb)
	})
	return vs
}
