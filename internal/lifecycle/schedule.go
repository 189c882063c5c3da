package lifecycle

import (
	"time"

	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

// Schedule is the timing portion of a visit.
type Schedule struct {
	Type               domain.ScheduleType
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
	ArrivalWindowStart *time.Time
	ArrivalWindowEnd   *time.Time
	ActualStart        *time.Time
	ActualEnd          *time.Time
}

// ScheduleOf extracts the schedule from a visit.
func ScheduleOf(v *domain.Visit) Schedule {
	return Schedule{
		Type:               v.ScheduleType,
		ScheduledStart:     v.ScheduledStart,
		ScheduledEnd:       v.ScheduledEnd,
		ArrivalWindowStart: v.ArrivalWindowStart,
		ArrivalWindowEnd:   v.ArrivalWindowEnd,
		ActualStart:        v.ActualStart,
		ActualEnd:          v.ActualEnd,
	}
}

// ValidateSchedule checks that every start/end pair with both bounds has
// end after start, and that a window schedule carries both window bounds.
// All failures are reported together.
func ValidateSchedule(s Schedule) error {
	var fields []apperrors.FieldError
	pair := func(startField, endField string, start, end *time.Time) {
		if start != nil && end != nil && !end.After(*start) {
			fields = append(fields, apperrors.FieldError{
				Field:   endField,
				Code:    "gtfield",
				Message: endField + " must be after " + startField,
			})
		}
	}
	pair("scheduled_start", "scheduled_end", s.ScheduledStart, s.ScheduledEnd)
	pair("arrival_window_start", "arrival_window_end", s.ArrivalWindowStart, s.ArrivalWindowEnd)
	pair("actual_start", "actual_end", s.ActualStart, s.ActualEnd)

	if s.Type == domain.ScheduleWindow {
		if s.ArrivalWindowStart == nil {
			fields = append(fields, apperrors.FieldError{Field: "arrival_window_start", Code: "required",
				Message: "arrival_window_start is required for a window schedule"})
		}
		if s.ArrivalWindowEnd == nil {
			fields = append(fields, apperrors.FieldError{Field: "arrival_window_end", Code: "required",
				Message: "arrival_window_end is required for a window schedule"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation(fields...)
}
