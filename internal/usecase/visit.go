package usecase

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/lifecycle"
	"fieldops.io/fieldops/internal/store"
)

var visitCreatedFields = append([]string{"job_id"}, domain.VisitTrackedFields...)

// VisitService manages visits and keeps their job's status in step.
type VisitService struct {
	o *Orchestrator
}

// Create adds a visit. A Scheduled visit on an Unscheduled job schedules the job.
func (s *VisitService) Create(ctx context.Context, in domain.CreateVisitInput, actor domain.ActorContext) (*domain.Visit, error) {
	var out *domain.Visit
	err := s.o.ExecuteValidated(ctx, Op{domain.KindVisit, ActionCreate}, in, actor, func(u *Unit) error {
		job, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, in.JobID)
		if err != nil {
			return err
		}
		v := &domain.Visit{
			ID:                 domain.NewID(),
			JobID:              in.JobID,
			Title:              in.Title,
			Status:             in.Status,
			ScheduleType:       in.ScheduleType,
			ScheduledStart:     in.ScheduledStart,
			ScheduledEnd:       in.ScheduledEnd,
			ArrivalWindowStart: in.ArrivalWindowStart,
			ArrivalWindowEnd:   in.ArrivalWindowEnd,
			TechnicianIDs:      in.TechnicianIDs,
			Instructions:       in.Instructions,
			CreatedAt:          u.Now(),
			UpdatedAt:          u.Now(),
		}
		if v.Status == "" {
			v.Status = domain.VisitScheduled
		}
		if v.ScheduleType == "" {
			v.ScheduleType = defaultScheduleType(v)
		}
		if v.TechnicianIDs == nil {
			v.TechnicianIDs = []string{}
		}
		if err := lifecycle.ValidateSchedule(lifecycle.ScheduleOf(v)); err != nil {
			return err
		}
		if err := requireTechnicians(u, v.TechnicianIDs); err != nil {
			return err
		}
		if err := u.Create(v, visitCreatedFields, fmt.Sprintf("Visit added to job %s", job.JobNumber)); err != nil {
			return err
		}

		if next, changed := lifecycle.JobStatusOnVisitCreated(job.Status, v.Status); changed {
			if err := setJobStatus(u, job, next, fmt.Sprintf("visit %s created", v.ID)); err != nil {
				return err
			}
		}
		out = v
		return nil
	})
	return out, err
}

func (s *VisitService) Get(ctx context.Context, id string) (*domain.Visit, error) {
	var out *domain.Visit
	err := s.o.View(ctx, Op{domain.KindVisit, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = load[domain.Visit](ctx, r, domain.KindVisit, id)
		return err
	})
	return out, err
}

// List returns visits, narrowed by job and assigned technician when given.
func (s *VisitService) List(ctx context.Context, jobID, technicianID string) ([]domain.Visit, error) {
	var out []domain.Visit
	err := s.o.View(ctx, Op{domain.KindVisit, "list"}, func(ctx context.Context, r store.Reader) error {
		filter := store.Filter{}
		if jobID != "" {
			filter["job_id"] = jobID
		}
		if technicianID != "" {
			filter["technician_ids"] = []string{technicianID}
		}
		var err error
		out, err = store.List[domain.Visit](ctx, r, domain.KindVisit, filter)
		if err != nil {
			return err
		}
		out = sortedVisits(out)
		return nil
	})
	return out, err
}

// Update applies patch. Any status write recomputes the job's status from
// all of its visits.
func (s *VisitService) Update(ctx context.Context, id string, patch domain.VisitPatch, actor domain.ActorContext) (*domain.Visit, error) {
	var out *domain.Visit
	err := s.o.ExecuteValidated(ctx, Op{domain.KindVisit, ActionUpdate}, patch, actor, func(u *Unit) error {
		v, err := load[domain.Visit](u.Context(), u.Tx(), domain.KindVisit, id)
		if err != nil {
			return err
		}
		prev := *v
		if patch.Status != nil {
			next, err := lifecycle.VisitGraph.Next(v.Status, *patch.Status)
			if err != nil {
				return err
			}
			v.Status = next
		}
		set(&v.Title, patch.Title)
		set(&v.ScheduleType, patch.ScheduleType)
		setTime(&v.ScheduledStart, patch.ScheduledStart)
		setTime(&v.ScheduledEnd, patch.ScheduledEnd)
		setTime(&v.ArrivalWindowStart, patch.ArrivalWindowStart)
		setTime(&v.ArrivalWindowEnd, patch.ArrivalWindowEnd)
		setTime(&v.ActualStart, patch.ActualStart)
		setTime(&v.ActualEnd, patch.ActualEnd)
		set(&v.TechnicianIDs, patch.TechnicianIDs)
		set(&v.Instructions, patch.Instructions)

		if err := lifecycle.ValidateSchedule(lifecycle.ScheduleOf(v)); err != nil {
			return err
		}
		if patch.TechnicianIDs != nil {
			if err := requireTechnicians(u, v.TechnicianIDs); err != nil {
				return err
			}
		}

		changes := changeset.Diff(&prev, patch, domain.VisitTrackedFields)
		touch(&v.UpdatedAt, changes, u.Now())
		job, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, v.JobID)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Visit on job %s updated", job.JobNumber)
		if v.Status != prev.Status {
			desc = fmt.Sprintf("Visit on job %s moved to %s", job.JobNumber, v.Status)
		}
		if err := u.Save(v, changes, desc); err != nil {
			return err
		}

		if patch.Status != nil {
			if err := recomputeJob(u, job, fmt.Sprintf("visit %s status %s", v.ID, v.Status)); err != nil {
				return err
			}
		}
		out = v
		return nil
	})
	return out, err
}

// Delete removes a visit. Removing a job's last visit unschedules the job.
func (s *VisitService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindVisit, ActionDelete}, actor, func(u *Unit) error {
		v, err := load[domain.Visit](u.Context(), u.Tx(), domain.KindVisit, id)
		if err != nil {
			return err
		}
		job, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, v.JobID)
		if err != nil {
			return err
		}
		if err := u.Remove(v, visitCreatedFields, nil, fmt.Sprintf("Visit removed from job %s", job.JobNumber)); err != nil {
			return err
		}
		remaining, err := countBy(u.Context(), u.Tx(), domain.KindVisit, store.Filter{"job_id": job.ID})
		if err != nil {
			return err
		}
		if next, changed := lifecycle.JobStatusOnVisitDeleted(job.Status, remaining); changed {
			return setJobStatus(u, job, next, fmt.Sprintf("last visit %s deleted", v.ID))
		}
		return nil
	})
}

// recomputeJob derives the job status from every visit it has.
func recomputeJob(u *Unit, job *domain.Job, reason string) error {
	visits, err := store.List[domain.Visit](u.Context(), u.Tx(), domain.KindVisit, store.Filter{"job_id": job.ID})
	if err != nil {
		return err
	}
	statuses := make([]domain.VisitStatus, 0, len(visits))
	for _, v := range visits {
		statuses = append(statuses, v.Status)
	}
	return setJobStatus(u, job, lifecycle.DeriveJobStatus(job.Status, statuses), reason)
}

func requireTechnicians(u *Unit, ids []string) error {
	for _, id := range ids {
		if err := requireExists(u.Context(), u.Tx(), domain.KindTechnician, id); err != nil {
			return err
		}
	}
	return nil
}

func defaultScheduleType(v *domain.Visit) domain.ScheduleType {
	switch {
	case v.ArrivalWindowStart != nil || v.ArrivalWindowEnd != nil:
		return domain.ScheduleWindow
	case v.ScheduledStart != nil:
		return domain.ScheduleFixed
	default:
		return domain.ScheduleAnytime
	}
}
