package usecase

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/lifecycle"
	"fieldops.io/fieldops/internal/store"
)

var jobCreatedFields = append([]string{"job_number", "client_id", "quote_id", "request_id"}, domain.JobTrackedFields...)

// JobService manages jobs.
type JobService struct {
	o *Orchestrator
}

type jobSeed struct {
	ClientID    string
	QuoteID     *string
	RequestID   *string
	Title       string
	Description string
	Priority    string
}

// createJob numbers and inserts a new Unscheduled job.
func createJob(u *Unit, seed jobSeed) (*domain.Job, error) {
	number, err := nextNumber(u.Context(), u.Tx(), domain.KindJob, "job_number", lifecycle.JobPrefix)
	if err != nil {
		return nil, err
	}
	j := &domain.Job{
		ID:          domain.NewID(),
		JobNumber:   number,
		ClientID:    seed.ClientID,
		QuoteID:     seed.QuoteID,
		RequestID:   seed.RequestID,
		Title:       seed.Title,
		Description: seed.Description,
		Priority:    seed.Priority,
		Status:      domain.JobUnscheduled,
		CreatedAt:   u.Now(),
		UpdatedAt:   u.Now(),
	}
	if err := u.Create(j, jobCreatedFields, fmt.Sprintf("Job %s created", j.JobNumber)); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JobService) Create(ctx context.Context, in domain.CreateJobInput, actor domain.ActorContext) (*domain.JobDetail, error) {
	var out *domain.JobDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindJob, ActionCreate}, in, actor, func(u *Unit) error {
		if err := requireExists(u.Context(), u.Tx(), domain.KindClient, in.ClientID); err != nil {
			return err
		}
		j, err := createJob(u, jobSeed{
			ClientID:    in.ClientID,
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
		})
		if err != nil {
			return err
		}
		out, err = jobDetail(u.Context(), u.Tx(), j.ID)
		return err
	})
	return out, err
}

func (s *JobService) Get(ctx context.Context, id string) (*domain.JobDetail, error) {
	var out *domain.JobDetail
	err := s.o.View(ctx, Op{domain.KindJob, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = jobDetail(ctx, r, id)
		return err
	})
	return out, err
}

// List returns jobs, narrowed by client and status when given.
func (s *JobService) List(ctx context.Context, clientID string, status domain.JobStatus) ([]domain.Job, error) {
	var out []domain.Job
	err := s.o.View(ctx, Op{domain.KindJob, "list"}, func(ctx context.Context, r store.Reader) error {
		filter := store.Filter{}
		if clientID != "" {
			filter["client_id"] = clientID
		}
		if status != "" {
			filter["status"] = status
		}
		var err error
		out, err = store.List[domain.Job](ctx, r, domain.KindJob, filter)
		return err
	})
	return out, err
}

// Update applies patch. While a job has visits its status follows them and
// a caller may only cancel it.
func (s *JobService) Update(ctx context.Context, id string, patch domain.JobPatch, actor domain.ActorContext) (*domain.JobDetail, error) {
	var out *domain.JobDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindJob, ActionUpdate}, patch, actor, func(u *Unit) error {
		j, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, id)
		if err != nil {
			return err
		}
		prev := *j
		if patch.Status != nil {
			visits, err := countBy(u.Context(), u.Tx(), domain.KindVisit, store.Filter{"job_id": id})
			if err != nil {
				return err
			}
			next, err := lifecycle.NextJobStatus(j.Status, *patch.Status, visits > 0)
			if err != nil {
				return err
			}
			j.Status = next
			lifecycle.StampJob(j, prev.Status, next, u.Now())
		}
		set(&j.Title, patch.Title)
		set(&j.Description, patch.Description)
		set(&j.Priority, patch.Priority)

		changes := changeset.Merge(
			changeset.Diff(&prev, patch, domain.JobTrackedFields),
			changeset.Diff(&prev, j, []string{"completed_at"}),
		)
		touch(&j.UpdatedAt, changes, u.Now())
		desc := fmt.Sprintf("Job %s updated", j.JobNumber)
		if j.Status != prev.Status {
			desc = fmt.Sprintf("Job %s moved to %s", j.JobNumber, j.Status)
		}
		if err := u.Save(j, changes, desc); err != nil {
			return err
		}
		out, err = jobDetail(u.Context(), u.Tx(), id)
		return err
	})
	return out, err
}

// Delete removes a job with its visits and notes. The cascade is recorded
// as one deleted entry on the job carrying the child counts.
func (s *JobService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindJob, ActionDelete}, actor, func(u *Unit) error {
		j, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, id)
		if err != nil {
			return err
		}
		byJob := store.Filter{"job_id": id}
		visits, err := store.List[domain.Visit](u.Context(), u.Tx(), domain.KindVisit, byJob)
		if err != nil {
			return err
		}
		for i := range visits {
			if err := store.Delete(u.Context(), u.Tx(), &visits[i]); err != nil {
				return fmt.Errorf("delete visit %s: %w", visits[i].ID, err)
			}
		}
		notes, err := store.List[domain.Note](u.Context(), u.Tx(), domain.KindNote, byJob)
		if err != nil {
			return err
		}
		for i := range notes {
			if err := store.Delete(u.Context(), u.Tx(), &notes[i]); err != nil {
				return fmt.Errorf("delete note %s: %w", notes[i].ID, err)
			}
		}
		summary := cascadeSummary(map[string]int{"visits": len(visits), "notes": len(notes)})
		return u.Remove(j, jobCreatedFields, summary, fmt.Sprintf("Job %s deleted", j.JobNumber))
	})
}

// setJobStatus writes a status derived from the job's visits.
func setJobStatus(u *Unit, j *domain.Job, next domain.JobStatus, reason string) error {
	prev := j.Status
	if prev == next {
		return nil
	}
	j.Status = next
	lifecycle.StampJob(j, prev, next, u.Now())
	j.UpdatedAt = u.Now()
	if err := store.Update(u.Context(), u.Tx(), j); err != nil {
		return fmt.Errorf("update job %s status: %w", j.ID, err)
	}
	u.Derived(domain.RefOf(j), string(prev), string(next), reason)
	return nil
}

func jobDetail(ctx context.Context, r store.Reader, id string) (*domain.JobDetail, error) {
	j, err := load[domain.Job](ctx, r, domain.KindJob, id)
	if err != nil {
		return nil, err
	}
	byJob := store.Filter{"job_id": id}
	visits, err := store.List[domain.Visit](ctx, r, domain.KindVisit, byJob)
	if err != nil {
		return nil, err
	}
	notes, err := store.List[domain.Note](ctx, r, domain.KindNote, byJob)
	if err != nil {
		return nil, err
	}
	return &domain.JobDetail{Job: *j, Visits: sortedVisits(visits), Notes: notes}, nil
}
