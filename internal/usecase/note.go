package usecase

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/store"
)

// NoteService manages notes on clients and jobs.
type NoteService struct {
	o *Orchestrator
}

// Create attaches a note to a client or a job. The acting technician or
// dispatcher becomes its creator.
func (s *NoteService) Create(ctx context.Context, in domain.CreateNoteInput, actor domain.ActorContext) (*domain.Note, error) {
	var out *domain.Note
	err := s.o.ExecuteValidated(ctx, Op{domain.KindNote, ActionCreate}, in, actor, func(u *Unit) error {
		target := "client"
		if in.ClientID != nil {
			if err := requireExists(u.Context(), u.Tx(), domain.KindClient, *in.ClientID); err != nil {
				return err
			}
		} else {
			job, err := load[domain.Job](u.Context(), u.Tx(), domain.KindJob, *in.JobID)
			if err != nil {
				return err
			}
			target = "job " + job.JobNumber
		}
		n := &domain.Note{
			ID:                  domain.NewID(),
			ClientID:            in.ClientID,
			JobID:               in.JobID,
			Content:             in.Content,
			CreatorTechID:       actor.TechPtr(),
			CreatorDispatcherID: actor.DispatcherPtr(),
			CreatedAt:           u.Now(),
			UpdatedAt:           u.Now(),
		}
		if err := u.Create(n, domain.NoteTrackedFields, "Note added to "+target); err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

func (s *NoteService) Get(ctx context.Context, id string) (*domain.Note, error) {
	var out *domain.Note
	err := s.o.View(ctx, Op{domain.KindNote, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = load[domain.Note](ctx, r, domain.KindNote, id)
		return err
	})
	return out, err
}

// List returns notes, narrowed by client or job when given.
func (s *NoteService) List(ctx context.Context, clientID, jobID string) ([]domain.Note, error) {
	var out []domain.Note
	err := s.o.View(ctx, Op{domain.KindNote, "list"}, func(ctx context.Context, r store.Reader) error {
		filter := store.Filter{}
		if clientID != "" {
			filter["client_id"] = clientID
		}
		if jobID != "" {
			filter["job_id"] = jobID
		}
		var err error
		out, err = store.List[domain.Note](ctx, r, domain.KindNote, filter)
		return err
	})
	return out, err
}

func (s *NoteService) Update(ctx context.Context, id string, patch domain.NotePatch, actor domain.ActorContext) (*domain.Note, error) {
	var out *domain.Note
	err := s.o.ExecuteValidated(ctx, Op{domain.KindNote, ActionUpdate}, patch, actor, func(u *Unit) error {
		n, err := load[domain.Note](u.Context(), u.Tx(), domain.KindNote, id)
		if err != nil {
			return err
		}
		changes := changeset.Diff(n, patch, domain.NoteTrackedFields)
		set(&n.Content, patch.Content)
		touch(&n.UpdatedAt, changes, u.Now())
		if err := u.Save(n, changes, "Note edited"); err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

func (s *NoteService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindNote, ActionDelete}, actor, func(u *Unit) error {
		n, err := load[domain.Note](u.Context(), u.Tx(), domain.KindNote, id)
		if err != nil {
			return err
		}
		return u.Remove(n, domain.NoteTrackedFields, nil, fmt.Sprintf("Note %s deleted", n.ID))
	})
}
