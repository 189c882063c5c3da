package usecase

import (
	"context"
	"fmt"
	"slices"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/store"
)

// TechnicianService manages field technicians.
type TechnicianService struct {
	o *Orchestrator
}

func (s *TechnicianService) Create(ctx context.Context, in domain.CreateTechnicianInput, actor domain.ActorContext) (*domain.Technician, error) {
	var out *domain.Technician
	err := s.o.ExecuteValidated(ctx, Op{domain.KindTechnician, ActionCreate}, in, actor, func(u *Unit) error {
		t := &domain.Technician{
			ID:         domain.NewID(),
			Name:       in.Name,
			Email:      in.Email,
			Phone:      in.Phone,
			Skills:     in.Skills,
			HourlyRate: money(in.HourlyRate),
			Active:     true,
			CreatedAt:  u.Now(),
			UpdatedAt:  u.Now(),
		}
		if t.Skills == nil {
			t.Skills = []string{}
		}
		if err := u.Create(t, domain.TechnicianTrackedFields, fmt.Sprintf("Technician %s added", t.Name)); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (s *TechnicianService) Get(ctx context.Context, id string) (*domain.Technician, error) {
	var out *domain.Technician
	err := s.o.View(ctx, Op{domain.KindTechnician, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = load[domain.Technician](ctx, r, domain.KindTechnician, id)
		return err
	})
	return out, err
}

// List returns technicians; activeOnly drops deactivated ones.
func (s *TechnicianService) List(ctx context.Context, activeOnly bool) ([]domain.Technician, error) {
	var out []domain.Technician
	err := s.o.View(ctx, Op{domain.KindTechnician, "list"}, func(ctx context.Context, r store.Reader) error {
		var filter store.Filter
		if activeOnly {
			filter = store.Filter{"active": true}
		}
		var err error
		out, err = store.List[domain.Technician](ctx, r, domain.KindTechnician, filter)
		return err
	})
	return out, err
}

func (s *TechnicianService) Update(ctx context.Context, id string, patch domain.TechnicianPatch, actor domain.ActorContext) (*domain.Technician, error) {
	var out *domain.Technician
	err := s.o.ExecuteValidated(ctx, Op{domain.KindTechnician, ActionUpdate}, patch, actor, func(u *Unit) error {
		t, err := load[domain.Technician](u.Context(), u.Tx(), domain.KindTechnician, id)
		if err != nil {
			return err
		}
		if patch.HourlyRate != nil {
			patch.HourlyRate = ptr(money(*patch.HourlyRate))
		}
		changes := changeset.Diff(t, patch, domain.TechnicianTrackedFields)
		set(&t.Name, patch.Name)
		set(&t.Email, patch.Email)
		set(&t.Phone, patch.Phone)
		set(&t.Skills, patch.Skills)
		set(&t.HourlyRate, patch.HourlyRate)
		set(&t.Active, patch.Active)
		touch(&t.UpdatedAt, changes, u.Now())
		if err := u.Save(t, changes, fmt.Sprintf("Technician %s updated", t.Name)); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// Delete removes a technician. Notes they wrote lose their creator and
// visits they were assigned to drop them; both survive and are audited as
// updates.
func (s *TechnicianService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindTechnician, ActionDelete}, actor, func(u *Unit) error {
		t, err := load[domain.Technician](u.Context(), u.Tx(), domain.KindTechnician, id)
		if err != nil {
			return err
		}

		notes, err := store.List[domain.Note](u.Context(), u.Tx(), domain.KindNote, store.Filter{"creator_tech_id": id})
		if err != nil {
			return err
		}
		for i := range notes {
			n := &notes[i]
			changes := domain.ChangeRecord{"creator_tech_id": {Old: id, New: nil}}
			n.CreatorTechID = nil
			n.UpdatedAt = u.Now()
			if err := u.Save(n, changes, ""); err != nil {
				return err
			}
		}

		visits, err := store.List[domain.Visit](u.Context(), u.Tx(), domain.KindVisit, store.Filter{"technician_ids": []string{id}})
		if err != nil {
			return err
		}
		for i := range visits {
			v := &visits[i]
			remaining := slices.DeleteFunc(slices.Clone(v.TechnicianIDs), func(x string) bool { return x == id })
			changes := changeset.Diff(v, map[string]any{"technician_ids": remaining}, []string{"technician_ids"})
			v.TechnicianIDs = remaining
			v.UpdatedAt = u.Now()
			if err := u.Save(v, changes, ""); err != nil {
				return err
			}
		}

		return u.Remove(t, domain.TechnicianTrackedFields, nil, fmt.Sprintf("Technician %s removed", t.Name))
	})
}

// PingLocation records a technician's last known position. Location
// telemetry is high volume and is neither audited nor activity-logged.
func (s *TechnicianService) PingLocation(ctx context.Context, id string, ping domain.LocationPing, actor domain.ActorContext) (*domain.Technician, error) {
	var out *domain.Technician
	err := s.o.ExecuteValidated(ctx, Op{domain.KindTechnician, ActionPing}, ping, actor, func(u *Unit) error {
		t, err := load[domain.Technician](u.Context(), u.Tx(), domain.KindTechnician, id)
		if err != nil {
			return err
		}
		t.LastLocation = &domain.Location{Latitude: ping.Latitude, Longitude: ping.Longitude, RecordedAt: u.Now()}
		if err := store.Update(u.Context(), u.Tx(), t); err != nil {
			return fmt.Errorf("update technician %s location: %w", id, err)
		}
		out = t
		return nil
	})
	return out, err
}
