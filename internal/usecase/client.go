package usecase

import (
	"context"
	"fmt"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/store"
)

// ClientService manages clients and their contacts and notes.
type ClientService struct {
	o *Orchestrator
}

func (s *ClientService) Create(ctx context.Context, in domain.CreateClientInput, actor domain.ActorContext) (*domain.ClientDetail, error) {
	var out *domain.ClientDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindClient, ActionCreate}, in, actor, func(u *Unit) error {
		c := &domain.Client{
			ID:          domain.NewID(),
			Name:        in.Name,
			CompanyName: in.CompanyName,
			Email:       in.Email,
			Phone:       in.Phone,
			Address:     in.Address,
			CreatedAt:   u.Now(),
			UpdatedAt:   u.Now(),
		}
		if err := u.Create(c, domain.ClientTrackedFields, fmt.Sprintf("Client %s created", c.Name)); err != nil {
			return err
		}
		var err error
		out, err = clientDetail(u.Context(), u.Tx(), c.ID)
		return err
	})
	return out, err
}

func (s *ClientService) Get(ctx context.Context, id string) (*domain.ClientDetail, error) {
	var out *domain.ClientDetail
	err := s.o.View(ctx, Op{domain.KindClient, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = clientDetail(ctx, r, id)
		return err
	})
	return out, err
}

func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.o.View(ctx, Op{domain.KindClient, "list"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = store.List[domain.Client](ctx, r, domain.KindClient, nil)
		return err
	})
	return out, err
}

func (s *ClientService) Update(ctx context.Context, id string, patch domain.ClientPatch, actor domain.ActorContext) (*domain.ClientDetail, error) {
	var out *domain.ClientDetail
	err := s.o.ExecuteValidated(ctx, Op{domain.KindClient, ActionUpdate}, patch, actor, func(u *Unit) error {
		c, err := load[domain.Client](u.Context(), u.Tx(), domain.KindClient, id)
		if err != nil {
			return err
		}
		changes := changeset.Diff(c, patch, domain.ClientTrackedFields)
		set(&c.Name, patch.Name)
		set(&c.CompanyName, patch.CompanyName)
		set(&c.Email, patch.Email)
		set(&c.Phone, patch.Phone)
		set(&c.Address, patch.Address)
		touch(&c.UpdatedAt, changes, u.Now())
		if err := u.Save(c, changes, fmt.Sprintf("Client %s updated", c.Name)); err != nil {
			return err
		}
		out, err = clientDetail(u.Context(), u.Tx(), id)
		return err
	})
	return out, err
}

// Delete removes a client with no jobs, quotes or requests, together with
// its contacts and notes.
func (s *ClientService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindClient, ActionDelete}, actor, func(u *Unit) error {
		c, err := load[domain.Client](u.Context(), u.Tx(), domain.KindClient, id)
		if err != nil {
			return err
		}
		byClient := store.Filter{"client_id": id}
		for _, kind := range []domain.Kind{domain.KindJob, domain.KindQuote, domain.KindRequest} {
			n, err := countBy(u.Context(), u.Tx(), kind, byClient)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperrors.BusinessRule(apperrors.CodeClientHasWork,
					fmt.Sprintf("client %s still has %s records and cannot be deleted", c.Name, kind)).
					WithParams(map[string]interface{}{"entity_type": string(kind), "count": n})
			}
		}

		contacts, err := store.List[domain.Contact](u.Context(), u.Tx(), domain.KindContact, byClient)
		if err != nil {
			return err
		}
		for i := range contacts {
			if err := store.Delete(u.Context(), u.Tx(), &contacts[i]); err != nil {
				return fmt.Errorf("delete contact %s: %w", contacts[i].ID, err)
			}
		}
		notes, err := store.List[domain.Note](u.Context(), u.Tx(), domain.KindNote, byClient)
		if err != nil {
			return err
		}
		for i := range notes {
			if err := store.Delete(u.Context(), u.Tx(), &notes[i]); err != nil {
				return fmt.Errorf("delete note %s: %w", notes[i].ID, err)
			}
		}

		summary := cascadeSummary(map[string]int{"contacts": len(contacts), "notes": len(notes)})
		return u.Remove(c, domain.ClientTrackedFields, summary, fmt.Sprintf("Client %s deleted", c.Name))
	})
}

func clientDetail(ctx context.Context, r store.Reader, id string) (*domain.ClientDetail, error) {
	c, err := load[domain.Client](ctx, r, domain.KindClient, id)
	if err != nil {
		return nil, err
	}
	contacts, err := store.List[domain.Contact](ctx, r, domain.KindContact, store.Filter{"client_id": id})
	if err != nil {
		return nil, err
	}
	notes, err := store.List[domain.Note](ctx, r, domain.KindNote, store.Filter{"client_id": id})
	if err != nil {
		return nil, err
	}
	return &domain.ClientDetail{Client: *c, Contacts: contacts, Notes: notes}, nil
}

// ContactService manages client contacts.
type ContactService struct {
	o *Orchestrator
}

func (s *ContactService) Create(ctx context.Context, in domain.CreateContactInput, actor domain.ActorContext) (*domain.Contact, error) {
	var out *domain.Contact
	err := s.o.ExecuteValidated(ctx, Op{domain.KindContact, ActionCreate}, in, actor, func(u *Unit) error {
		if err := requireExists(u.Context(), u.Tx(), domain.KindClient, in.ClientID); err != nil {
			return err
		}
		c := &domain.Contact{
			ID:        domain.NewID(),
			ClientID:  in.ClientID,
			Name:      in.Name,
			Email:     in.Email,
			Phone:     in.Phone,
			Role:      in.Role,
			IsPrimary: in.IsPrimary,
			CreatedAt: u.Now(),
			UpdatedAt: u.Now(),
		}
		if err := u.Create(c, domain.ContactTrackedFields, fmt.Sprintf("Contact %s added", c.Name)); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *ContactService) Get(ctx context.Context, id string) (*domain.Contact, error) {
	var out *domain.Contact
	err := s.o.View(ctx, Op{domain.KindContact, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = load[domain.Contact](ctx, r, domain.KindContact, id)
		return err
	})
	return out, err
}

// List returns contacts, narrowed to one client when clientID is set.
func (s *ContactService) List(ctx context.Context, clientID string) ([]domain.Contact, error) {
	var out []domain.Contact
	err := s.o.View(ctx, Op{domain.KindContact, "list"}, func(ctx context.Context, r store.Reader) error {
		var filter store.Filter
		if clientID != "" {
			filter = store.Filter{"client_id": clientID}
		}
		var err error
		out, err = store.List[domain.Contact](ctx, r, domain.KindContact, filter)
		return err
	})
	return out, err
}

func (s *ContactService) Update(ctx context.Context, id string, patch domain.ContactPatch, actor domain.ActorContext) (*domain.Contact, error) {
	var out *domain.Contact
	err := s.o.ExecuteValidated(ctx, Op{domain.KindContact, ActionUpdate}, patch, actor, func(u *Unit) error {
		c, err := load[domain.Contact](u.Context(), u.Tx(), domain.KindContact, id)
		if err != nil {
			return err
		}
		changes := changeset.Diff(c, patch, domain.ContactTrackedFields)
		set(&c.Name, patch.Name)
		set(&c.Email, patch.Email)
		set(&c.Phone, patch.Phone)
		set(&c.Role, patch.Role)
		set(&c.IsPrimary, patch.IsPrimary)
		touch(&c.UpdatedAt, changes, u.Now())
		if err := u.Save(c, changes, fmt.Sprintf("Contact %s updated", c.Name)); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *ContactService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindContact, ActionDelete}, actor, func(u *Unit) error {
		c, err := load[domain.Contact](u.Context(), u.Tx(), domain.KindContact, id)
		if err != nil {
			return err
		}
		return u.Remove(c, domain.ContactTrackedFields, nil, fmt.Sprintf("Contact %s removed", c.Name))
	})
}
