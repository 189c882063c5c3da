package domain

import "time"

// Client is a customer account.
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Client) EntityKind() Kind { return KindClient }
func (c *Client) EntityID() string { return c.ID }

// ClientDetail is a Client with its contacts and client notes.
type ClientDetail struct {
	Client
	Contacts []Contact `json:"contacts"`
	Notes    []Note    `json:"notes"`
}

type CreateClientInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	CompanyName string `json:"company_name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address" validate:"max=500"`
}

// ClientPatch lists the updatable Client fields; nil means unset.
type ClientPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
}

var ClientTrackedFields = []string{"name", "company_name", "email", "phone", "address"}

// Contact is a person at a Client.
type Contact struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contact) EntityKind() Kind { return KindContact }
func (c *Contact) EntityID() string { return c.ID }

type CreateContactInput struct {
	ClientID  string `json:"client_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=50"`
	Role      string `json:"role" validate:"max=100"`
	IsPrimary bool   `json:"is_primary"`
}

type ContactPatch struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Role      *string `json:"role" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"is_primary"`
}

var ContactTrackedFields = []string{"name", "email", "phone", "role", "is_primary"}

// Note is free text attached to a Client or a Job. The creator is whoever
// was acting when it was written; it is cleared when that technician is deleted.
type Note struct {
	ID                  string    `json:"id"`
	ClientID            *string   `json:"client_id,omitempty"`
	JobID               *string   `json:"job_id,omitempty"`
	Content             string    `json:"content"`
	CreatorTechID       *string   `json:"creator_tech_id"`
	CreatorDispatcherID *string   `json:"creator_dispatcher_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (n *Note) EntityKind() Kind { return KindNote }
func (n *Note) EntityID() string { return n.ID }

type CreateNoteInput struct {
	ClientID *string `json:"client_id" validate:"required_without=JobID,excluded_with=JobID"`
	JobID    *string `json:"job_id" validate:"required_without=ClientID"`
	Content  string  `json:"content" validate:"required,max=10000"`
}

type NotePatch struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=10000"`
}

var NoteTrackedFields = []string{"content"}
