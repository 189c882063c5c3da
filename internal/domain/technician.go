package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Technician is a field worker who can be assigned to visits.
type Technician struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	Skills       []string        `json:"skills"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	Active       bool            `json:"active"`
	LastLocation *Location       `json:"last_location,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (t *Technician) EntityKind() Kind { return KindTechnician }
func (t *Technician) EntityID() string { return t.ID }

// Location is a position reported by a technician device.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

type CreateTechnicianInput struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Email      string          `json:"email" validate:"required,email"`
	Phone      string          `json:"phone" validate:"max=50"`
	Skills     []string        `json:"skills" validate:"dive,required"`
	HourlyRate decimal.Decimal `json:"hourly_rate" validate:"gte=0"`
}

type TechnicianPatch struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Email      *string          `json:"email" validate:"omitempty,email"`
	Phone      *string          `json:"phone" validate:"omitempty,max=50"`
	Skills     *[]string        `json:"skills" validate:"omitempty,dive,required"`
	HourlyRate *decimal.Decimal `json:"hourly_rate" validate:"omitempty,gte=0"`
	Active     *bool            `json:"active"`
}

var TechnicianTrackedFields = []string{"name", "email", "phone", "skills", "hourly_rate", "active"}

// LocationPing is a location update from a technician device.
type LocationPing struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}
