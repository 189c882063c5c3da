package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stocked part or material.
type InventoryItem struct {
	ID               string          `json:"id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (i *InventoryItem) EntityKind() Kind { return KindInventoryItem }
func (i *InventoryItem) EntityID() string { return i.ID }

// BelowReorder reports whether stock is at or under the reorder threshold.
func (i *InventoryItem) BelowReorder() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderThreshold)
}

type CreateInventoryItemInput struct {
	SKU              string          `json:"sku" validate:"required,max=64"`
	Name             string          `json:"name" validate:"required,max=200"`
	Description      string          `json:"description" validate:"max=2000"`
	Quantity         decimal.Decimal `json:"quantity" validate:"gte=0"`
	UnitCost         decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold" validate:"gte=0"`
}

type InventoryItemPatch struct {
	SKU              *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Name             *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description      *string          `json:"description" validate:"omitempty,max=2000"`
	Quantity         *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
	UnitCost         *decimal.Decimal `json:"unit_cost" validate:"omitempty,gte=0"`
	ReorderThreshold *decimal.Decimal `json:"reorder_threshold" validate:"omitempty,gte=0"`
}

var InventoryItemTrackedFields = []string{"sku", "name", "description", "quantity", "unit_cost", "reorder_threshold"}

// StockAdjustment changes on-hand quantity by Delta.
type StockAdjustment struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" validate:"max=500"`
}
