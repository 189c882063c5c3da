package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/changeset"
	"fieldops.io/fieldops/internal/domain"
	apperrors "fieldops.io/fieldops/internal/pkg/errors"
	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/validate"
	"fieldops.io/fieldops/internal/store"
)

// InventoryService manages stocked items.
type InventoryService struct {
	o *Orchestrator
}

func (s *InventoryService) Create(ctx context.Context, in domain.CreateInventoryItemInput, actor domain.ActorContext) (*domain.InventoryItem, error) {
	var out *domain.InventoryItem
	err := s.o.ExecuteValidated(ctx, Op{domain.KindInventoryItem, ActionCreate}, in, actor, func(u *Unit) error {
		item := &domain.InventoryItem{
			ID:               domain.NewID(),
			SKU:              in.SKU,
			Name:             in.Name,
			Description:      in.Description,
			Quantity:         in.Quantity,
			UnitCost:         money(in.UnitCost),
			ReorderThreshold: in.ReorderThreshold,
			CreatedAt:        u.Now(),
			UpdatedAt:        u.Now(),
		}
		if err := u.Create(item, domain.InventoryItemTrackedFields, fmt.Sprintf("Inventory item %s added", item.SKU)); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var out *domain.InventoryItem
	err := s.o.View(ctx, Op{domain.KindInventoryItem, "get"}, func(ctx context.Context, r store.Reader) error {
		var err error
		out, err = load[domain.InventoryItem](ctx, r, domain.KindInventoryItem, id)
		return err
	})
	return out, err
}

// List returns inventory items; belowReorder keeps only items due for restock.
func (s *InventoryService) List(ctx context.Context, belowReorder bool) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	err := s.o.View(ctx, Op{domain.KindInventoryItem, "list"}, func(ctx context.Context, r store.Reader) error {
		items, err := store.List[domain.InventoryItem](ctx, r, domain.KindInventoryItem, nil)
		if err != nil {
			return err
		}
		if !belowReorder {
			out = items
			return nil
		}
		out = make([]domain.InventoryItem, 0, len(items))
		for i := range items {
			if items[i].BelowReorder() {
				out = append(out, items[i])
			}
		}
		return nil
	})
	return out, err
}

func (s *InventoryService) Update(ctx context.Context, id string, patch domain.InventoryItemPatch, actor domain.ActorContext) (*domain.InventoryItem, error) {
	var out *domain.InventoryItem
	err := s.o.ExecuteValidated(ctx, Op{domain.KindInventoryItem, ActionUpdate}, patch, actor, func(u *Unit) error {
		item, err := load[domain.InventoryItem](u.Context(), u.Tx(), domain.KindInventoryItem, id)
		if err != nil {
			return err
		}
		if patch.UnitCost != nil {
			patch.UnitCost = ptr(money(*patch.UnitCost))
		}
		changes := changeset.Diff(item, patch, domain.InventoryItemTrackedFields)
		set(&item.SKU, patch.SKU)
		set(&item.Name, patch.Name)
		set(&item.Description, patch.Description)
		set(&item.Quantity, patch.Quantity)
		set(&item.UnitCost, patch.UnitCost)
		set(&item.ReorderThreshold, patch.ReorderThreshold)
		touch(&item.UpdatedAt, changes, u.Now())
		if err := u.Save(item, changes, fmt.Sprintf("Inventory item %s updated", item.SKU)); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

func (s *InventoryService) Delete(ctx context.Context, id string, actor domain.ActorContext) error {
	return s.o.Execute(ctx, Op{domain.KindInventoryItem, ActionDelete}, actor, func(u *Unit) error {
		item, err := load[domain.InventoryItem](u.Context(), u.Tx(), domain.KindInventoryItem, id)
		if err != nil {
			return err
		}
		return u.Remove(item, domain.InventoryItemTrackedFields, nil, fmt.Sprintf("Inventory item %s removed", item.SKU))
	})
}

// AdjustStock changes the on-hand quantity by adj.Delta. Stock never goes
// negative. The adjustment reason is recorded on the audit entry.
func (s *InventoryService) AdjustStock(ctx context.Context, id string, adj domain.StockAdjustment, actor domain.ActorContext) (*domain.InventoryItem, error) {
	if adj.Reason != "" && actor.Reason == "" {
		actor.Reason = adj.Reason
	}
	var out *domain.InventoryItem
	err := s.o.ExecuteValidated(ctx, Op{domain.KindInventoryItem, ActionAdjust}, adj, actor, func(u *Unit) error {
		if adj.Delta.IsZero() {
			return validate.Field("delta", "ne", "delta must not be zero")
		}
		item, err := load[domain.InventoryItem](u.Context(), u.Tx(), domain.KindInventoryItem, id)
		if err != nil {
			return err
		}
		next := item.Quantity.Add(adj.Delta)
		if next.IsNegative() {
			return apperrors.BusinessRule(apperrors.CodeInsufficientStock,
				fmt.Sprintf("only %s of %s in stock", item.Quantity, item.SKU)).
				WithParams(map[string]interface{}{"on_hand": item.Quantity.String(), "delta": adj.Delta.String()})
		}
		changes := changeset.Diff(item, map[string]any{"quantity": next}, []string{"quantity"})
		item.Quantity = next
		touch(&item.UpdatedAt, changes, u.Now())
		if err := u.Save(item, changes, fmt.Sprintf("Stock of %s adjusted by %s", item.SKU, adj.Delta)); err != nil {
			return err
		}
		if item.BelowReorder() {
			logger.Warn("Inventory at or below reorder threshold",
				zap.String("sku", item.SKU),
				zap.String("quantity", item.Quantity.String()),
				zap.String("reorder_threshold", item.ReorderThreshold.String()),
			)
		}
		out = item
		return nil
	})
	return out, err
}
