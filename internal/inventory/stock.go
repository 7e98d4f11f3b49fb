// Package inventory tracks ingredient stock and deducts it by recipe when
// orders are placed.
package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
)

// StockQuerier is what order placement and cancellation need.
type StockQuerier interface {
	ListRecipeLinesForItems(ctx context.Context, arg dbgen.ListRecipeLinesForItemsParams) ([]dbgen.Recipe, error)
	AdjustIngredientStock(ctx context.Context, arg dbgen.AdjustIngredientStockParams) (dbgen.Ingredient, error)
	InsertStockMovement(ctx context.Context, arg dbgen.InsertStockMovementParams) (dbgen.StockMovement, error)
	ListStockMovementsByOrder(ctx context.Context, arg dbgen.ListStockMovementsByOrderParams) ([]dbgen.StockMovement, error)
}

// Usage is one ordered menu item.
type Usage struct {
	MenuItemID pgtype.UUID
	Qty        int32
}

// LowItem converts an ingredient into its low-stock event form.
func LowItem(ing dbgen.Ingredient) events.LowStockItem {
	return events.LowStockItem{
		IngredientID: common.UUIDString(ing.ID),
		Name:         ing.Name,
		Unit:         ing.Unit,
		OnHand:       ing.OnHand,
		Threshold:    ing.LowThreshold,
	}
}

// crossed reports whether a change of delta moved ing to or below its
// threshold. ing is the row after the change.
func crossed(ing dbgen.Ingredient, delta int64) bool {
	before := ing.OnHand - delta
	return before > ing.LowThreshold && ing.OnHand <= ing.LowThreshold
}

// DeductForOrder consumes recipe quantities for every ordered item and logs a
// usage movement per ingredient. Stock may go negative; orders are never
// refused for missing stock. It returns the ingredients that crossed their
// low threshold. Ingredients are updated in id order so concurrent checkouts
// lock rows consistently.
func DeductForOrder(ctx context.Context, q StockQuerier, tenantID, orderID pgtype.UUID, usage []Usage) ([]events.LowStockItem, error) {
	if len(usage) == 0 {
		return nil, nil
	}
	qty := make(map[[16]byte]int64, len(usage))
	ids := make([]pgtype.UUID, 0, len(usage))
	for _, u := range usage {
		if u.Qty <= 0 {
			continue
		}
		if _, seen := qty[u.MenuItemID.Bytes]; !seen {
			ids = append(ids, u.MenuItemID)
		}
		qty[u.MenuItemID.Bytes] += int64(u.Qty)
	}
	lines, err := q.ListRecipeLinesForItems(ctx, dbgen.ListRecipeLinesForItemsParams{TenantID: tenantID, MenuItemIds: ids})
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	need := map[[16]byte]int64{}
	for _, l := range lines {
		need[l.IngredientID.Bytes] += l.Quantity * qty[l.MenuItemID.Bytes]
	}
	keys := make([][16]byte, 0, len(need))
	for k := range need {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	var low []events.LowStockItem
	for _, k := range keys {
		amount := need[k]
		if amount <= 0 {
			continue
		}
		ingID := pgtype.UUID{Bytes: k, Valid: true}
		ing, err := q.AdjustIngredientStock(ctx, dbgen.AdjustIngredientStockParams{TenantID: tenantID, ID: ingID, Delta: -amount})
		if err != nil {
			return nil, fmt.Errorf("deduct ingredient %s: %w", common.UUIDString(ingID), err)
		}
		if _, err := q.InsertStockMovement(ctx, dbgen.InsertStockMovementParams{
			TenantID:     tenantID,
			IngredientID: ingID,
			Kind:         dbgen.StockMovementKindUsage,
			Quantity:     -amount,
			OrderID:      orderID,
			Note:         "order usage",
		}); err != nil {
			return nil, err
		}
		if crossed(ing, -amount) {
			low = append(low, LowItem(ing))
		}
	}
	return low, nil
}

// RestockForOrder reverses the usage movements of a cancelled order. A second
// call finds the restock rows and does nothing.
func RestockForOrder(ctx context.Context, q StockQuerier, tenantID, orderID pgtype.UUID) (int, error) {
	if !orderID.Valid {
		return 0, errors.New("inventory: order id is required")
	}
	moves, err := q.ListStockMovementsByOrder(ctx, dbgen.ListStockMovementsByOrderParams{TenantID: tenantID, OrderID: orderID})
	if err != nil {
		return 0, err
	}
	for _, m := range moves {
		if m.Kind == dbgen.StockMovementKindRestock {
			return 0, nil
		}
	}
	n := 0
	for _, m := range moves {
		if m.Kind != dbgen.StockMovementKindUsage || m.Quantity >= 0 {
			continue
		}
		back := -m.Quantity
		if _, err := q.AdjustIngredientStock(ctx, dbgen.AdjustIngredientStockParams{TenantID: tenantID, ID: m.IngredientID, Delta: back}); err != nil {
			return n, err
		}
		if _, err := q.InsertStockMovement(ctx, dbgen.InsertStockMovementParams{
			TenantID:     tenantID,
			IngredientID: m.IngredientID,
			Kind:         dbgen.StockMovementKindRestock,
			Quantity:     back,
			OrderID:      orderID,
			Note:         "order cancelled",
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
