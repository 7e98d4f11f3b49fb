package menu

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// ErrItemUnavailable is returned when an item cannot currently be ordered.
var ErrItemUnavailable = errors.New("menu item unavailable")

// Reader prices items for the cart and checkout.
type Reader interface {
	GetMenuItemByID(ctx context.Context, arg dbgen.GetMenuItemByIDParams) (dbgen.MenuItem, error)
	ListMenuItemsByIDs(ctx context.Context, arg dbgen.ListMenuItemsByIDsParams) ([]dbgen.MenuItem, error)
	ListModifiersByIDs(ctx context.Context, arg dbgen.ListModifiersByIDsParams) ([]dbgen.MenuModifier, error)
}

// Priced is an item with its selected modifiers at current prices.
type Priced struct {
	Item          dbgen.MenuItem
	Modifiers     []dbgen.MenuModifier
	ModifierTotal int64
}

// ModifierIDs returns the ids of the selected modifiers.
func (p Priced) ModifierIDs() []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(p.Modifiers))
	for _, m := range p.Modifiers {
		out = append(out, m.ID)
	}
	return out
}

// Resolve loads an orderable item and validates that every modifier belongs
// to it.
func Resolve(ctx context.Context, q Reader, tenantID, itemID pgtype.UUID, modifierIDs []pgtype.UUID) (Priced, error) {
	item, err := q.GetMenuItemByID(ctx, dbgen.GetMenuItemByIDParams{TenantID: tenantID, ID: itemID})
	if err != nil {
		return Priced{}, common.DBError(err, "menu item not found")
	}
	if !item.Available {
		return Priced{}, unavailable(item.Name)
	}
	out := Priced{Item: item}
	if len(modifierIDs) == 0 {
		return out, nil
	}
	mods, err := q.ListModifiersByIDs(ctx, dbgen.ListModifiersByIDsParams{TenantID: tenantID, Ids: dedupe(modifierIDs)})
	if err != nil {
		return Priced{}, fmt.Errorf("list modifiers: %w", err)
	}
	if len(mods) != len(dedupe(modifierIDs)) {
		return Priced{}, common.BadRequest("modifier_ids", "unknown modifier", nil)
	}
	for _, m := range mods {
		if m.ItemID != item.ID {
			return Priced{}, common.BadRequest("modifier_ids", fmt.Sprintf("modifier %q does not belong to %q", m.Name, item.Name), nil)
		}
		out.ModifierTotal += m.PriceDelta
	}
	out.Modifiers = mods
	return out, nil
}

func unavailable(name string) error {
	return &common.AppError{
		Code:       "ITEM_UNAVAILABLE",
		Message:    fmt.Sprintf("%s is not available right now", name),
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        ErrItemUnavailable,
	}
}

func dedupe(ids []pgtype.UUID) []pgtype.UUID {
	seen := make(map[[16]byte]bool, len(ids))
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		if !id.Valid || seen[id.Bytes] {
			continue
		}
		seen[id.Bytes] = true
		out = append(out, id)
	}
	return out
}
