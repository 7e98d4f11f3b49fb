package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// Querier is the storage surface of the inventory service.
type Querier interface {
	StockQuerier
	ListIngredients(ctx context.Context, tenantID pgtype.UUID) ([]dbgen.Ingredient, error)
	GetIngredientByID(ctx context.Context, arg dbgen.GetIngredientByIDParams) (dbgen.Ingredient, error)
	CreateIngredient(ctx context.Context, arg dbgen.CreateIngredientParams) (dbgen.Ingredient, error)
	UpdateIngredient(ctx context.Context, arg dbgen.UpdateIngredientParams) (dbgen.Ingredient, error)
	DeleteIngredient(ctx context.Context, arg dbgen.DeleteIngredientParams) (int64, error)
	ListLowStockIngredients(ctx context.Context, tenantID pgtype.UUID) ([]dbgen.Ingredient, error)
	ListRecipeByMenuItem(ctx context.Context, arg dbgen.ListRecipeByMenuItemParams) ([]dbgen.ListRecipeByMenuItemRow, error)
	DeleteRecipe(ctx context.Context, arg dbgen.DeleteRecipeParams) error
	InsertRecipeLine(ctx context.Context, arg dbgen.InsertRecipeLineParams) error
	ListStockMovements(ctx context.Context, arg dbgen.ListStockMovementsParams) ([]dbgen.StockMovement, error)
	CountStockMovements(ctx context.Context, arg dbgen.CountStockMovementsParams) (int64, error)
	GetMenuItemByID(ctx context.Context, arg dbgen.GetMenuItemByIDParams) (dbgen.MenuItem, error)
}

// Service manages ingredients, recipes and stock movements.
type Service struct {
	Q      Querier
	Tx     repo.TxFunc[Querier]
	Events events.Emitter
	Log    zerolog.Logger
}

func (s *Service) tx(ctx context.Context, fn func(q Querier) error) error {
	if s.Tx != nil {
		return s.Tx(ctx, fn)
	}
	return fn(s.Q)
}

// IngredientInput is the admin payload for ingredients. OnHand is only used
// on create; later changes go through stock movements.
type IngredientInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Unit         string `json:"unit" validate:"required,max=16"`
	OnHand       int64  `json:"on_hand" validate:"gte=0"`
	LowThreshold int64  `json:"low_threshold" validate:"gte=0"`
}

// Ingredients lists every ingredient.
func (s *Service) Ingredients(ctx context.Context) ([]dbgen.Ingredient, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Q.ListIngredients(ctx, tid)
}

// LowStock lists ingredients at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]dbgen.Ingredient, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Q.ListLowStockIngredients(ctx, tid)
}

// CreateIngredient inserts an ingredient.
func (s *Service) CreateIngredient(ctx context.Context, in IngredientInput) (dbgen.Ingredient, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.Ingredient{}, err
	}
	ing, err := s.Q.CreateIngredient(ctx, dbgen.CreateIngredientParams{
		TenantID:     tid,
		Name:         strings.TrimSpace(in.Name),
		Unit:         strings.TrimSpace(in.Unit),
		OnHand:       in.OnHand,
		LowThreshold: in.LowThreshold,
	})
	return ing, common.DBError(err, "ingredient not found")
}

// UpdateIngredient renames an ingredient or moves its threshold.
func (s *Service) UpdateIngredient(ctx context.Context, id string, in IngredientInput) (dbgen.Ingredient, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.Ingredient{}, err
	}
	ing, err := s.Q.UpdateIngredient(ctx, dbgen.UpdateIngredientParams{
		TenantID:     tid,
		ID:           iid,
		Name:         strings.TrimSpace(in.Name),
		Unit:         strings.TrimSpace(in.Unit),
		LowThreshold: in.LowThreshold,
	})
	return ing, common.DBError(err, "ingredient not found")
}

// DeleteIngredient removes an ingredient and, by cascade, its recipe lines.
func (s *Service) DeleteIngredient(ctx context.Context, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteIngredient(ctx, dbgen.DeleteIngredientParams{TenantID: tid, ID: iid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("ingredient not found")
	}
	return nil
}

// RecipeLine is one ingredient of a recipe.
type RecipeLine struct {
	IngredientID string `json:"ingredient_id" validate:"required,uuid"`
	Quantity     int64  `json:"quantity" validate:"gt=0"`
	Name         string `json:"name,omitempty" validate:"-"`
	Unit         string `json:"unit,omitempty" validate:"-"`
}

// RecipeInput replaces the recipe of a menu item.
type RecipeInput struct {
	Lines []RecipeLine `json:"lines" validate:"max=50,dive"`
}

// Recipe returns the recipe of a menu item.
func (s *Service) Recipe(ctx context.Context, menuItemID string) ([]RecipeLine, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	mid, err := common.ParseUUID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListRecipeByMenuItem(ctx, dbgen.ListRecipeByMenuItemParams{TenantID: tid, MenuItemID: mid})
	if err != nil {
		return nil, err
	}
	out := make([]RecipeLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, RecipeLine{IngredientID: common.UUIDString(r.IngredientID), Quantity: r.Quantity, Name: r.IngredientName, Unit: r.Unit})
	}
	return out, nil
}

// ReplaceRecipe swaps the whole recipe of a menu item in one transaction.
func (s *Service) ReplaceRecipe(ctx context.Context, menuItemID string, in RecipeInput) ([]RecipeLine, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	mid, err := common.ParseUUID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, l := range in.Lines {
		if seen[l.IngredientID] {
			return nil, common.BadRequest("lines", "ingredient "+l.IngredientID+" is listed twice", nil)
		}
		seen[l.IngredientID] = true
	}
	err = s.tx(ctx, func(q Querier) error {
		if _, err := q.GetMenuItemByID(ctx, dbgen.GetMenuItemByIDParams{TenantID: tid, ID: mid}); err != nil {
			return common.DBError(err, "menu item not found")
		}
		if err := q.DeleteRecipe(ctx, dbgen.DeleteRecipeParams{TenantID: tid, MenuItemID: mid}); err != nil {
			return err
		}
		for _, l := range in.Lines {
			iid, err := common.ParseUUID("ingredient_id", l.IngredientID)
			if err != nil {
				return err
			}
			if _, err := q.GetIngredientByID(ctx, dbgen.GetIngredientByIDParams{TenantID: tid, ID: iid}); err != nil {
				return common.DBError(err, "ingredient not found")
			}
			if err := q.InsertRecipeLine(ctx, dbgen.InsertRecipeLineParams{TenantID: tid, MenuItemID: mid, IngredientID: iid, Quantity: l.Quantity}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Recipe(ctx, menuItemID)
}

// MovementInput records a manual stock change. Purchase and waste take a
// positive quantity; adjust is signed.
type MovementInput struct {
	IngredientID string `json:"ingredient_id" validate:"required,uuid"`
	Kind         string `json:"kind" validate:"required,oneof=purchase waste adjust"`
	Quantity     int64  `json:"quantity" validate:"ne=0"`
	Note         string `json:"note" validate:"max=500"`
}

func (in MovementInput) delta() (int64, error) {
	switch dbgen.StockMovementKind(in.Kind) {
	case dbgen.StockMovementKindPurchase:
		if in.Quantity < 0 {
			return 0, common.BadRequest("quantity", "purchase quantity must be positive", nil)
		}
		return in.Quantity, nil
	case dbgen.StockMovementKindWaste:
		if in.Quantity < 0 {
			return 0, common.BadRequest("quantity", "waste quantity must be positive", nil)
		}
		return -in.Quantity, nil
	default:
		return in.Quantity, nil
	}
}

// RecordMovement applies a manual movement and returns the ingredient after it.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput) (dbgen.Ingredient, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.Ingredient{}, err
	}
	delta, err := in.delta()
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	iid, err := common.ParseUUID("ingredient_id", in.IngredientID)
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	var actor pgtype.UUID
	if raw, ok := common.UserID(ctx); ok {
		actor, _ = common.ParseUUID("user_id", raw)
	}
	var ing dbgen.Ingredient
	err = s.tx(ctx, func(q Querier) error {
		var err error
		ing, err = q.AdjustIngredientStock(ctx, dbgen.AdjustIngredientStockParams{TenantID: tid, ID: iid, Delta: delta})
		if err != nil {
			return common.DBError(err, "ingredient not found")
		}
		_, err = q.InsertStockMovement(ctx, dbgen.InsertStockMovementParams{
			TenantID:     tid,
			IngredientID: iid,
			Kind:         dbgen.StockMovementKind(in.Kind),
			Quantity:     delta,
			Note:         strings.TrimSpace(in.Note),
			CreatedBy:    actor,
		})
		return err
	})
	if err != nil {
		return dbgen.Ingredient{}, err
	}
	if crossed(ing, delta) {
		s.emitLow(ctx, ing.ID, []events.LowStockItem{LowItem(ing)})
	}
	return ing, nil
}

// Movements pages through stock movements, optionally for one ingredient.
func (s *Service) Movements(ctx context.Context, ingredientID string, page, perPage int) ([]dbgen.StockMovement, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	var filter any
	if ingredientID != "" {
		iid, err := common.ParseUUID("ingredient_id", ingredientID)
		if err != nil {
			return nil, 0, err
		}
		filter = iid
	}
	total, err := s.Q.CountStockMovements(ctx, dbgen.CountStockMovementsParams{TenantID: tid, IngredientID: filter})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListStockMovements(ctx, dbgen.ListStockMovementsParams{
		TenantID:     tid,
		IngredientID: filter,
		Limit:        int32(perPage),
		Offset:       common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AlertLowStock emits one inventory.low_stock event listing every ingredient
// under threshold. It is run hourly by the scheduler.
func (s *Service) AlertLowStock(ctx context.Context) (int, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := s.Q.ListLowStockIngredients(ctx, tid)
	if err != nil {
		return 0, fmt.Errorf("list low stock: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	items := make([]events.LowStockItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, LowItem(r))
	}
	s.emitLow(ctx, tid, items)
	return len(items), nil
}

func (s *Service) emitLow(ctx context.Context, aggregate pgtype.UUID, items []events.LowStockItem) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, events.TopicInventoryLowStock, aggregate, events.LowStock{Items: items}); err != nil {
		s.Log.Warn().Err(err).Int("items", len(items)).Msg("emit low stock")
	}
}
