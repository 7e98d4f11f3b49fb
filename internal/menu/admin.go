package menu

import (
	"context"
	"fmt"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// invalidate drops every cached menu payload of the tenant.
func (s *Service) invalidate(ctx context.Context) {
	_ = s.Cache.Bump(ctx, cache.MenuNamespace(ctx))
}

// CategoryInput is the admin payload for categories.
type CategoryInput struct {
	Slug        string  `json:"slug" validate:"required,max=80,slug"`
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Position    int32   `json:"position" validate:"gte=0"`
	Active      *bool   `json:"active"`
}

func (in CategoryInput) active() bool {
	return in.Active == nil || *in.Active
}

// AdminCategories lists every category, inactive ones included.
func (s *Service) AdminCategories(ctx context.Context) ([]CategoryView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListMenuCategories(ctx, dbgen.ListMenuCategoriesParams{TenantID: tid})
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, 0, len(rows))
	for _, c := range rows {
		out = append(out, categoryView(c))
	}
	return out, nil
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (CategoryView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return CategoryView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return CategoryView{}, err
	}
	c, err := s.Q.CreateMenuCategory(ctx, dbgen.CreateMenuCategoryParams{
		TenantID:    tid,
		Slug:        in.Slug,
		Name:        in.Name,
		Description: common.TextPtr(in.Description),
		Position:    in.Position,
		Active:      in.active(),
	})
	if err != nil {
		return CategoryView{}, common.DBError(err, "category not found")
	}
	s.invalidate(ctx)
	return categoryView(c), nil
}

// UpdateCategory replaces a category.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (CategoryView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return CategoryView{}, err
	}
	cid, err := common.ParseUUID("id", id)
	if err != nil {
		return CategoryView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return CategoryView{}, err
	}
	c, err := s.Q.UpdateMenuCategory(ctx, dbgen.UpdateMenuCategoryParams{
		TenantID:    tid,
		ID:          cid,
		Slug:        in.Slug,
		Name:        in.Name,
		Description: common.TextPtr(in.Description),
		Position:    in.Position,
		Active:      in.active(),
	})
	if err != nil {
		return CategoryView{}, common.DBError(err, "category not found")
	}
	s.invalidate(ctx)
	return categoryView(c), nil
}

// DeleteCategory removes a category. Its items keep existing uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	cid, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteMenuCategory(ctx, dbgen.DeleteMenuCategoryParams{TenantID: tid, ID: cid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("category not found")
	}
	s.invalidate(ctx)
	return nil
}

// ReorderInput lists category ids in their new order.
type ReorderInput struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// ReorderCategories assigns positions 0..n-1 following in.IDs.
func (s *Service) ReorderCategories(ctx context.Context, in ReorderInput) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	ids, err := common.UUIDs("ids", in.IDs)
	if err != nil {
		return err
	}
	err = s.tx(ctx, func(q Querier) error {
		for pos, id := range ids {
			n, err := q.SetMenuCategoryPosition(ctx, dbgen.SetMenuCategoryPositionParams{TenantID: tid, ID: id, Position: int32(pos)})
			if err != nil {
				return err
			}
			if n == 0 {
				return common.NotFound(fmt.Sprintf("category %s not found", common.UUIDString(id)))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ItemInput is the admin payload for menu items.
type ItemInput struct {
	CategoryID  *string  `json:"category_id" validate:"omitempty,uuid"`
	Slug        string   `json:"slug" validate:"required,max=120,slug"`
	Name        string   `json:"name" validate:"required,max=160"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       int64    `json:"price" validate:"gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url,max=1000"`
	Dietary     []string `json:"dietary" validate:"omitempty,dive,oneof=vegetarian vegan gluten_free halal spicy dairy_free nut_free"`
	Featured    bool     `json:"featured"`
	Available   *bool    `json:"available"`
	Position    int32    `json:"position" validate:"gte=0"`
}

func (in ItemInput) dietary() []string {
	if in.Dietary == nil {
		return []string{}
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in.Dietary))
	for _, d := range in.Dietary {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// CreateItem inserts a menu item.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (ItemView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ItemView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return ItemView{}, err
	}
	cat, err := uuidOrNull(in.CategoryID)
	if err != nil {
		return ItemView{}, err
	}
	it, err := s.Q.CreateMenuItem(ctx, dbgen.CreateMenuItemParams{
		TenantID:    tid,
		CategoryID:  cat,
		Slug:        in.Slug,
		Name:        in.Name,
		Description: common.TextPtr(in.Description),
		Price:       in.Price,
		ImageUrl:    common.TextPtr(in.ImageURL),
		Dietary:     in.dietary(),
		Featured:    in.Featured,
		Available:   in.Available == nil || *in.Available,
		Position:    in.Position,
	})
	if err != nil {
		return ItemView{}, common.DBError(err, "menu item not found")
	}
	s.invalidate(ctx)
	return itemView(it), nil
}

// UpdateItem replaces a menu item.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (ItemView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ItemView{}, err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return ItemView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return ItemView{}, err
	}
	cat, err := uuidOrNull(in.CategoryID)
	if err != nil {
		return ItemView{}, err
	}
	it, err := s.Q.UpdateMenuItem(ctx, dbgen.UpdateMenuItemParams{
		TenantID:    tid,
		ID:          iid,
		CategoryID:  cat,
		Slug:        in.Slug,
		Name:        in.Name,
		Description: common.TextPtr(in.Description),
		Price:       in.Price,
		ImageUrl:    common.TextPtr(in.ImageURL),
		Dietary:     in.dietary(),
		Featured:    in.Featured,
		Available:   in.Available == nil || *in.Available,
		Position:    in.Position,
	})
	if err != nil {
		return ItemView{}, common.DBError(err, "menu item not found")
	}
	s.invalidate(ctx)
	return itemView(it), nil
}

// SetAvailability toggles whether an item can be ordered.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (ItemView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ItemView{}, err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return ItemView{}, err
	}
	it, err := s.Q.SetMenuItemAvailability(ctx, dbgen.SetMenuItemAvailabilityParams{TenantID: tid, ID: iid, Available: available})
	if err != nil {
		return ItemView{}, common.DBError(err, "menu item not found")
	}
	s.invalidate(ctx)
	return itemView(it), nil
}

// DeleteItem removes a menu item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteMenuItem(ctx, dbgen.DeleteMenuItemParams{TenantID: tid, ID: iid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("menu item not found")
	}
	s.invalidate(ctx)
	return nil
}

// AdminItem returns an item with modifiers, bypassing the cache.
func (s *Service) AdminItem(ctx context.Context, id string) (ItemDetail, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ItemDetail{}, err
	}
	iid, err := common.ParseUUID("id", id)
	if err != nil {
		return ItemDetail{}, err
	}
	it, err := s.Q.GetMenuItemByID(ctx, dbgen.GetMenuItemByIDParams{TenantID: tid, ID: iid})
	if err != nil {
		return ItemDetail{}, common.DBError(err, "menu item not found")
	}
	return s.detail(ctx, s.Q, it)
}

// ModifierInput is the admin payload for modifiers.
type ModifierInput struct {
	Group      string `json:"group" validate:"required,max=60"`
	Name       string `json:"name" validate:"required,max=120"`
	PriceDelta int64  `json:"price_delta" validate:"gte=0"`
	Position   int32  `json:"position" validate:"gte=0"`
}

// CreateModifier adds an option to an item.
func (s *Service) CreateModifier(ctx context.Context, itemID string, in ModifierInput) (ModifierView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ModifierView{}, err
	}
	iid, err := common.ParseUUID("itemID", itemID)
	if err != nil {
		return ModifierView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return ModifierView{}, err
	}
	if _, err := s.Q.GetMenuItemByID(ctx, dbgen.GetMenuItemByIDParams{TenantID: tid, ID: iid}); err != nil {
		return ModifierView{}, common.DBError(err, "menu item not found")
	}
	m, err := s.Q.CreateMenuModifier(ctx, dbgen.CreateMenuModifierParams{
		TenantID:   tid,
		ItemID:     iid,
		GroupName:  in.Group,
		Name:       in.Name,
		PriceDelta: in.PriceDelta,
		Position:   in.Position,
	})
	if err != nil {
		return ModifierView{}, common.DBError(err, "modifier not found")
	}
	s.invalidate(ctx)
	return modifierView(m), nil
}

// UpdateModifier replaces an option of an item.
func (s *Service) UpdateModifier(ctx context.Context, itemID, id string, in ModifierInput) (ModifierView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ModifierView{}, err
	}
	iid, err := common.ParseUUID("itemID", itemID)
	if err != nil {
		return ModifierView{}, err
	}
	mid, err := common.ParseUUID("id", id)
	if err != nil {
		return ModifierView{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return ModifierView{}, err
	}
	m, err := s.Q.UpdateMenuModifier(ctx, dbgen.UpdateMenuModifierParams{
		TenantID:   tid,
		ItemID:     iid,
		ID:         mid,
		GroupName:  in.Group,
		Name:       in.Name,
		PriceDelta: in.PriceDelta,
		Position:   in.Position,
	})
	if err != nil {
		return ModifierView{}, common.DBError(err, "modifier not found")
	}
	s.invalidate(ctx)
	return modifierView(m), nil
}

// DeleteModifier removes an option of an item.
func (s *Service) DeleteModifier(ctx context.Context, itemID, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	iid, err := common.ParseUUID("itemID", itemID)
	if err != nil {
		return err
	}
	mid, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteMenuModifier(ctx, dbgen.DeleteMenuModifierParams{TenantID: tid, ItemID: iid, ID: mid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("modifier not found")
	}
	s.invalidate(ctx)
	return nil
}
