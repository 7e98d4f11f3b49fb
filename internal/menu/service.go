// Package menu serves the public menu and its back-office management.
package menu

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// DietaryFlags lists the accepted dietary labels.
var DietaryFlags = []string{"vegetarian", "vegan", "gluten_free", "halal", "spicy", "dairy_free", "nut_free"}

// IsDietaryFlag reports whether v is a known dietary label.
func IsDietaryFlag(v string) bool {
	for _, f := range DietaryFlags {
		if f == v {
			return true
		}
	}
	return false
}

// Querier is the storage surface of the menu service.
type Querier interface {
	Reader
	ListMenuCategories(ctx context.Context, arg dbgen.ListMenuCategoriesParams) ([]dbgen.MenuCategory, error)
	GetMenuCategoryByID(ctx context.Context, arg dbgen.GetMenuCategoryByIDParams) (dbgen.MenuCategory, error)
	CreateMenuCategory(ctx context.Context, arg dbgen.CreateMenuCategoryParams) (dbgen.MenuCategory, error)
	UpdateMenuCategory(ctx context.Context, arg dbgen.UpdateMenuCategoryParams) (dbgen.MenuCategory, error)
	SetMenuCategoryPosition(ctx context.Context, arg dbgen.SetMenuCategoryPositionParams) (int64, error)
	DeleteMenuCategory(ctx context.Context, arg dbgen.DeleteMenuCategoryParams) (int64, error)
	CountMenuItemsPublic(ctx context.Context, arg dbgen.CountMenuItemsPublicParams) (int64, error)
	ListMenuItemsPublic(ctx context.Context, arg dbgen.ListMenuItemsPublicParams) ([]dbgen.MenuItem, error)
	GetMenuItemBySlug(ctx context.Context, arg dbgen.GetMenuItemBySlugParams) (dbgen.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg dbgen.CreateMenuItemParams) (dbgen.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg dbgen.UpdateMenuItemParams) (dbgen.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg dbgen.SetMenuItemAvailabilityParams) (dbgen.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg dbgen.DeleteMenuItemParams) (int64, error)
	ListModifiersByItem(ctx context.Context, arg dbgen.ListModifiersByItemParams) ([]dbgen.MenuModifier, error)
	CreateMenuModifier(ctx context.Context, arg dbgen.CreateMenuModifierParams) (dbgen.MenuModifier, error)
	UpdateMenuModifier(ctx context.Context, arg dbgen.UpdateMenuModifierParams) (dbgen.MenuModifier, error)
	DeleteMenuModifier(ctx context.Context, arg dbgen.DeleteMenuModifierParams) (int64, error)
}

// Service orchestrates menu queries, DTO assembly and caching.
type Service struct {
	Q            Querier
	Tx           repo.TxFunc[Querier]
	Cache        *cache.Cache
	DefaultLimit int
}

func (s *Service) tx(ctx context.Context, fn func(q Querier) error) error {
	if s.Tx != nil {
		return s.Tx(ctx, fn)
	}
	return fn(s.Q)
}

// ListParams captures filters for item listing.
type ListParams struct {
	Query     string `json:"q,omitempty"`
	Category  string `json:"category,omitempty"`
	Dietary   string `json:"dietary,omitempty"`
	Featured  *bool  `json:"featured,omitempty"`
	Available *bool  `json:"available,omitempty"`
	MinPrice  *int64 `json:"min_price,omitempty"`
	MaxPrice  *int64 `json:"max_price,omitempty"`
	Sort      string `json:"sort,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// cacheSuffix is a canonical encoding of the params used in cache keys.
func (p ListParams) cacheSuffix() string {
	var b strings.Builder
	b.WriteString("items")
	add := func(k, v string) {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	add("q", strings.ToLower(p.Query))
	add("c", p.Category)
	add("d", p.Dietary)
	if p.Featured != nil {
		add("f", strconv.FormatBool(*p.Featured))
	}
	if p.Available != nil {
		add("a", strconv.FormatBool(*p.Available))
	}
	if p.MinPrice != nil {
		add("min", strconv.FormatInt(*p.MinPrice, 10))
	}
	if p.MaxPrice != nil {
		add("max", strconv.FormatInt(*p.MaxPrice, 10))
	}
	add("s", p.Sort)
	add("p", strconv.Itoa(p.Page))
	add("l", strconv.Itoa(p.Limit))
	return b.String()
}

// ItemView is the public representation of a menu item.
type ItemView struct {
	ID          string   `json:"id"`
	CategoryID  *string  `json:"category_id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       int64    `json:"price"`
	ImageURL    *string  `json:"image_url"`
	Dietary     []string `json:"dietary"`
	Featured    bool     `json:"featured"`
	Available   bool     `json:"available"`
	Position    int32    `json:"position"`
}

// ModifierView is a selectable option on an item.
type ModifierView struct {
	ID         string `json:"id"`
	Group      string `json:"group"`
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta"`
	Position   int32  `json:"position"`
}

// ItemDetail is an item with its modifiers.
type ItemDetail struct {
	ItemView
	Modifiers []ModifierView `json:"modifiers"`
}

// CategoryView is the public representation of a category.
type CategoryView struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Position    int32   `json:"position"`
	Active      bool    `json:"active"`
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []ItemView `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"-"`
	Limit int        `json:"-"`
}

func itemView(it dbgen.MenuItem) ItemView {
	dietary := it.Dietary
	if dietary == nil {
		dietary = []string{}
	}
	return ItemView{
		ID:          common.UUIDString(it.ID),
		CategoryID:  common.UUIDPtr(it.CategoryID),
		Slug:        it.Slug,
		Name:        it.Name,
		Description: common.StringPtr(it.Description),
		Price:       it.Price,
		ImageURL:    common.StringPtr(it.ImageUrl),
		Dietary:     dietary,
		Featured:    it.Featured,
		Available:   it.Available,
		Position:    it.Position,
	}
}

func modifierView(m dbgen.MenuModifier) ModifierView {
	return ModifierView{
		ID:         common.UUIDString(m.ID),
		Group:      m.GroupName,
		Name:       m.Name,
		PriceDelta: m.PriceDelta,
		Position:   m.Position,
	}
}

func categoryView(c dbgen.MenuCategory) CategoryView {
	return CategoryView{
		ID:          common.UUIDString(c.ID),
		Slug:        c.Slug,
		Name:        c.Name,
		Description: common.StringPtr(c.Description),
		Position:    c.Position,
		Active:      c.Active,
	}
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	limit := s.DefaultLimit
	if limit < 1 {
		limit = 20
	}
	params := ListParams{Page: 1, Limit: limit}
	params.Query = strings.TrimSpace(values.Get("q"))
	params.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("dietary")); v != "" {
		if !IsDietaryFlag(v) {
			return params, common.BadRequest("dietary", "dietary must be one of: "+strings.Join(DietaryFlags, ", "), nil)
		}
		params.Dietary = v
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = l
	}
	if params.Limit > common.MaxPerPage {
		params.Limit = common.MaxPerPage
	}
	for _, p := range []struct {
		name string
		dst  **int64
	}{{"min_price", &params.MinPrice}, {"max_price", &params.MaxPrice}} {
		if v := strings.TrimSpace(values.Get(p.name)); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil || parsed < 0 {
				return params, common.BadRequest(p.name, p.name+" must be a non-negative integer", err)
			}
			*p.dst = &parsed
		}
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return params, common.BadRequest("price", "min_price cannot be greater than max_price", nil)
	}
	for _, p := range []struct {
		name string
		dst  **bool
	}{{"featured", &params.Featured}, {"available", &params.Available}} {
		if v := strings.TrimSpace(values.Get(p.name)); v != "" {
			b, err := parseBool(v)
			if err != nil {
				return params, common.BadRequest(p.name, p.name+" must be true or false", err)
			}
			*p.dst = &b
		}
	}
	params.Sort = normalizeSort(values.Get("sort"))
	return params, nil
}

// Categories returns active categories ordered by position.
func (s *Service) Categories(ctx context.Context) ([]CategoryView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	key := s.Cache.Versioned(ctx, cache.MenuNamespace(ctx), "categories")
	var cached []CategoryView
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.ListMenuCategories(ctx, dbgen.ListMenuCategoriesParams{TenantID: tid, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]CategoryView, 0, len(rows))
	for _, c := range rows {
		out = append(out, categoryView(c))
	}
	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// ListItems returns a filtered, paginated item listing.
func (s *Service) ListItems(ctx context.Context, params ListParams) (ListResult, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ListResult{}, err
	}
	key := s.Cache.Versioned(ctx, cache.MenuNamespace(ctx), params.cacheSuffix())
	var cached ListResult
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		cached.Page, cached.Limit = params.Page, params.Limit
		return cached, nil
	}

	countParams := dbgen.CountMenuItemsPublicParams{
		TenantID:     tid,
		CategorySlug: optionalString(params.Category),
		Dietary:      optionalString(params.Dietary),
		Q:            optionalString(params.Query),
		Featured:     optionalBool(params.Featured),
		Available:    optionalBool(params.Available),
		MinPrice:     optionalInt64(params.MinPrice),
		MaxPrice:     optionalInt64(params.MaxPrice),
	}
	total, err := s.Q.CountMenuItemsPublic(ctx, countParams)
	if err != nil {
		return ListResult{}, fmt.Errorf("count menu items: %w", err)
	}
	rows, err := s.Q.ListMenuItemsPublic(ctx, dbgen.ListMenuItemsPublicParams{
		TenantID:     tid,
		CategorySlug: countParams.CategorySlug,
		Dietary:      countParams.Dietary,
		Q:            countParams.Q,
		Featured:     countParams.Featured,
		Available:    countParams.Available,
		MinPrice:     countParams.MinPrice,
		MaxPrice:     countParams.MaxPrice,
		Sort:         optionalString(params.Sort),
		LimitValue:   int32(params.Limit),
		OffsetValue:  common.Offset(params.Page, params.Limit),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list menu items: %w", err)
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemView(row))
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}

// ItemBySlug returns an item with its modifiers.
func (s *Service) ItemBySlug(ctx context.Context, slug string) (ItemDetail, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return ItemDetail{}, err
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ItemDetail{}, common.BadRequest("slug", "slug is required", nil)
	}
	key := s.Cache.Versioned(ctx, cache.MenuNamespace(ctx), "item:"+slug)
	var cached ItemDetail
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	item, err := s.Q.GetMenuItemBySlug(ctx, dbgen.GetMenuItemBySlugParams{TenantID: tid, Slug: slug})
	if err != nil {
		return ItemDetail{}, common.DBError(err, "menu item not found")
	}
	detail, err := s.detail(ctx, s.Q, item)
	if err != nil {
		return ItemDetail{}, err
	}
	_ = s.Cache.SetJSON(ctx, key, detail)
	return detail, nil
}

func (s *Service) detail(ctx context.Context, q Querier, item dbgen.MenuItem) (ItemDetail, error) {
	mods, err := q.ListModifiersByItem(ctx, dbgen.ListModifiersByItemParams{TenantID: item.TenantID, ItemID: item.ID})
	if err != nil {
		return ItemDetail{}, fmt.Errorf("list modifiers: %w", err)
	}
	detail := ItemDetail{ItemView: itemView(item), Modifiers: make([]ModifierView, 0, len(mods))}
	for _, m := range mods {
		detail.Modifiers = append(detail.Modifiers, modifierView(m))
	}
	return detail, nil
}

func optionalString(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

func optionalInt64(ptr *int64) any {
	if ptr == nil {
		return nil
	}
	return *ptr
}

func optionalBool(ptr *bool) any {
	if ptr == nil {
		return nil
	}
	return *ptr
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", value)
	}
}

func normalizeSort(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "price:asc", "price:desc", "name:asc", "name:desc":
		return s
	default:
		return ""
	}
}

func uuidOrNull(id *string) (pgtype.UUID, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return pgtype.UUID{}, nil
	}
	return common.ParseUUID("category_id", *id)
}
