package dbgen

import "github.com/jackc/pgx/v5"

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows pgx.Rows, err error, scan func(scanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const tenantColumns = `id, slug, name, currency, currency_exponent, tax_rate_bps, points_earn_bps, points_redeem_ratio, max_redeem_bps, points_ttl_days, time_zone, created_at, updated_at`

func scanTenant(row scanner) (Tenant, error) {
	var i Tenant
	err := row.Scan(&i.ID, &i.Slug, &i.Name, &i.Currency, &i.CurrencyExponent, &i.TaxRateBps, &i.PointsEarnBps,
		&i.PointsRedeemRatio, &i.MaxRedeemBps, &i.PointsTtlDays, &i.TimeZone, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const userColumns = `id, tenant_id, name, email, phone, password_hash, roles, referral_code, referred_by, birthday, created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.Email, &i.Phone, &i.PasswordHash, &i.Roles, &i.ReferralCode,
		&i.ReferredBy, &i.Birthday, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const sessionColumns = `id, tenant_id, user_id, refresh_token, user_agent, ip, expires_at, created_at`

func scanSession(row scanner) (Session, error) {
	var i Session
	err := row.Scan(&i.ID, &i.TenantID, &i.UserID, &i.RefreshToken, &i.UserAgent, &i.Ip, &i.ExpiresAt, &i.CreatedAt)
	return i, err
}

const branchColumns = `id, tenant_id, slug, name, address, city, phone, email, time_zone, seating_capacity, max_party_size, slot_minutes, reservation_duration_minutes, active, created_at, updated_at`

func scanBranch(row scanner) (Branch, error) {
	var i Branch
	err := row.Scan(&i.ID, &i.TenantID, &i.Slug, &i.Name, &i.Address, &i.City, &i.Phone, &i.Email, &i.TimeZone,
		&i.SeatingCapacity, &i.MaxPartySize, &i.SlotMinutes, &i.ReservationDurationMinutes, &i.Active,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const branchHourColumns = `tenant_id, branch_id, weekday, opens_at, closes_at, closed`

func scanBranchHour(row scanner) (BranchHour, error) {
	var i BranchHour
	err := row.Scan(&i.TenantID, &i.BranchID, &i.Weekday, &i.OpensAt, &i.ClosesAt, &i.Closed)
	return i, err
}

const menuCategoryColumns = `id, tenant_id, slug, name, description, position, active, created_at, updated_at`

func scanMenuCategory(row scanner) (MenuCategory, error) {
	var i MenuCategory
	err := row.Scan(&i.ID, &i.TenantID, &i.Slug, &i.Name, &i.Description, &i.Position, &i.Active, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const menuItemColumns = `id, tenant_id, category_id, slug, name, description, price, image_url, dietary, featured, available, position, created_at, updated_at`

func scanMenuItem(row scanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(&i.ID, &i.TenantID, &i.CategoryID, &i.Slug, &i.Name, &i.Description, &i.Price, &i.ImageUrl,
		&i.Dietary, &i.Featured, &i.Available, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const menuModifierColumns = `id, tenant_id, item_id, group_name, name, price_delta, position, created_at`

func scanMenuModifier(row scanner) (MenuModifier, error) {
	var i MenuModifier
	err := row.Scan(&i.ID, &i.TenantID, &i.ItemID, &i.GroupName, &i.Name, &i.PriceDelta, &i.Position, &i.CreatedAt)
	return i, err
}

const cartColumns = `id, tenant_id, user_id, anon_id, branch_id, fulfillment, table_number, promotion_code, points_to_redeem, status, expires_at, created_at, updated_at`

func scanCart(row scanner) (Cart, error) {
	var i Cart
	err := row.Scan(&i.ID, &i.TenantID, &i.UserID, &i.AnonID, &i.BranchID, &i.Fulfillment, &i.TableNumber,
		&i.PromotionCode, &i.PointsToRedeem, &i.Status, &i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const cartItemColumns = `id, tenant_id, cart_id, menu_item_id, name, qty, unit_price, modifier_ids, modifier_key, modifiers, modifier_total, notes, created_at`

func scanCartItem(row scanner) (CartItem, error) {
	var i CartItem
	err := row.Scan(&i.ID, &i.TenantID, &i.CartID, &i.MenuItemID, &i.Name, &i.Qty, &i.UnitPrice, &i.ModifierIds,
		&i.ModifierKey, &i.Modifiers, &i.ModifierTotal, &i.Notes, &i.CreatedAt)
	return i, err
}

const promotionColumns = `id, tenant_id, code, name, kind, percent_bps, value, min_spend, usage_limit, used_count, per_user_limit, valid_from, valid_to, active, category_ids, item_ids, created_at, updated_at`

func scanPromotion(row scanner) (Promotion, error) {
	var i Promotion
	err := row.Scan(&i.ID, &i.TenantID, &i.Code, &i.Name, &i.Kind, &i.PercentBps, &i.Value, &i.MinSpend, &i.UsageLimit,
		&i.UsedCount, &i.PerUserLimit, &i.ValidFrom, &i.ValidTo, &i.Active, &i.CategoryIds, &i.ItemIds,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const promotionUsageColumns = `id, tenant_id, promotion_id, order_id, user_id, amount, created_at`

func scanPromotionUsage(row scanner) (PromotionUsage, error) {
	var i PromotionUsage
	err := row.Scan(&i.ID, &i.TenantID, &i.PromotionID, &i.OrderID, &i.UserID, &i.Amount, &i.CreatedAt)
	return i, err
}

const loyaltyTierColumns = `id, tenant_id, name, min_points, multiplier_bps, benefits, position, created_at`

func scanLoyaltyTier(row scanner) (LoyaltyTier, error) {
	var i LoyaltyTier
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.MinPoints, &i.MultiplierBps, &i.Benefits, &i.Position, &i.CreatedAt)
	return i, err
}

const loyaltyRuleColumns = `id, tenant_id, name, trigger, active, points, points_per_currency_bps, min_order_total, branch_ids, weekdays, first_order_only, valid_from, valid_to, created_at, updated_at`

func scanLoyaltyRule(row scanner) (LoyaltyRule, error) {
	var i LoyaltyRule
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.Trigger, &i.Active, &i.Points, &i.PointsPerCurrencyBps,
		&i.MinOrderTotal, &i.BranchIds, &i.Weekdays, &i.FirstOrderOnly, &i.ValidFrom, &i.ValidTo,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const loyaltyAccountColumns = `id, tenant_id, user_id, balance, lifetime_points, tier_id, created_at, updated_at`

func scanLoyaltyAccount(row scanner) (LoyaltyAccount, error) {
	var i LoyaltyAccount
	err := row.Scan(&i.ID, &i.TenantID, &i.UserID, &i.Balance, &i.LifetimePoints, &i.TierID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const loyaltyTransactionColumns = `id, tenant_id, account_id, kind, points, order_id, rule_id, reason, source_key, expires_at, expired, created_at`

func scanLoyaltyTransaction(row scanner) (LoyaltyTransaction, error) {
	var i LoyaltyTransaction
	err := row.Scan(&i.ID, &i.TenantID, &i.AccountID, &i.Kind, &i.Points, &i.OrderID, &i.RuleID, &i.Reason,
		&i.SourceKey, &i.ExpiresAt, &i.Expired, &i.CreatedAt)
	return i, err
}

const orderColumns = `id, tenant_id, code, user_id, branch_id, cart_id, fulfillment, status, guest_name, guest_phone, guest_email, notes, table_number, currency, subtotal, promo_discount, points_discount, tax, total, points_redeemed, points_earned, promotion_code, completed_at, created_at, updated_at`

func scanOrder(row scanner) (Order, error) {
	var i Order
	err := row.Scan(&i.ID, &i.TenantID, &i.Code, &i.UserID, &i.BranchID, &i.CartID, &i.Fulfillment, &i.Status,
		&i.GuestName, &i.GuestPhone, &i.GuestEmail, &i.Notes, &i.TableNumber, &i.Currency, &i.Subtotal,
		&i.PromoDiscount, &i.PointsDiscount, &i.Tax, &i.Total, &i.PointsRedeemed, &i.PointsEarned,
		&i.PromotionCode, &i.CompletedAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const orderItemColumns = `id, tenant_id, order_id, menu_item_id, name, qty, unit_price, modifiers, modifier_total, line_total, notes`

func scanOrderItem(row scanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(&i.ID, &i.TenantID, &i.OrderID, &i.MenuItemID, &i.Name, &i.Qty, &i.UnitPrice, &i.Modifiers,
		&i.ModifierTotal, &i.LineTotal, &i.Notes)
	return i, err
}

const orderStatusHistoryColumns = `id, tenant_id, order_id, from_status, to_status, note, changed_by, created_at`

func scanOrderStatusHistory(row scanner) (OrderStatusHistory, error) {
	var i OrderStatusHistory
	err := row.Scan(&i.ID, &i.TenantID, &i.OrderID, &i.FromStatus, &i.ToStatus, &i.Note, &i.ChangedBy, &i.CreatedAt)
	return i, err
}

const reservationColumns = `id, tenant_id, code, branch_id, user_id, name, phone, email, party_size, reserved_at, duration_minutes, status, notes, confirmed_at, cancelled_at, cancel_reason, created_at, updated_at`

func scanReservation(row scanner) (Reservation, error) {
	var i Reservation
	err := row.Scan(&i.ID, &i.TenantID, &i.Code, &i.BranchID, &i.UserID, &i.Name, &i.Phone, &i.Email, &i.PartySize,
		&i.ReservedAt, &i.DurationMinutes, &i.Status, &i.Notes, &i.ConfirmedAt, &i.CancelledAt, &i.CancelReason,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const ingredientColumns = `id, tenant_id, name, unit, on_hand, low_threshold, created_at, updated_at`

func scanIngredient(row scanner) (Ingredient, error) {
	var i Ingredient
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.Unit, &i.OnHand, &i.LowThreshold, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const recipeColumns = `tenant_id, menu_item_id, ingredient_id, quantity`

func scanRecipe(row scanner) (Recipe, error) {
	var i Recipe
	err := row.Scan(&i.TenantID, &i.MenuItemID, &i.IngredientID, &i.Quantity)
	return i, err
}

const stockMovementColumns = `id, tenant_id, ingredient_id, kind, quantity, order_id, note, created_by, created_at`

func scanStockMovement(row scanner) (StockMovement, error) {
	var i StockMovement
	err := row.Scan(&i.ID, &i.TenantID, &i.IngredientID, &i.Kind, &i.Quantity, &i.OrderID, &i.Note, &i.CreatedBy, &i.CreatedAt)
	return i, err
}

const cmsPageColumns = `id, tenant_id, slug, title, body, kind, published, position, created_at, updated_at`

func scanCmsPage(row scanner) (CmsPage, error) {
	var i CmsPage
	err := row.Scan(&i.ID, &i.TenantID, &i.Slug, &i.Title, &i.Body, &i.Kind, &i.Published, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const reviewColumns = `id, tenant_id, menu_item_id, user_id, rating, comment, created_at`

func scanReview(row scanner) (Review, error) {
	var i Review
	err := row.Scan(&i.ID, &i.TenantID, &i.MenuItemID, &i.UserID, &i.Rating, &i.Comment, &i.CreatedAt)
	return i, err
}

const auditLogColumns = `id, tenant_id, actor_kind, actor_user_id, action, resource_type, resource_id, method, path, route, status, ip, user_agent, request_id, metadata, created_at`

func scanAuditLog(row scanner) (AuditLog, error) {
	var i AuditLog
	err := row.Scan(&i.ID, &i.TenantID, &i.ActorKind, &i.ActorUserID, &i.Action, &i.ResourceType, &i.ResourceID,
		&i.Method, &i.Path, &i.Route, &i.Status, &i.Ip, &i.UserAgent, &i.RequestID, &i.Metadata, &i.CreatedAt)
	return i, err
}
