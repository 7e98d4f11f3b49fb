package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier lists every query in the package.
type Querier interface {
	AdjustIngredientStock(ctx context.Context, arg AdjustIngredientStockParams) (Ingredient, error)
	CountAuditLogs(ctx context.Context, tenantID pgtype.UUID) (int64, error)
	CountCompletedOrdersByUser(ctx context.Context, arg CountCompletedOrdersByUserParams) (int64, error)
	CountLoyaltyTransactions(ctx context.Context, arg CountLoyaltyTransactionsParams) (int64, error)
	CountMenuItemsPublic(ctx context.Context, arg CountMenuItemsPublicParams) (int64, error)
	CountOrdersAdmin(ctx context.Context, arg CountOrdersAdminParams) (int64, error)
	CountOrdersByUser(ctx context.Context, arg CountOrdersByUserParams) (int64, error)
	CountPromotionUsageByUser(ctx context.Context, arg CountPromotionUsageByUserParams) (int64, error)
	CountPromotions(ctx context.Context, arg CountPromotionsParams) (int64, error)
	CountReservationsAdmin(ctx context.Context, arg CountReservationsAdminParams) (int64, error)
	CountStockMovements(ctx context.Context, arg CountStockMovementsParams) (int64, error)
	CountUsers(ctx context.Context, tenantID pgtype.UUID) (int64, error)
	CreateBranch(ctx context.Context, arg CreateBranchParams) (Branch, error)
	CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error)
	CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error)
	CreateCmsPage(ctx context.Context, arg CreateCmsPageParams) (CmsPage, error)
	CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error)
	CreateLoyaltyRule(ctx context.Context, arg CreateLoyaltyRuleParams) (LoyaltyRule, error)
	CreateLoyaltyTier(ctx context.Context, arg CreateLoyaltyTierParams) (LoyaltyTier, error)
	CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error)
	CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error)
	CreateMenuModifier(ctx context.Context, arg CreateMenuModifierParams) (MenuModifier, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	CreatePromotion(ctx context.Context, arg CreatePromotionParams) (Promotion, error)
	CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error)
	CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error)
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	DeleteBranchHours(ctx context.Context, arg DeleteBranchHoursParams) error
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error)
	DeleteCmsPage(ctx context.Context, arg DeleteCmsPageParams) (int64, error)
	DeleteIngredient(ctx context.Context, arg DeleteIngredientParams) (int64, error)
	DeleteLoyaltyRule(ctx context.Context, arg DeleteLoyaltyRuleParams) (int64, error)
	DeleteLoyaltyTier(ctx context.Context, arg DeleteLoyaltyTierParams) (int64, error)
	DeleteMenuCategory(ctx context.Context, arg DeleteMenuCategoryParams) (int64, error)
	DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) (int64, error)
	DeleteMenuModifier(ctx context.Context, arg DeleteMenuModifierParams) (int64, error)
	DeleteRecipe(ctx context.Context, arg DeleteRecipeParams) error
	DeleteReview(ctx context.Context, arg DeleteReviewParams) (int64, error)
	DeleteSessionByToken(ctx context.Context, refreshToken string) error
	EnsureLoyaltyAccount(ctx context.Context, arg EnsureLoyaltyAccountParams) (LoyaltyAccount, error)
	ExpireCart(ctx context.Context, arg ExpireCartParams) error
	FindCartItem(ctx context.Context, arg FindCartItemParams) (CartItem, error)
	FindUserByContact(ctx context.Context, arg FindUserByContactParams) (User, error)
	GetActiveCartByAnon(ctx context.Context, arg GetActiveCartByAnonParams) (Cart, error)
	GetActiveCartByUser(ctx context.Context, arg GetActiveCartByUserParams) (Cart, error)
	GetBranchByID(ctx context.Context, arg GetBranchByIDParams) (Branch, error)
	GetBranchBySlug(ctx context.Context, arg GetBranchBySlugParams) (Branch, error)
	GetCartByID(ctx context.Context, arg GetCartByIDParams) (Cart, error)
	GetCartByIDForUpdate(ctx context.Context, arg GetCartByIDParams) (Cart, error)
	GetCartItemByID(ctx context.Context, arg GetCartItemByIDParams) (CartItem, error)
	GetCmsPageByID(ctx context.Context, arg GetCmsPageByIDParams) (CmsPage, error)
	GetCmsPageBySlug(ctx context.Context, arg GetCmsPageBySlugParams) (CmsPage, error)
	GetIngredientByID(ctx context.Context, arg GetIngredientByIDParams) (Ingredient, error)
	GetLoyaltyAccountByIDForUpdate(ctx context.Context, arg GetLoyaltyAccountByIDForUpdateParams) (LoyaltyAccount, error)
	GetLoyaltyAccountByUser(ctx context.Context, arg GetLoyaltyAccountByUserParams) (LoyaltyAccount, error)
	GetLoyaltyAccountByUserForUpdate(ctx context.Context, arg GetLoyaltyAccountByUserParams) (LoyaltyAccount, error)
	GetLoyaltyTransactionBySourceKey(ctx context.Context, arg GetLoyaltyTransactionBySourceKeyParams) (LoyaltyTransaction, error)
	GetMenuCategoryByID(ctx context.Context, arg GetMenuCategoryByIDParams) (MenuCategory, error)
	GetMenuItemByID(ctx context.Context, arg GetMenuItemByIDParams) (MenuItem, error)
	GetMenuItemBySlug(ctx context.Context, arg GetMenuItemBySlugParams) (MenuItem, error)
	GetOrderByCode(ctx context.Context, arg GetOrderByCodeParams) (Order, error)
	GetOrderByID(ctx context.Context, arg GetOrderByIDParams) (Order, error)
	GetPromotionByCode(ctx context.Context, arg GetPromotionByCodeParams) (Promotion, error)
	GetPromotionByCodeForUpdate(ctx context.Context, arg GetPromotionByCodeParams) (Promotion, error)
	GetPromotionByID(ctx context.Context, arg GetPromotionByIDParams) (Promotion, error)
	GetPromotionUsageByOrder(ctx context.Context, arg GetPromotionUsageByOrderParams) (PromotionUsage, error)
	GetReservationByCode(ctx context.Context, arg GetReservationByCodeParams) (Reservation, error)
	GetReservationByID(ctx context.Context, arg GetReservationByIDParams) (Reservation, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (Session, error)
	GetTenantByID(ctx context.Context, id pgtype.UUID) (Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (Tenant, error)
	GetUserByEmail(ctx context.Context, arg GetUserByEmailParams) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)
	GetUserByReferralCode(ctx context.Context, arg GetUserByReferralCodeParams) (User, error)
	HasCompletedOrderWithItem(ctx context.Context, arg HasCompletedOrderWithItemParams) (bool, error)
	IncreasePromotionUsedCount(ctx context.Context, id pgtype.UUID) error
	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error)
	InsertBranchHour(ctx context.Context, arg InsertBranchHourParams) error
	InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error)
	InsertLoyaltyTransaction(ctx context.Context, arg InsertLoyaltyTransactionParams) (LoyaltyTransaction, error)
	InsertOrderStatusHistory(ctx context.Context, arg InsertOrderStatusHistoryParams) error
	InsertPromotionUsage(ctx context.Context, arg InsertPromotionUsageParams) (PromotionUsage, error)
	InsertRecipeLine(ctx context.Context, arg InsertRecipeLineParams) error
	InsertStockMovement(ctx context.Context, arg InsertStockMovementParams) (StockMovement, error)
	ListActiveReservationsInRange(ctx context.Context, arg ListActiveReservationsInRangeParams) ([]Reservation, error)
	ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error)
	ListBranchHours(ctx context.Context, arg ListBranchHoursParams) ([]BranchHour, error)
	ListBranches(ctx context.Context, arg ListBranchesParams) ([]Branch, error)
	ListCartItems(ctx context.Context, arg ListCartItemsParams) ([]CartItem, error)
	ListCmsPages(ctx context.Context, arg ListCmsPagesParams) ([]CmsPage, error)
	ListExpiringLoyaltyTransactions(ctx context.Context, arg ListExpiringLoyaltyTransactionsParams) ([]LoyaltyTransaction, error)
	ListIngredients(ctx context.Context, tenantID pgtype.UUID) ([]Ingredient, error)
	ListLowStockIngredients(ctx context.Context, tenantID pgtype.UUID) ([]Ingredient, error)
	ListLoyaltyRules(ctx context.Context, arg ListLoyaltyRulesParams) ([]LoyaltyRule, error)
	ListLoyaltyTiers(ctx context.Context, tenantID pgtype.UUID) ([]LoyaltyTier, error)
	ListLoyaltyTransactions(ctx context.Context, arg ListLoyaltyTransactionsParams) ([]LoyaltyTransaction, error)
	ListMenuCategories(ctx context.Context, arg ListMenuCategoriesParams) ([]MenuCategory, error)
	ListMenuItemsByIDs(ctx context.Context, arg ListMenuItemsByIDsParams) ([]MenuItem, error)
	ListMenuItemsPublic(ctx context.Context, arg ListMenuItemsPublicParams) ([]MenuItem, error)
	ListModifiersByIDs(ctx context.Context, arg ListModifiersByIDsParams) ([]MenuModifier, error)
	ListModifiersByItem(ctx context.Context, arg ListModifiersByItemParams) ([]MenuModifier, error)
	ListOrderItems(ctx context.Context, arg ListOrderItemsParams) ([]OrderItem, error)
	ListOrderStatusHistory(ctx context.Context, arg ListOrderStatusHistoryParams) ([]OrderStatusHistory, error)
	ListOrdersAdmin(ctx context.Context, arg ListOrdersAdminParams) ([]Order, error)
	ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error)
	ListPromotions(ctx context.Context, arg ListPromotionsParams) ([]Promotion, error)
	ListRecipeByMenuItem(ctx context.Context, arg ListRecipeByMenuItemParams) ([]ListRecipeByMenuItemRow, error)
	ListRecipeLinesForItems(ctx context.Context, arg ListRecipeLinesForItemsParams) ([]Recipe, error)
	ListReservationsAdmin(ctx context.Context, arg ListReservationsAdminParams) ([]Reservation, error)
	ListReviewsByMenuItem(ctx context.Context, arg ListReviewsByMenuItemParams) ([]ListReviewsByMenuItemRow, error)
	ListStaleConfirmedReservations(ctx context.Context, arg ListStaleConfirmedReservationsParams) ([]Reservation, error)
	ListStockMovements(ctx context.Context, arg ListStockMovementsParams) ([]StockMovement, error)
	ListStockMovementsByOrder(ctx context.Context, arg ListStockMovementsByOrderParams) ([]StockMovement, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error)
	ListUsersByBirthday(ctx context.Context, arg ListUsersByBirthdayParams) ([]User, error)
	LockBranchReservations(ctx context.Context, branchID pgtype.UUID) error
	LoyaltyMembersByTier(ctx context.Context, tenantID pgtype.UUID) ([]LoyaltyMembersByTierRow, error)
	LoyaltyTotals(ctx context.Context, arg LoyaltyTotalsParams) (LoyaltyTotalsRow, error)
	MarkCartCheckedOut(ctx context.Context, arg MarkCartCheckedOutParams) (int64, error)
	MarkLoyaltyTransactionsExpired(ctx context.Context, arg MarkLoyaltyTransactionsExpiredParams) (int64, error)
	ReservationsByStatus(ctx context.Context, arg ReservationsByStatusParams) ([]ReservationsByStatusRow, error)
	ReviewStatsByMenuItem(ctx context.Context, arg ReviewStatsByMenuItemParams) (ReviewStatsByMenuItemRow, error)
	RotateSessionToken(ctx context.Context, arg RotateSessionTokenParams) (Session, error)
	SalesByDay(ctx context.Context, arg SalesByDayParams) ([]SalesByDayRow, error)
	SetBranchActive(ctx context.Context, arg SetBranchActiveParams) (Branch, error)
	SetMenuCategoryPosition(ctx context.Context, arg SetMenuCategoryPositionParams) (int64, error)
	SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error)
	SetOrderPointsEarned(ctx context.Context, arg SetOrderPointsEarnedParams) error
	SetPromotionActive(ctx context.Context, arg SetPromotionActiveParams) (Promotion, error)
	TopMenuItems(ctx context.Context, arg TopMenuItemsParams) ([]TopMenuItemsRow, error)
	TouchCart(ctx context.Context, arg TouchCartParams) error
	TransferCartToUser(ctx context.Context, arg TransferCartToUserParams) error
	UpdateBranch(ctx context.Context, arg UpdateBranchParams) (Branch, error)
	UpdateCartContext(ctx context.Context, arg UpdateCartContextParams) (Cart, error)
	UpdateCartItemQty(ctx context.Context, arg UpdateCartItemQtyParams) (CartItem, error)
	UpdateCartPoints(ctx context.Context, arg UpdateCartPointsParams) error
	UpdateCartPromotion(ctx context.Context, arg UpdateCartPromotionParams) error
	UpdateCmsPage(ctx context.Context, arg UpdateCmsPageParams) (CmsPage, error)
	UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error)
	UpdateLoyaltyAccountBalance(ctx context.Context, arg UpdateLoyaltyAccountBalanceParams) (LoyaltyAccount, error)
	UpdateLoyaltyRule(ctx context.Context, arg UpdateLoyaltyRuleParams) (LoyaltyRule, error)
	UpdateLoyaltyTier(ctx context.Context, arg UpdateLoyaltyTierParams) (LoyaltyTier, error)
	UpdateMenuCategory(ctx context.Context, arg UpdateMenuCategoryParams) (MenuCategory, error)
	UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error)
	UpdateMenuModifier(ctx context.Context, arg UpdateMenuModifierParams) (MenuModifier, error)
	UpdateOrderStatusIfAllowed(ctx context.Context, arg UpdateOrderStatusIfAllowedParams) (Order, error)
	UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error)
	UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error)
	UpdateTenantSettings(ctx context.Context, arg UpdateTenantSettingsParams) (Tenant, error)
	UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error)
	UpdateUserRoles(ctx context.Context, arg UpdateUserRolesParams) (User, error)
}

var _ Querier = (*Queries)(nil)
