package dbgen

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
)

func (e *CartStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = CartStatus(s)
	case string:
		*e = CartStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for CartStatus: %T", src)
	}
	return nil
}

type CmsPageKind string

const (
	CmsPageKindPage         CmsPageKind = "page"
	CmsPageKindBanner       CmsPageKind = "banner"
	CmsPageKindAnnouncement CmsPageKind = "announcement"
)

func (e *CmsPageKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = CmsPageKind(s)
	case string:
		*e = CmsPageKind(s)
	default:
		return fmt.Errorf("unsupported scan type for CmsPageKind: %T", src)
	}
	return nil
}

type Fulfillment string

const (
	FulfillmentPickup   Fulfillment = "pickup"
	FulfillmentDineIn   Fulfillment = "dine_in"
	FulfillmentDelivery Fulfillment = "delivery"
)

func (e *Fulfillment) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = Fulfillment(s)
	case string:
		*e = Fulfillment(s)
	default:
		return fmt.Errorf("unsupported scan type for Fulfillment: %T", src)
	}
	return nil
}

type LoyaltyTrigger string

const (
	LoyaltyTriggerOrderPlaced LoyaltyTrigger = "order_placed"
	LoyaltyTriggerSignup      LoyaltyTrigger = "signup"
	LoyaltyTriggerReferral    LoyaltyTrigger = "referral"
	LoyaltyTriggerBirthday    LoyaltyTrigger = "birthday"
	LoyaltyTriggerReview      LoyaltyTrigger = "review"
)

func (e *LoyaltyTrigger) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = LoyaltyTrigger(s)
	case string:
		*e = LoyaltyTrigger(s)
	default:
		return fmt.Errorf("unsupported scan type for LoyaltyTrigger: %T", src)
	}
	return nil
}

type LoyaltyTxnKind string

const (
	LoyaltyTxnKindEarn   LoyaltyTxnKind = "earn"
	LoyaltyTxnKindRedeem LoyaltyTxnKind = "redeem"
	LoyaltyTxnKindAdjust LoyaltyTxnKind = "adjust"
	LoyaltyTxnKindExpire LoyaltyTxnKind = "expire"
)

func (e *LoyaltyTxnKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = LoyaltyTxnKind(s)
	case string:
		*e = LoyaltyTxnKind(s)
	default:
		return fmt.Errorf("unsupported scan type for LoyaltyTxnKind: %T", src)
	}
	return nil
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

type PromotionKind string

const (
	PromotionKindPercent PromotionKind = "percent"
	PromotionKindFixed   PromotionKind = "fixed"
)

func (e *PromotionKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = PromotionKind(s)
	case string:
		*e = PromotionKind(s)
	default:
		return fmt.Errorf("unsupported scan type for PromotionKind: %T", src)
	}
	return nil
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusNoShow    ReservationStatus = "no_show"
)

func (e *ReservationStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ReservationStatus(s)
	case string:
		*e = ReservationStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ReservationStatus: %T", src)
	}
	return nil
}

type StockMovementKind string

const (
	StockMovementKindPurchase StockMovementKind = "purchase"
	StockMovementKindWaste    StockMovementKind = "waste"
	StockMovementKindAdjust   StockMovementKind = "adjust"
	StockMovementKindUsage    StockMovementKind = "usage"
	StockMovementKindRestock  StockMovementKind = "restock"
)

func (e *StockMovementKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = StockMovementKind(s)
	case string:
		*e = StockMovementKind(s)
	default:
		return fmt.Errorf("unsupported scan type for StockMovementKind: %T", src)
	}
	return nil
}

type AuditLog struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	ActorKind    string             `json:"actor_kind"`
	ActorUserID  pgtype.UUID        `json:"actor_user_id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   pgtype.Text        `json:"resource_id"`
	Method       string             `json:"method"`
	Path         string             `json:"path"`
	Route        pgtype.Text        `json:"route"`
	Status       int32              `json:"status"`
	Ip           pgtype.Text        `json:"ip"`
	UserAgent    pgtype.Text        `json:"user_agent"`
	RequestID    pgtype.Text        `json:"request_id"`
	Metadata     []byte             `json:"metadata"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Branch struct {
	ID                         pgtype.UUID        `json:"id"`
	TenantID                   pgtype.UUID        `json:"tenant_id"`
	Slug                       string             `json:"slug"`
	Name                       string             `json:"name"`
	Address                    string             `json:"address"`
	City                       string             `json:"city"`
	Phone                      pgtype.Text        `json:"phone"`
	Email                      pgtype.Text        `json:"email"`
	TimeZone                   string             `json:"time_zone"`
	SeatingCapacity            int32              `json:"seating_capacity"`
	MaxPartySize               int32              `json:"max_party_size"`
	SlotMinutes                int32              `json:"slot_minutes"`
	ReservationDurationMinutes int32              `json:"reservation_duration_minutes"`
	Active                     bool               `json:"active"`
	CreatedAt                  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt                  pgtype.Timestamptz `json:"updated_at"`
}

type BranchHour struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID pgtype.UUID `json:"branch_id"`
	Weekday  int32       `json:"weekday"`
	OpensAt  int32       `json:"opens_at"`
	ClosesAt int32       `json:"closes_at"`
	Closed   bool        `json:"closed"`
}

type Cart struct {
	ID             pgtype.UUID        `json:"id"`
	TenantID       pgtype.UUID        `json:"tenant_id"`
	UserID         pgtype.UUID        `json:"user_id"`
	AnonID         pgtype.Text        `json:"anon_id"`
	BranchID       pgtype.UUID        `json:"branch_id"`
	Fulfillment    Fulfillment        `json:"fulfillment"`
	TableNumber    pgtype.Text        `json:"table_number"`
	PromotionCode  pgtype.Text        `json:"promotion_code"`
	PointsToRedeem int64              `json:"points_to_redeem"`
	Status         CartStatus         `json:"status"`
	ExpiresAt      pgtype.Timestamptz `json:"expires_at"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type CartItem struct {
	ID            pgtype.UUID        `json:"id"`
	TenantID      pgtype.UUID        `json:"tenant_id"`
	CartID        pgtype.UUID        `json:"cart_id"`
	MenuItemID    pgtype.UUID        `json:"menu_item_id"`
	Name          string             `json:"name"`
	Qty           int32              `json:"qty"`
	UnitPrice     int64              `json:"unit_price"`
	ModifierIds   []pgtype.UUID      `json:"modifier_ids"`
	ModifierKey   string             `json:"modifier_key"`
	Modifiers     []byte             `json:"modifiers"`
	ModifierTotal int64              `json:"modifier_total"`
	Notes         string             `json:"notes"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type CmsPage struct {
	ID        pgtype.UUID        `json:"id"`
	TenantID  pgtype.UUID        `json:"tenant_id"`
	Slug      string             `json:"slug"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	Kind      CmsPageKind        `json:"kind"`
	Published bool               `json:"published"`
	Position  int32              `json:"position"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type DomainEvent struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	Topic       string             `json:"topic"`
	AggregateID pgtype.UUID        `json:"aggregate_id"`
	Payload     []byte             `json:"payload"`
	OccurredAt  pgtype.Timestamptz `json:"occurred_at"`
}

type Ingredient struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	Name         string             `json:"name"`
	Unit         string             `json:"unit"`
	OnHand       int64              `json:"on_hand"`
	LowThreshold int64              `json:"low_threshold"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

type LoyaltyAccount struct {
	ID             pgtype.UUID        `json:"id"`
	TenantID       pgtype.UUID        `json:"tenant_id"`
	UserID         pgtype.UUID        `json:"user_id"`
	Balance        int64              `json:"balance"`
	LifetimePoints int64              `json:"lifetime_points"`
	TierID         pgtype.UUID        `json:"tier_id"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type LoyaltyRule struct {
	ID                   pgtype.UUID        `json:"id"`
	TenantID             pgtype.UUID        `json:"tenant_id"`
	Name                 string             `json:"name"`
	Trigger              LoyaltyTrigger     `json:"trigger"`
	Active               bool               `json:"active"`
	Points               int64              `json:"points"`
	PointsPerCurrencyBps int32              `json:"points_per_currency_bps"`
	MinOrderTotal        int64              `json:"min_order_total"`
	BranchIds            []pgtype.UUID      `json:"branch_ids"`
	Weekdays             []int32            `json:"weekdays"`
	FirstOrderOnly       bool               `json:"first_order_only"`
	ValidFrom            pgtype.Timestamptz `json:"valid_from"`
	ValidTo              pgtype.Timestamptz `json:"valid_to"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type LoyaltyTier struct {
	ID            pgtype.UUID        `json:"id"`
	TenantID      pgtype.UUID        `json:"tenant_id"`
	Name          string             `json:"name"`
	MinPoints     int64              `json:"min_points"`
	MultiplierBps int32              `json:"multiplier_bps"`
	Benefits      []string           `json:"benefits"`
	Position      int32              `json:"position"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type LoyaltyTransaction struct {
	ID        pgtype.UUID        `json:"id"`
	TenantID  pgtype.UUID        `json:"tenant_id"`
	AccountID pgtype.UUID        `json:"account_id"`
	Kind      LoyaltyTxnKind     `json:"kind"`
	Points    int64              `json:"points"`
	OrderID   pgtype.UUID        `json:"order_id"`
	RuleID    pgtype.UUID        `json:"rule_id"`
	Reason    string             `json:"reason"`
	SourceKey string             `json:"source_key"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
	Expired   bool               `json:"expired"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type MenuCategory struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description pgtype.Text        `json:"description"`
	Position    int32              `json:"position"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type MenuItem struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	CategoryID  pgtype.UUID        `json:"category_id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description pgtype.Text        `json:"description"`
	Price       int64              `json:"price"`
	ImageUrl    pgtype.Text        `json:"image_url"`
	Dietary     []string           `json:"dietary"`
	Featured    bool               `json:"featured"`
	Available   bool               `json:"available"`
	Position    int32              `json:"position"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type MenuModifier struct {
	ID         pgtype.UUID        `json:"id"`
	TenantID   pgtype.UUID        `json:"tenant_id"`
	ItemID     pgtype.UUID        `json:"item_id"`
	GroupName  string             `json:"group_name"`
	Name       string             `json:"name"`
	PriceDelta int64              `json:"price_delta"`
	Position   int32              `json:"position"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type Order struct {
	ID             pgtype.UUID        `json:"id"`
	TenantID       pgtype.UUID        `json:"tenant_id"`
	Code           string             `json:"code"`
	UserID         pgtype.UUID        `json:"user_id"`
	BranchID       pgtype.UUID        `json:"branch_id"`
	CartID         pgtype.UUID        `json:"cart_id"`
	Fulfillment    Fulfillment        `json:"fulfillment"`
	Status         OrderStatus        `json:"status"`
	GuestName      pgtype.Text        `json:"guest_name"`
	GuestPhone     pgtype.Text        `json:"guest_phone"`
	GuestEmail     pgtype.Text        `json:"guest_email"`
	Notes          pgtype.Text        `json:"notes"`
	TableNumber    pgtype.Text        `json:"table_number"`
	Currency       string             `json:"currency"`
	Subtotal       int64              `json:"subtotal"`
	PromoDiscount  int64              `json:"promo_discount"`
	PointsDiscount int64              `json:"points_discount"`
	Tax            int64              `json:"tax"`
	Total          int64              `json:"total"`
	PointsRedeemed int64              `json:"points_redeemed"`
	PointsEarned   int64              `json:"points_earned"`
	PromotionCode  pgtype.Text        `json:"promotion_code"`
	CompletedAt    pgtype.Timestamptz `json:"completed_at"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type OrderItem struct {
	ID            pgtype.UUID `json:"id"`
	TenantID      pgtype.UUID `json:"tenant_id"`
	OrderID       pgtype.UUID `json:"order_id"`
	MenuItemID    pgtype.UUID `json:"menu_item_id"`
	Name          string      `json:"name"`
	Qty           int32       `json:"qty"`
	UnitPrice     int64       `json:"unit_price"`
	Modifiers     []byte      `json:"modifiers"`
	ModifierTotal int64       `json:"modifier_total"`
	LineTotal     int64       `json:"line_total"`
	Notes         string      `json:"notes"`
}

type OrderStatusHistory struct {
	ID         pgtype.UUID        `json:"id"`
	TenantID   pgtype.UUID        `json:"tenant_id"`
	OrderID    pgtype.UUID        `json:"order_id"`
	FromStatus pgtype.Text        `json:"from_status"`
	ToStatus   string             `json:"to_status"`
	Note       pgtype.Text        `json:"note"`
	ChangedBy  pgtype.UUID        `json:"changed_by"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type Promotion struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	Kind         PromotionKind      `json:"kind"`
	PercentBps   pgtype.Int4        `json:"percent_bps"`
	Value        int64              `json:"value"`
	MinSpend     int64              `json:"min_spend"`
	UsageLimit   pgtype.Int4        `json:"usage_limit"`
	UsedCount    int32              `json:"used_count"`
	PerUserLimit pgtype.Int4        `json:"per_user_limit"`
	ValidFrom    pgtype.Timestamptz `json:"valid_from"`
	ValidTo      pgtype.Timestamptz `json:"valid_to"`
	Active       bool               `json:"active"`
	CategoryIds  []pgtype.UUID      `json:"category_ids"`
	ItemIds      []pgtype.UUID      `json:"item_ids"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

type PromotionUsage struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	PromotionID pgtype.UUID        `json:"promotion_id"`
	OrderID     pgtype.UUID        `json:"order_id"`
	UserID      pgtype.UUID        `json:"user_id"`
	Amount      int64              `json:"amount"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Recipe struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	MenuItemID   pgtype.UUID `json:"menu_item_id"`
	IngredientID pgtype.UUID `json:"ingredient_id"`
	Quantity     int64       `json:"quantity"`
}

type Reservation struct {
	ID              pgtype.UUID        `json:"id"`
	TenantID        pgtype.UUID        `json:"tenant_id"`
	Code            string             `json:"code"`
	BranchID        pgtype.UUID        `json:"branch_id"`
	UserID          pgtype.UUID        `json:"user_id"`
	Name            string             `json:"name"`
	Phone           string             `json:"phone"`
	Email           pgtype.Text        `json:"email"`
	PartySize       int32              `json:"party_size"`
	ReservedAt      pgtype.Timestamptz `json:"reserved_at"`
	DurationMinutes int32              `json:"duration_minutes"`
	Status          ReservationStatus  `json:"status"`
	Notes           pgtype.Text        `json:"notes"`
	ConfirmedAt     pgtype.Timestamptz `json:"confirmed_at"`
	CancelledAt     pgtype.Timestamptz `json:"cancelled_at"`
	CancelReason    pgtype.Text        `json:"cancel_reason"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type Review struct {
	ID         pgtype.UUID        `json:"id"`
	TenantID   pgtype.UUID        `json:"tenant_id"`
	MenuItemID pgtype.UUID        `json:"menu_item_id"`
	UserID     pgtype.UUID        `json:"user_id"`
	Rating     int32              `json:"rating"`
	Comment    string             `json:"comment"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type Session struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	UserID       pgtype.UUID        `json:"user_id"`
	RefreshToken string             `json:"refresh_token"`
	UserAgent    pgtype.Text        `json:"user_agent"`
	Ip           pgtype.Text        `json:"ip"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type StockMovement struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	IngredientID pgtype.UUID        `json:"ingredient_id"`
	Kind         StockMovementKind  `json:"kind"`
	Quantity     int64              `json:"quantity"`
	OrderID      pgtype.UUID        `json:"order_id"`
	Note         string             `json:"note"`
	CreatedBy    pgtype.UUID        `json:"created_by"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Tenant struct {
	ID                pgtype.UUID        `json:"id"`
	Slug              string             `json:"slug"`
	Name              string             `json:"name"`
	Currency          string             `json:"currency"`
	CurrencyExponent  int32              `json:"currency_exponent"`
	TaxRateBps        int32              `json:"tax_rate_bps"`
	PointsEarnBps     int32              `json:"points_earn_bps"`
	PointsRedeemRatio int32              `json:"points_redeem_ratio"`
	MaxRedeemBps      int32              `json:"max_redeem_bps"`
	PointsTtlDays     int32              `json:"points_ttl_days"`
	TimeZone          string             `json:"time_zone"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

type User struct {
	ID           pgtype.UUID        `json:"id"`
	TenantID     pgtype.UUID        `json:"tenant_id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        pgtype.Text        `json:"phone"`
	PasswordHash string             `json:"password_hash"`
	Roles        []string           `json:"roles"`
	ReferralCode string             `json:"referral_code"`
	ReferredBy   pgtype.UUID        `json:"referred_by"`
	Birthday     pgtype.Date        `json:"birthday"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}
