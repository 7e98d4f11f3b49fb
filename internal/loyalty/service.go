package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Querier lists every query the loyalty service touches.
type Querier interface {
	LedgerQuerier
	GetLoyaltyAccountByUser(ctx context.Context, arg dbgen.GetLoyaltyAccountByUserParams) (dbgen.LoyaltyAccount, error)
	ListLoyaltyRules(ctx context.Context, arg dbgen.ListLoyaltyRulesParams) ([]dbgen.LoyaltyRule, error)
	ListLoyaltyTransactions(ctx context.Context, arg dbgen.ListLoyaltyTransactionsParams) ([]dbgen.LoyaltyTransaction, error)
	CountLoyaltyTransactions(ctx context.Context, arg dbgen.CountLoyaltyTransactionsParams) (int64, error)
	CreateLoyaltyTier(ctx context.Context, arg dbgen.CreateLoyaltyTierParams) (dbgen.LoyaltyTier, error)
	UpdateLoyaltyTier(ctx context.Context, arg dbgen.UpdateLoyaltyTierParams) (dbgen.LoyaltyTier, error)
	DeleteLoyaltyTier(ctx context.Context, arg dbgen.DeleteLoyaltyTierParams) (int64, error)
	CreateLoyaltyRule(ctx context.Context, arg dbgen.CreateLoyaltyRuleParams) (dbgen.LoyaltyRule, error)
	UpdateLoyaltyRule(ctx context.Context, arg dbgen.UpdateLoyaltyRuleParams) (dbgen.LoyaltyRule, error)
	DeleteLoyaltyRule(ctx context.Context, arg dbgen.DeleteLoyaltyRuleParams) (int64, error)
	FindUserByContact(ctx context.Context, arg dbgen.FindUserByContactParams) (dbgen.User, error)
	ListUsersByBirthday(ctx context.Context, arg dbgen.ListUsersByBirthdayParams) ([]dbgen.User, error)
	GetOrderByID(ctx context.Context, arg dbgen.GetOrderByIDParams) (dbgen.Order, error)
	CountCompletedOrdersByUser(ctx context.Context, arg dbgen.CountCompletedOrdersByUserParams) (int64, error)
	SetOrderPointsEarned(ctx context.Context, arg dbgen.SetOrderPointsEarnedParams) error
	GetTenantByID(ctx context.Context, id pgtype.UUID) (dbgen.Tenant, error)
}

// Service exposes the loyalty program to handlers and background jobs.
type Service struct {
	Q      Querier
	Tx     repo.TxFunc[Querier]
	Ledger Ledger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) tx(ctx context.Context, fn func(q Querier) error) error {
	if s.Tx != nil {
		return s.Tx(ctx, fn)
	}
	return fn(s.Q)
}

// TierView is the public representation of a tier.
type TierView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	MinPoints     int64    `json:"min_points"`
	MultiplierBps int32    `json:"multiplier_bps"`
	Benefits      []string `json:"benefits"`
}

func tierView(t dbgen.LoyaltyTier) *TierView {
	benefits := t.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	return &TierView{
		ID:            common.UUIDString(t.ID),
		Name:          t.Name,
		MinPoints:     t.MinPoints,
		MultiplierBps: t.MultiplierBps,
		Benefits:      benefits,
	}
}

// AccountSummary is returned by /loyalty/me and the admin lookup.
type AccountSummary struct {
	UserID           string    `json:"user_id"`
	Balance          int64     `json:"balance"`
	BalanceValue     int64     `json:"balance_value"`
	LifetimePoints   int64     `json:"lifetime_points"`
	Tier             *TierView `json:"tier"`
	NextTier         *TierView `json:"next_tier"`
	PointsToNextTier int64     `json:"points_to_next_tier"`
	Benefits         []string  `json:"benefits"`
}

func (s *Service) summary(ctx context.Context, tid, userID pgtype.UUID) (AccountSummary, error) {
	acct, err := s.Q.GetLoyaltyAccountByUser(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tid, UserID: userID})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return AccountSummary{}, err
	}
	tiers, err := s.Q.ListLoyaltyTiers(ctx, tid)
	if err != nil {
		return AccountSummary{}, err
	}
	st := tenant.SettingsFrom(ctx)
	out := AccountSummary{
		UserID:         common.UUIDString(userID),
		Balance:        acct.Balance,
		BalanceValue:   pricing.PointsValue(acct.Balance, st.PointsRedeemRatio, st.CurrencyExponent),
		LifetimePoints: acct.LifetimePoints,
		Benefits:       []string{},
	}
	if t, ok := TierFor(tiers, acct.LifetimePoints); ok {
		out.Tier = tierView(t)
		out.Benefits = out.Tier.Benefits
	}
	if t, ok := NextTier(tiers, acct.LifetimePoints); ok {
		out.NextTier = tierView(t)
		out.PointsToNextTier = t.MinPoints - acct.LifetimePoints
	}
	return out, nil
}

func callerID(ctx context.Context) (pgtype.UUID, error) {
	raw, ok := common.UserID(ctx)
	if !ok {
		return pgtype.UUID{}, common.NewAppError("UNAUTHORIZED", "authentication required", 401, common.ErrForbidden)
	}
	return common.ParseUUID("user_id", raw)
}

// Me summarises the caller's account.
func (s *Service) Me(ctx context.Context) (AccountSummary, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return AccountSummary{}, err
	}
	uid, err := callerID(ctx)
	if err != nil {
		return AccountSummary{}, err
	}
	return s.summary(ctx, tid, uid)
}

// AccountForUser summarises any account; used by staff.
func (s *Service) AccountForUser(ctx context.Context, userID string) (AccountSummary, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return AccountSummary{}, err
	}
	uid, err := common.ParseUUID("user_id", userID)
	if err != nil {
		return AccountSummary{}, err
	}
	return s.summary(ctx, tid, uid)
}

// Balance returns the spendable balance, zero when no account exists.
func (s *Service) Balance(ctx context.Context, tid, userID pgtype.UUID) (int64, int64, error) {
	acct, err := s.Q.GetLoyaltyAccountByUser(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tid, UserID: userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return acct.Balance, acct.LifetimePoints, nil
}

// TierMultiplier returns the multiplier for a user's current tier.
func (s *Service) TierMultiplier(ctx context.Context, tid pgtype.UUID, lifetime int64) (int64, error) {
	tiers, err := s.Q.ListLoyaltyTiers(ctx, tid)
	if err != nil {
		return 0, err
	}
	return MultiplierFor(tiers, lifetime), nil
}

// LookupResult is the guest-facing balance lookup.
type LookupResult struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
	Tier    string `json:"tier,omitempty"`
}

// Lookup finds an account by email or phone without authentication.
func (s *Service) Lookup(ctx context.Context, email, phone string) (LookupResult, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return LookupResult{}, err
	}
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return LookupResult{}, common.BadRequest("email", "email or phone is required", nil)
	}
	user, err := s.Q.FindUserByContact(ctx, dbgen.FindUserByContactParams{
		TenantID: tid,
		Email:    common.Text(email),
		Phone:    common.Text(phone),
	})
	if err != nil {
		return LookupResult{}, common.DBError(err, "member not found")
	}
	sum, err := s.summary(ctx, tid, user.ID)
	if err != nil {
		return LookupResult{}, err
	}
	res := LookupResult{Name: firstName(user.Name), Balance: sum.Balance}
	if sum.Tier != nil {
		res.Tier = sum.Tier.Name
	}
	return res, nil
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Transactions pages through a user's ledger.
func (s *Service) Transactions(ctx context.Context, userID pgtype.UUID, page, perPage int) ([]dbgen.LoyaltyTransaction, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	acct, err := s.Q.GetLoyaltyAccountByUser(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tid, UserID: userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return []dbgen.LoyaltyTransaction{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountLoyaltyTransactions(ctx, dbgen.CountLoyaltyTransactionsParams{TenantID: tid, AccountID: acct.ID})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListLoyaltyTransactions(ctx, dbgen.ListLoyaltyTransactionsParams{
		TenantID:  tid,
		AccountID: acct.ID,
		Limit:     int32(perPage),
		Offset:    common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Tiers lists the tenant's tiers ordered by threshold.
func (s *Service) Tiers(ctx context.Context) ([]TierView, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	tiers, err := s.Q.ListLoyaltyTiers(ctx, tid)
	if err != nil {
		return nil, err
	}
	out := make([]TierView, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, *tierView(t))
	}
	return out, nil
}

// AdjustInput is the admin correction payload.
type AdjustInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Points int64  `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// Adjust posts a manual correction.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (dbgen.LoyaltyTransaction, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.LoyaltyTransaction{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.LoyaltyTransaction{}, err
	}
	uid, err := common.ParseUUID("user_id", in.UserID)
	if err != nil {
		return dbgen.LoyaltyTransaction{}, err
	}
	var txn dbgen.LoyaltyTransaction
	err = s.tx(ctx, func(q Querier) error {
		var err error
		txn, _, err = s.Ledger.Adjust(ctx, q, tid, uid, in.Points, in.Reason)
		return err
	})
	return txn, err
}

// AccrueOrder credits points for a completed order. It is safe to retry:
// each (order, rule) pair posts at most once.
func (s *Service) AccrueOrder(ctx context.Context, tenantID, orderID pgtype.UUID) (int64, error) {
	var posted int64
	err := s.tx(ctx, func(q Querier) error {
		order, err := q.GetOrderByID(ctx, dbgen.GetOrderByIDParams{TenantID: tenantID, ID: orderID})
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order.Status != dbgen.OrderStatusCompleted || !order.UserID.Valid {
			return nil
		}
		t, err := q.GetTenantByID(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load tenant: %w", err)
		}
		info := tenant.InfoFromRow(t)
		completed, err := q.CountCompletedOrdersByUser(ctx, dbgen.CountCompletedOrdersByUserParams{TenantID: tenantID, UserID: order.UserID})
		if err != nil {
			return err
		}
		rules, err := q.ListLoyaltyRules(ctx, dbgen.ListLoyaltyRulesParams{TenantID: tenantID, ActiveOnly: true})
		if err != nil {
			return err
		}
		_, lifetime, err := balanceOf(ctx, q, tenantID, order.UserID)
		if err != nil {
			return err
		}
		tiers, err := q.ListLoyaltyTiers(ctx, tenantID)
		if err != nil {
			return err
		}
		when := s.now()
		if order.CompletedAt.Valid {
			when = order.CompletedAt.Time
		}
		awards := Evaluate(rules, TriggerOrderPlaced, EvalContext{
			Now:               when,
			Location:          info.Settings.Location(),
			OrderTotal:        order.Total,
			BranchID:          order.BranchID,
			FirstOrder:        completed <= 1,
			TierMultiplierBps: MultiplierFor(tiers, lifetime),
			FallbackEarnBps:   info.Settings.PointsEarnBps,
		})
		posted, _, err = s.Ledger.Earn(ctx, q, EarnInput{
			TenantID: tenantID,
			UserID:   order.UserID,
			OrderID:  order.ID,
			Source:   "order:" + common.UUIDString(order.ID),
			Awards:   awards,
			TTLDays:  info.Settings.PointsTTLDays,
		})
		if err != nil {
			return err
		}
		if posted > 0 {
			return q.SetOrderPointsEarned(ctx, dbgen.SetOrderPointsEarnedParams{
				TenantID:     tenantID,
				ID:           order.ID,
				PointsEarned: order.PointsEarned + posted,
			})
		}
		return nil
	})
	return posted, err
}

func balanceOf(ctx context.Context, q Querier, tid, uid pgtype.UUID) (int64, int64, error) {
	acct, err := q.GetLoyaltyAccountByUser(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tid, UserID: uid})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	return acct.Balance, acct.LifetimePoints, err
}

// AwardTrigger credits the non-order rules for trigger. source scopes the
// idempotency key, e.g. "signup:<user>" or "review:<id>".
func (s *Service) AwardTrigger(ctx context.Context, tenantID, userID pgtype.UUID, trigger dbgen.LoyaltyTrigger, source string) (int64, error) {
	if trigger == TriggerOrderPlaced {
		return 0, fmt.Errorf("order awards go through AccrueOrder: %w", common.ErrInvalidInput)
	}
	var posted int64
	err := s.tx(ctx, func(q Querier) error {
		t, err := q.GetTenantByID(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load tenant: %w", err)
		}
		info := tenant.InfoFromRow(t)
		rules, err := q.ListLoyaltyRules(ctx, dbgen.ListLoyaltyRulesParams{TenantID: tenantID, ActiveOnly: true})
		if err != nil {
			return err
		}
		awards := Evaluate(rules, trigger, EvalContext{Now: s.now(), Location: info.Settings.Location()})
		if len(awards) == 0 {
			return nil
		}
		posted, _, err = s.Ledger.Earn(ctx, q, EarnInput{
			TenantID: tenantID,
			UserID:   userID,
			Source:   source,
			Awards:   awards,
			TTLDays:  info.Settings.PointsTTLDays,
		})
		return err
	})
	return posted, err
}

// RunBirthdays credits the birthday rule to every member whose birthday is
// today in the tenant time zone. It returns the number of members credited.
func (s *Service) RunBirthdays(ctx context.Context, tenantID pgtype.UUID) (int, error) {
	t, err := s.Q.GetTenantByID(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	today := s.now().In(tenant.InfoFromRow(t).Settings.Location())
	users, err := s.Q.ListUsersByBirthday(ctx, dbgen.ListUsersByBirthdayParams{
		TenantID: tenantID,
		Month:    int32(today.Month()),
		Day:      int32(today.Day()),
	})
	if err != nil {
		return 0, err
	}
	credited := 0
	var errs []error
	for _, u := range users {
		source := "birthday:" + common.UUIDString(u.ID) + ":" + strconv.Itoa(today.Year())
		posted, err := s.AwardTrigger(ctx, tenantID, u.ID, TriggerBirthday, source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if posted > 0 {
			credited++
		}
	}
	return credited, errors.Join(errs...)
}

// ExpirePoints runs one expiry sweep for the tenant.
func (s *Service) ExpirePoints(ctx context.Context, tenantID pgtype.UUID) (ExpiryResult, error) {
	var res ExpiryResult
	err := s.tx(ctx, func(q Querier) error {
		var err error
		res, err = s.Ledger.ExpireDue(ctx, q, tenantID, 500)
		return err
	})
	return res, err
}
