package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// memStore is an in-memory Querier for ledger and service tests.
type memStore struct {
	tenant    dbgen.Tenant
	accounts  map[[16]byte]*dbgen.LoyaltyAccount
	txns      []dbgen.LoyaltyTransaction
	tiers     []dbgen.LoyaltyTier
	rules     []dbgen.LoyaltyRule
	orders    map[[16]byte]dbgen.Order
	users     []dbgen.User
	completed int64
}

func newMemStore() *memStore {
	return &memStore{
		tenant: dbgen.Tenant{
			ID:                newID(),
			Slug:              "warung",
			Currency:          "IDR",
			PointsEarnBps:     100,
			PointsRedeemRatio: 1,
			MaxRedeemBps:      5000,
			TimeZone:          "UTC",
		},
		accounts: map[[16]byte]*dbgen.LoyaltyAccount{},
		orders:   map[[16]byte]dbgen.Order{},
	}
}

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func (m *memStore) EnsureLoyaltyAccount(_ context.Context, arg dbgen.EnsureLoyaltyAccountParams) (dbgen.LoyaltyAccount, error) {
	if a, ok := m.accounts[arg.UserID.Bytes]; ok {
		return *a, nil
	}
	a := &dbgen.LoyaltyAccount{ID: newID(), TenantID: arg.TenantID, UserID: arg.UserID}
	m.accounts[arg.UserID.Bytes] = a
	return *a, nil
}

func (m *memStore) GetLoyaltyAccountByUser(_ context.Context, arg dbgen.GetLoyaltyAccountByUserParams) (dbgen.LoyaltyAccount, error) {
	if a, ok := m.accounts[arg.UserID.Bytes]; ok {
		return *a, nil
	}
	return dbgen.LoyaltyAccount{}, pgx.ErrNoRows
}

func (m *memStore) GetLoyaltyAccountByUserForUpdate(ctx context.Context, arg dbgen.GetLoyaltyAccountByUserParams) (dbgen.LoyaltyAccount, error) {
	return m.GetLoyaltyAccountByUser(ctx, arg)
}

func (m *memStore) GetLoyaltyAccountByIDForUpdate(_ context.Context, arg dbgen.GetLoyaltyAccountByIDForUpdateParams) (dbgen.LoyaltyAccount, error) {
	for _, a := range m.accounts {
		if a.ID == arg.ID {
			return *a, nil
		}
	}
	return dbgen.LoyaltyAccount{}, pgx.ErrNoRows
}

func (m *memStore) UpdateLoyaltyAccountBalance(_ context.Context, arg dbgen.UpdateLoyaltyAccountBalanceParams) (dbgen.LoyaltyAccount, error) {
	for _, a := range m.accounts {
		if a.ID == arg.ID {
			a.Balance = arg.Balance
			a.LifetimePoints = arg.LifetimePoints
			a.TierID = arg.TierID
			return *a, nil
		}
	}
	return dbgen.LoyaltyAccount{}, pgx.ErrNoRows
}

func (m *memStore) InsertLoyaltyTransaction(_ context.Context, arg dbgen.InsertLoyaltyTransactionParams) (dbgen.LoyaltyTransaction, error) {
	for _, t := range m.txns {
		if t.AccountID == arg.AccountID && t.SourceKey == arg.SourceKey {
			return dbgen.LoyaltyTransaction{}, pgx.ErrNoRows
		}
	}
	t := dbgen.LoyaltyTransaction{
		ID:        newID(),
		TenantID:  arg.TenantID,
		AccountID: arg.AccountID,
		Kind:      arg.Kind,
		Points:    arg.Points,
		OrderID:   arg.OrderID,
		RuleID:    arg.RuleID,
		Reason:    arg.Reason,
		SourceKey: arg.SourceKey,
		ExpiresAt: arg.ExpiresAt,
	}
	m.txns = append(m.txns, t)
	return t, nil
}

func (m *memStore) GetLoyaltyTransactionBySourceKey(_ context.Context, arg dbgen.GetLoyaltyTransactionBySourceKeyParams) (dbgen.LoyaltyTransaction, error) {
	for _, t := range m.txns {
		if t.AccountID == arg.AccountID && t.SourceKey == arg.SourceKey {
			return t, nil
		}
	}
	return dbgen.LoyaltyTransaction{}, pgx.ErrNoRows
}

func (m *memStore) ListLoyaltyTiers(context.Context, pgtype.UUID) ([]dbgen.LoyaltyTier, error) {
	return m.tiers, nil
}

func (m *memStore) ListExpiringLoyaltyTransactions(_ context.Context, arg dbgen.ListExpiringLoyaltyTransactionsParams) ([]dbgen.LoyaltyTransaction, error) {
	var out []dbgen.LoyaltyTransaction
	for _, t := range m.txns {
		if t.Kind == dbgen.LoyaltyTxnKindEarn && !t.Expired && t.ExpiresAt.Valid && !t.ExpiresAt.Time.After(arg.Before.Time) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) MarkLoyaltyTransactionsExpired(_ context.Context, arg dbgen.MarkLoyaltyTransactionsExpiredParams) (int64, error) {
	var n int64
	for i := range m.txns {
		for _, id := range arg.Ids {
			if m.txns[i].ID == id {
				m.txns[i].Expired = true
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) ListLoyaltyRules(_ context.Context, arg dbgen.ListLoyaltyRulesParams) ([]dbgen.LoyaltyRule, error) {
	var out []dbgen.LoyaltyRule
	for _, r := range m.rules {
		if !arg.ActiveOnly || r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListLoyaltyTransactions(_ context.Context, arg dbgen.ListLoyaltyTransactionsParams) ([]dbgen.LoyaltyTransaction, error) {
	var out []dbgen.LoyaltyTransaction
	for _, t := range m.txns {
		if t.AccountID == arg.AccountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CountLoyaltyTransactions(ctx context.Context, arg dbgen.CountLoyaltyTransactionsParams) (int64, error) {
	rows, _ := m.ListLoyaltyTransactions(ctx, dbgen.ListLoyaltyTransactionsParams{AccountID: arg.AccountID})
	return int64(len(rows)), nil
}

func (m *memStore) CreateLoyaltyTier(_ context.Context, arg dbgen.CreateLoyaltyTierParams) (dbgen.LoyaltyTier, error) {
	t := dbgen.LoyaltyTier{ID: newID(), Name: arg.Name, MinPoints: arg.MinPoints, MultiplierBps: arg.MultiplierBps, Benefits: arg.Benefits}
	m.tiers = append(m.tiers, t)
	return t, nil
}

func (m *memStore) UpdateLoyaltyTier(context.Context, dbgen.UpdateLoyaltyTierParams) (dbgen.LoyaltyTier, error) {
	return dbgen.LoyaltyTier{}, pgx.ErrNoRows
}

func (m *memStore) DeleteLoyaltyTier(context.Context, dbgen.DeleteLoyaltyTierParams) (int64, error) {
	return 0, nil
}

func (m *memStore) CreateLoyaltyRule(_ context.Context, arg dbgen.CreateLoyaltyRuleParams) (dbgen.LoyaltyRule, error) {
	r := dbgen.LoyaltyRule{ID: newID(), Name: arg.Name, Trigger: arg.Trigger, Active: arg.Active, Points: arg.Points, PointsPerCurrencyBps: arg.PointsPerCurrencyBps}
	m.rules = append(m.rules, r)
	return r, nil
}

func (m *memStore) UpdateLoyaltyRule(context.Context, dbgen.UpdateLoyaltyRuleParams) (dbgen.LoyaltyRule, error) {
	return dbgen.LoyaltyRule{}, pgx.ErrNoRows
}

func (m *memStore) DeleteLoyaltyRule(context.Context, dbgen.DeleteLoyaltyRuleParams) (int64, error) {
	return 1, nil
}

func (m *memStore) FindUserByContact(_ context.Context, arg dbgen.FindUserByContactParams) (dbgen.User, error) {
	for _, u := range m.users {
		if (arg.Email.Valid && u.Email == arg.Email.String) || (arg.Phone.Valid && u.Phone.String == arg.Phone.String) {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *memStore) ListUsersByBirthday(_ context.Context, arg dbgen.ListUsersByBirthdayParams) ([]dbgen.User, error) {
	var out []dbgen.User
	for _, u := range m.users {
		if u.Birthday.Valid && int32(u.Birthday.Time.Month()) == arg.Month && int32(u.Birthday.Time.Day()) == arg.Day {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) GetOrderByID(_ context.Context, arg dbgen.GetOrderByIDParams) (dbgen.Order, error) {
	if o, ok := m.orders[arg.ID.Bytes]; ok {
		return o, nil
	}
	return dbgen.Order{}, pgx.ErrNoRows
}

func (m *memStore) CountCompletedOrdersByUser(context.Context, dbgen.CountCompletedOrdersByUserParams) (int64, error) {
	return m.completed, nil
}

func (m *memStore) SetOrderPointsEarned(_ context.Context, arg dbgen.SetOrderPointsEarnedParams) error {
	o := m.orders[arg.ID.Bytes]
	o.PointsEarned = arg.PointsEarned
	m.orders[arg.ID.Bytes] = o
	return nil
}

func (m *memStore) GetTenantByID(context.Context, pgtype.UUID) (dbgen.Tenant, error) {
	return m.tenant, nil
}

func (m *memStore) balance(user pgtype.UUID) int64 {
	if a, ok := m.accounts[user.Bytes]; ok {
		return a.Balance
	}
	return 0
}

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }
