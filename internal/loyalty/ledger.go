package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// ErrInsufficientPoints is returned when a debit exceeds the account balance.
var ErrInsufficientPoints = errors.New("insufficient points")

// LedgerQuerier is the transactional subset used to move points.
type LedgerQuerier interface {
	EnsureLoyaltyAccount(ctx context.Context, arg dbgen.EnsureLoyaltyAccountParams) (dbgen.LoyaltyAccount, error)
	GetLoyaltyAccountByUserForUpdate(ctx context.Context, arg dbgen.GetLoyaltyAccountByUserParams) (dbgen.LoyaltyAccount, error)
	GetLoyaltyAccountByIDForUpdate(ctx context.Context, arg dbgen.GetLoyaltyAccountByIDForUpdateParams) (dbgen.LoyaltyAccount, error)
	UpdateLoyaltyAccountBalance(ctx context.Context, arg dbgen.UpdateLoyaltyAccountBalanceParams) (dbgen.LoyaltyAccount, error)
	InsertLoyaltyTransaction(ctx context.Context, arg dbgen.InsertLoyaltyTransactionParams) (dbgen.LoyaltyTransaction, error)
	GetLoyaltyTransactionBySourceKey(ctx context.Context, arg dbgen.GetLoyaltyTransactionBySourceKeyParams) (dbgen.LoyaltyTransaction, error)
	ListLoyaltyTiers(ctx context.Context, tenantID pgtype.UUID) ([]dbgen.LoyaltyTier, error)
	ListExpiringLoyaltyTransactions(ctx context.Context, arg dbgen.ListExpiringLoyaltyTransactionsParams) ([]dbgen.LoyaltyTransaction, error)
	MarkLoyaltyTransactionsExpired(ctx context.Context, arg dbgen.MarkLoyaltyTransactionsExpiredParams) (int64, error)
}

// Ledger posts signed transactions and keeps account balances in step.
// Every method expects to run inside a database transaction.
type Ledger struct {
	Now func() time.Time
}

func (l Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// EarnInput describes a credit of one or more awards.
type EarnInput struct {
	TenantID pgtype.UUID
	UserID   pgtype.UUID
	OrderID  pgtype.UUID
	// Source prefixes the idempotency key of every award, e.g. "order:<id>".
	Source  string
	Awards  []Award
	TTLDays int
}

func lockAccount(ctx context.Context, q LedgerQuerier, tenantID, userID pgtype.UUID) (dbgen.LoyaltyAccount, error) {
	if _, err := q.EnsureLoyaltyAccount(ctx, dbgen.EnsureLoyaltyAccountParams{TenantID: tenantID, UserID: userID}); err != nil {
		return dbgen.LoyaltyAccount{}, fmt.Errorf("ensure loyalty account: %w", err)
	}
	return q.GetLoyaltyAccountByUserForUpdate(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tenantID, UserID: userID})
}

// AccountMultiplier returns the tier multiplier of userID inside the ledger's
// transaction. Users without an account earn at 1×.
func AccountMultiplier(ctx context.Context, q LedgerQuerier, tenantID, userID pgtype.UUID) (int64, error) {
	var lifetime int64
	acct, err := q.GetLoyaltyAccountByUserForUpdate(ctx, dbgen.GetLoyaltyAccountByUserParams{TenantID: tenantID, UserID: userID})
	switch {
	case err == nil:
		lifetime = acct.LifetimePoints
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("load loyalty account: %w", err)
	}
	tiers, err := q.ListLoyaltyTiers(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return MultiplierFor(tiers, lifetime), nil
}

// Earn credits awards that were not posted before and recomputes the tier.
// It returns the points actually credited.
func (l Ledger) Earn(ctx context.Context, q LedgerQuerier, in EarnInput) (int64, dbgen.LoyaltyAccount, error) {
	acct, err := lockAccount(ctx, q, in.TenantID, in.UserID)
	if err != nil {
		return 0, dbgen.LoyaltyAccount{}, err
	}
	var expires pgtype.Timestamptz
	if in.TTLDays > 0 {
		expires = common.Timestamptz(l.now().AddDate(0, 0, in.TTLDays))
	}
	var posted int64
	for _, a := range in.Awards {
		if a.Points <= 0 {
			continue
		}
		_, err := q.InsertLoyaltyTransaction(ctx, dbgen.InsertLoyaltyTransactionParams{
			TenantID:  in.TenantID,
			AccountID: acct.ID,
			Kind:      dbgen.LoyaltyTxnKindEarn,
			Points:    a.Points,
			OrderID:   in.OrderID,
			RuleID:    a.RuleID,
			Reason:    a.RuleName,
			SourceKey: in.Source + ":" + a.Key(),
			ExpiresAt: expires,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, dbgen.LoyaltyAccount{}, fmt.Errorf("insert earn: %w", err)
		}
		posted += a.Points
	}
	if posted == 0 {
		return 0, acct, nil
	}
	tiers, err := q.ListLoyaltyTiers(ctx, in.TenantID)
	if err != nil {
		return 0, dbgen.LoyaltyAccount{}, err
	}
	lifetime := acct.LifetimePoints + posted
	var tierID pgtype.UUID
	if t, ok := TierFor(tiers, lifetime); ok {
		tierID = t.ID
	}
	acct, err = q.UpdateLoyaltyAccountBalance(ctx, dbgen.UpdateLoyaltyAccountBalanceParams{
		TenantID:       in.TenantID,
		ID:             acct.ID,
		Balance:        acct.Balance + posted,
		LifetimePoints: lifetime,
		TierID:         tierID,
	})
	if err != nil {
		return 0, dbgen.LoyaltyAccount{}, err
	}
	obs.AddCounter(obs.LoyaltyPointsTotal, float64(posted), string(dbgen.LoyaltyTxnKindEarn))
	return posted, acct, nil
}

// Redeem debits points for an order. Repeating the call for the same order is a no-op.
func (l Ledger) Redeem(ctx context.Context, q LedgerQuerier, tenantID, userID, orderID pgtype.UUID, points int64) error {
	if points <= 0 {
		return nil
	}
	acct, err := lockAccount(ctx, q, tenantID, userID)
	if err != nil {
		return err
	}
	key := "redeem:" + common.UUIDString(orderID)
	_, err = q.GetLoyaltyTransactionBySourceKey(ctx, dbgen.GetLoyaltyTransactionBySourceKeyParams{
		TenantID:  tenantID,
		AccountID: acct.ID,
		SourceKey: key,
	})
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("lookup redeem: %w", err)
	}
	if acct.Balance < points {
		return ErrInsufficientPoints
	}
	_, err = q.InsertLoyaltyTransaction(ctx, dbgen.InsertLoyaltyTransactionParams{
		TenantID:  tenantID,
		AccountID: acct.ID,
		Kind:      dbgen.LoyaltyTxnKindRedeem,
		Points:    -points,
		OrderID:   orderID,
		Reason:    "order redemption",
		SourceKey: key,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert redeem: %w", err)
	}
	if _, err := q.UpdateLoyaltyAccountBalance(ctx, dbgen.UpdateLoyaltyAccountBalanceParams{
		TenantID:       tenantID,
		ID:             acct.ID,
		Balance:        acct.Balance - points,
		LifetimePoints: acct.LifetimePoints,
		TierID:         acct.TierID,
	}); err != nil {
		return err
	}
	obs.AddCounter(obs.LoyaltyPointsTotal, float64(points), string(dbgen.LoyaltyTxnKindRedeem))
	return nil
}

// Adjust posts a manual signed correction. Lifetime points and tier are unchanged.
func (l Ledger) Adjust(ctx context.Context, q LedgerQuerier, tenantID, userID pgtype.UUID, points int64, reason string) (dbgen.LoyaltyTransaction, dbgen.LoyaltyAccount, error) {
	if points == 0 {
		return dbgen.LoyaltyTransaction{}, dbgen.LoyaltyAccount{}, common.BadRequest("points", "points must not be zero", nil)
	}
	acct, err := lockAccount(ctx, q, tenantID, userID)
	if err != nil {
		return dbgen.LoyaltyTransaction{}, dbgen.LoyaltyAccount{}, err
	}
	if acct.Balance+points < 0 {
		return dbgen.LoyaltyTransaction{}, dbgen.LoyaltyAccount{}, ErrInsufficientPoints
	}
	txn, err := q.InsertLoyaltyTransaction(ctx, dbgen.InsertLoyaltyTransactionParams{
		TenantID:  tenantID,
		AccountID: acct.ID,
		Kind:      dbgen.LoyaltyTxnKindAdjust,
		Points:    points,
		Reason:    reason,
		SourceKey: "adjust:" + uuid.NewString(),
	})
	if err != nil {
		return dbgen.LoyaltyTransaction{}, dbgen.LoyaltyAccount{}, fmt.Errorf("insert adjust: %w", err)
	}
	acct, err = q.UpdateLoyaltyAccountBalance(ctx, dbgen.UpdateLoyaltyAccountBalanceParams{
		TenantID:       tenantID,
		ID:             acct.ID,
		Balance:        acct.Balance + points,
		LifetimePoints: acct.LifetimePoints,
		TierID:         acct.TierID,
	})
	if err != nil {
		return dbgen.LoyaltyTransaction{}, dbgen.LoyaltyAccount{}, err
	}
	obs.AddCounter(obs.LoyaltyPointsTotal, float64(abs(points)), string(dbgen.LoyaltyTxnKindAdjust))
	return txn, acct, nil
}

// ExpiryResult summarises one expiry sweep.
type ExpiryResult struct {
	Accounts int   `json:"accounts"`
	Points   int64 `json:"points"`
}

// ExpireDue posts one expire transaction per account for earn rows whose
// expiry has passed. The debit never exceeds the current balance, so points
// already spent are not taken twice.
func (l Ledger) ExpireDue(ctx context.Context, q LedgerQuerier, tenantID pgtype.UUID, limit int32) (ExpiryResult, error) {
	now := l.now()
	if limit <= 0 {
		limit = 500
	}
	rows, err := q.ListExpiringLoyaltyTransactions(ctx, dbgen.ListExpiringLoyaltyTransactionsParams{
		TenantID: tenantID,
		Before:   common.Timestamptz(now),
		Limit:    limit,
	})
	if err != nil {
		return ExpiryResult{}, err
	}
	type bucket struct {
		account pgtype.UUID
		points  int64
		ids     []pgtype.UUID
	}
	var order []*bucket
	byAccount := map[[16]byte]*bucket{}
	for _, row := range rows {
		b, ok := byAccount[row.AccountID.Bytes]
		if !ok {
			b = &bucket{account: row.AccountID}
			byAccount[row.AccountID.Bytes] = b
			order = append(order, b)
		}
		b.points += row.Points
		b.ids = append(b.ids, row.ID)
	}

	var res ExpiryResult
	for _, b := range order {
		acct, err := q.GetLoyaltyAccountByIDForUpdate(ctx, dbgen.GetLoyaltyAccountByIDForUpdateParams{TenantID: tenantID, ID: b.account})
		if err != nil {
			return res, err
		}
		amount := b.points
		if acct.Balance < amount {
			amount = acct.Balance
		}
		if amount > 0 {
			_, err := q.InsertLoyaltyTransaction(ctx, dbgen.InsertLoyaltyTransactionParams{
				TenantID:  tenantID,
				AccountID: acct.ID,
				Kind:      dbgen.LoyaltyTxnKindExpire,
				Points:    -amount,
				Reason:    "points expired",
				SourceKey: "expire:" + common.UUIDString(b.ids[0]),
			})
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return res, fmt.Errorf("insert expire: %w", err)
			}
			if err == nil {
				if _, err := q.UpdateLoyaltyAccountBalance(ctx, dbgen.UpdateLoyaltyAccountBalanceParams{
					TenantID:       tenantID,
					ID:             acct.ID,
					Balance:        acct.Balance - amount,
					LifetimePoints: acct.LifetimePoints,
					TierID:         acct.TierID,
				}); err != nil {
					return res, err
				}
				res.Points += amount
				obs.AddCounter(obs.LoyaltyPointsTotal, float64(amount), string(dbgen.LoyaltyTxnKindExpire))
			}
		}
		if _, err := q.MarkLoyaltyTransactionsExpired(ctx, dbgen.MarkLoyaltyTransactionsExpiredParams{TenantID: tenantID, Ids: b.ids}); err != nil {
			return res, err
		}
		res.Accounts++
	}
	return res, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
