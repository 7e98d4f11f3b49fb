package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and pgx.Tx.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxFunc runs fn inside a unit of work bound to a querier of type Q.
type TxFunc[Q any] func(ctx context.Context, fn func(q Q) error) error

// InTx returns a TxFunc that opens a transaction on db, binds it with bind and
// commits when fn returns nil. Any error rolls the transaction back.
func InTx[Q any](db TxBeginner, bind func(pgx.Tx) Q) TxFunc[Q] {
	return func(ctx context.Context, fn func(q Q) error) (err error) {
		if db == nil {
			return errors.New("repo: transaction source not configured")
		}
		tx, err := db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()
		if err = fn(bind(tx)); err != nil {
			return err
		}
		if err = tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	}
}

// Direct runs fn against q without a transaction. Tests use it with stubs.
func Direct[Q any](q Q) TxFunc[Q] {
	return func(ctx context.Context, fn func(q Q) error) error {
		return fn(q)
	}
}
