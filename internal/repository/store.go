// Package repository implements Postgres persistence for the marketplace
// core over sqlx. A Store method participates in an enclosing transaction
// when the context carries one (see InTx); otherwise it runs against the
// pool directly.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is the sqlx-backed persistence layer.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a Store over the given database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type txKey struct{}

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx that the
// repositories use.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// q returns the transaction carried by ctx, or the pool.
func (s *Store) q(ctx context.Context) queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// InTx runs fn inside a single database transaction. Writes issued through
// the Store with the context fn receives join that transaction. The
// transaction commits iff fn returns nil; any error (including context
// cancellation surfacing through a query) rolls the whole transaction back,
// leaving no partial state.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
