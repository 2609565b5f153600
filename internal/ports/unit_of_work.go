package ports

import (
	"context"
	"time"
)

// Tx is an opaque transaction handle for repositories/adapters.
// Infrastructure controls the concrete type (for example, *gorm.DB).
type Tx interface{}

// UnitOfWork defines a transaction boundary.
//
// Callback style: returning an error rolls back, returning nil commits.
// Repositories called with the callback context join the transaction.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTxContext stores a transaction handle in context.
func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext reads a transaction handle from context.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}

// WithTxTimeout runs fn in a transaction that is aborted once budget elapses.
func WithTxTimeout(ctx context.Context, uow UnitOfWork, budget time.Duration, fn func(ctx context.Context) error) error {
	if budget <= 0 {
		return uow.WithTx(ctx, fn)
	}
	txCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return uow.WithTx(txCtx, fn)
}
