package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Repositories called from
// inside fn pick the transaction up from the context automatically.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
