package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function inside one database transaction,
// passing the transaction handle via `tx`.
//
// Repositories accept a nil tx for the non-transactional path; the concrete
// type of the handle is infra-defined (pgx.Tx for Postgres). This keeps the
// use-case interfaces free of driver types while still letting the vault do
// its deactivate-before-insert and token persistence atomically.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
