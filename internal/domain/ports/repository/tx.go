package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Group and template writes need to
// land atomically, so those repositories take a Tx and resolve the
// concrete pgx handle on the infra side. A nil Tx means "run on the
// pool".
type Tx interface{}

// TransactionManager runs fn inside one database transaction, committing
// when fn returns nil and rolling back otherwise.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
