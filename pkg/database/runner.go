package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

// TxRunner runs fn inside one transaction. Nested calls join the outer one.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

type PostgresTxRunner struct {
	db     DB
	logger ectologger.Logger
}

func NewTxRunner(db DB, logger ectologger.Logger) *PostgresTxRunner {
	return &PostgresTxRunner{db: db, logger: logger}
}

func (r *PostgresTxRunner) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	ctxTx, tx, err := r.db.GetTx(ctx, opts)
	if err != nil {
		return errs.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctxTx)

	if err := fn(ctxTx); err != nil {
		return err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return errs.StorageFailure("failed to commit transaction")
	}
	return nil
}
