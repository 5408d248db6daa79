package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stellar/go-stellar-sdk/support/log"
)

type (
	// PostCommitFunction runs after the transaction committed. Its failure cannot undo the committed writes.
	PostCommitFunction           func() error
	AtomicFunctionWithPostCommit func(dbTx DBTransaction) (PostCommitFunction, error)
	TransactionOptions           struct {
		DBConnectionPool             DBConnectionPool
		AtomicFunctionWithPostCommit AtomicFunctionWithPostCommit
		TxOptions                    *sql.TxOptions
	}
)

// RunInTransactionWithResult runs atomicFunction in a transaction, committing on success and rolling back when it
// fails or panics.
func RunInTransactionWithResult[T any](ctx context.Context, dbConnectionPool DBConnectionPool, opts *sql.TxOptions, atomicFunction func(dbTx DBTransaction) (T, error)) (result T, err error) {
	var zero T

	dbTx, err := dbConnectionPool.BeginTxx(ctx, opts)
	if err != nil {
		return zero, fmt.Errorf("creating db transaction for RunInTransactionWithResult: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			rollback(ctx, dbTx, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		rollback(ctx, dbTx, err)
	}()

	result, err = atomicFunction(dbTx)
	if err != nil {
		return zero, NewTransactionExecutionError(err)
	}

	if err = dbTx.Commit(); err != nil {
		return zero, fmt.Errorf("committing transaction in RunInTransactionWithResult: %w", err)
	}
	committed = true

	return result, nil
}

// RunInTransaction is RunInTransactionWithResult for atomic functions without a result.
func RunInTransaction(ctx context.Context, dbConnectionPool DBConnectionPool, opts *sql.TxOptions, atomicFunction func(dbTx DBTransaction) error) error {
	_, err := RunInTransactionWithResult(ctx, dbConnectionPool, opts, func(dbTx DBTransaction) (struct{}, error) {
		return struct{}{}, atomicFunction(dbTx)
	})
	return err
}

// RunInTransactionWithPostCommit runs the atomic function in a transaction and, only after a successful commit, runs
// the post-commit function it returned.
func RunInTransactionWithPostCommit(ctx context.Context, opts *TransactionOptions) error {
	if opts == nil || opts.DBConnectionPool == nil || opts.AtomicFunctionWithPostCommit == nil {
		return errors.New("db connection pool and atomic function are required")
	}

	postCommitFn, err := RunInTransactionWithResult(ctx, opts.DBConnectionPool, opts.TxOptions, func(dbTx DBTransaction) (PostCommitFunction, error) {
		return opts.AtomicFunctionWithPostCommit(dbTx)
	})
	if err != nil {
		return err
	}
	if postCommitFn == nil {
		return nil
	}

	if err = postCommitFn(); err != nil {
		return fmt.Errorf("running post-commit function: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, dbTx DBTransaction, cause error) {
	const logMessage = "rolling back transaction due to error"
	if IsTransactionExecutionError(cause) {
		log.Ctx(ctx).Debugf("%s: %v", logMessage, cause)
	} else {
		log.Ctx(ctx).Errorf("%s: %v", logMessage, cause)
	}

	if err := dbTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Ctx(ctx).Errorf("error in database transaction rollback: %v", err)
	}
}

// TransactionExecutionError wraps a failure of the atomic function, as opposed to a failure of the transaction
// handling itself.
type TransactionExecutionError struct {
	err error
}

func NewTransactionExecutionError(err error) *TransactionExecutionError {
	return &TransactionExecutionError{err: err}
}

func (t *TransactionExecutionError) Error() string {
	return fmt.Sprintf("transaction execution error: %s", t.err.Error())
}

func (t *TransactionExecutionError) Unwrap() error {
	return t.err
}

func IsTransactionExecutionError(err error) bool {
	var eErr *TransactionExecutionError
	return errors.As(err, &eErr)
}
