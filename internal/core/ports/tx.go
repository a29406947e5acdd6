package ports

import (
	"context"
	"database/sql"
)

// Isolation mirrors database/sql.IsolationLevel but keeps the port free of a
// direct database/sql dependency leak into callers that only need the name.
type Isolation = sql.IsolationLevel

// Manager is the unit-of-work component (F): wraps a connection, opening a
// transaction or (when nested) a savepoint, and commits/rolls back on exit.
type Manager interface {
	// WithTransaction begins a transaction on a fresh manager, or — when
	// nested is true and a transaction is already active — opens a
	// savepoint. Isolation on a nested call is rejected. nested=true with
	// no active transaction logs a warning and begins a plain transaction.
	WithTransaction(ctx context.Context, isolation Isolation, nested bool) (Manager, error)

	// Send executes a query against the manager's connection/transaction.
	Send(ctx context.Context, query Query) (Query, error)

	// Finish commits if err is nil, else rolls back; always releases the
	// underlying connection. Call via defer from the code that opened the
	// transaction.
	Finish(ctx context.Context, err error) error

	// Executor exposes the manager's live connection or transaction so a
	// Gateway built over it routes every query through the same unit of
	// work instead of a separate pool connection.
	Executor() Executor
}

// Query is anything that can execute itself against a *sql.DB/*sql.Tx-like
// executor and capture its own result.
type Query interface {
	Exec(ctx context.Context, exec Executor) error
}

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
