// Package db implements the TransactionManager component (F), grounded on
// IANDYI-care-service's config/database.go connection-pool setup, extended
// with nested-transaction support via Postgres savepoints.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/IANDYI/authguard/internal/core/ports"
)

// Manager wraps a single connection or a single transaction. A fresh Manager
// built from a *sql.DB has no active transaction; WithTransaction begins
// one. A Manager already wrapping a *sql.Tx opens a savepoint when asked to
// nest instead of a second BEGIN.
type Manager struct {
	db         *sql.DB
	tx         *sql.Tx
	savepoints int
}

func New(db *sql.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) executor() ports.Executor {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

// Executor exposes the manager's current connection or transaction, so a
// Gateway built from it can route repository queries through the same unit
// of work rather than a separate pool connection.
func (m *Manager) Executor() ports.Executor {
	return m.executor()
}

// WithTransaction returns a Manager guaranteed to have an active
// transaction. Isolation is only meaningful on the outermost BEGIN; passing
// a non-default isolation on an already-nested call is rejected since
// Postgres has no per-savepoint isolation level.
func (m *Manager) WithTransaction(ctx context.Context, isolation ports.Isolation, nested bool) (ports.Manager, error) {
	if nested {
		if m.tx == nil {
			log.Printf("db: nested transaction requested with no active transaction, beginning a plain one")
			return m.WithTransaction(ctx, isolation, false)
		}
		if isolation != sql.LevelDefault {
			return nil, fmt.Errorf("db: isolation level cannot be set on a nested transaction")
		}
		next := &Manager{db: m.db, tx: m.tx, savepoints: m.savepoints + 1}
		name := savepointName(next.savepoints)
		if _, err := m.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
			return nil, fmt.Errorf("db: savepoint %s: %w", name, err)
		}
		return next, nil
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return nil, fmt.Errorf("db: begin transaction: %w", err)
	}
	return &Manager{db: m.db, tx: tx}, nil
}

func savepointName(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}

func (m *Manager) Send(ctx context.Context, query ports.Query) (ports.Query, error) {
	if err := query.Exec(ctx, m.executor()); err != nil {
		return nil, err
	}
	return query, nil
}

// Finish commits (or releases the savepoint) on success, rolls back (or
// rolls back to the savepoint) on failure. Called via defer by whichever
// call opened this Manager's transaction/savepoint.
func (m *Manager) Finish(ctx context.Context, err error) error {
	if m.tx == nil {
		return nil
	}
	if m.savepoints > 0 {
		name := savepointName(m.savepoints)
		if err != nil {
			_, rbErr := m.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
			if rbErr != nil {
				return fmt.Errorf("db: rollback to %s: %w (original error: %v)", name, rbErr, err)
			}
			return nil
		}
		_, relErr := m.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return relErr
	}
	if err != nil {
		if rbErr := m.tx.Rollback(); rbErr != nil {
			return fmt.Errorf("db: rollback: %w (original error: %v)", rbErr, err)
		}
		return nil
	}
	return m.tx.Commit()
}
