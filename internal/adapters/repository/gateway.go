// Package repository implements the RepositoryGateway component (G) over
// PostgreSQL, keeping IANDYI-care-service's sql_repository.go circuit
// breaker + bounded retry pattern and generalizing it from the baby/
// measurement domain to users, roles and permissions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/authguard/internal/adapters/db"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/sony/gobreaker"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// breakerTuning holds the circuit breaker knobs every Gateway's per-entity
// breaker is built with. SetBreakerTuning lets main.go apply the
// environment's CIRCUIT_BREAKER_* settings before the first Factory is
// constructed; the initial value matches the teacher's original hardcoded
// defaults.
var breakerTuning = struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
}{maxRequests: 5, interval: 60 * time.Second, timeout: 30 * time.Second}

// SetBreakerTuning overrides the defaults every subsequently-built Gateway's
// circuit breakers use.
func SetBreakerTuning(maxRequests uint32, interval, timeout time.Duration) {
	breakerTuning.maxRequests = maxRequests
	breakerTuning.interval = interval
	breakerTuning.timeout = timeout
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerTuning.maxRequests,
		Interval:    breakerTuning.interval,
		Timeout:     breakerTuning.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// resilient runs operation through a circuit breaker with bounded retry,
// skipping the retry loop entirely for sql.ErrNoRows since that is never a
// transient condition.
func resilient(cb *gobreaker.CircuitBreaker, operation func() error) error {
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, withRetry(operation)
	})
	return err
}

func withRetry(operation func() error) error {
	var lastErr error
	for i := 0; i < defaultMaxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, sql.ErrNoRows) || strings.Contains(strings.ToLower(err.Error()), "no rows") {
			return err
		}
		if i < defaultMaxRetries-1 {
			time.Sleep(defaultRetryDelay)
		}
	}
	return fmt.Errorf("repository: operation failed after %d retries: %w", defaultMaxRetries, lastErr)
}

// Gateway composes the user and RBAC repositories over a shared executor
// (the live *sql.DB/*sql.Tx), satisfying ports.Gateway.
type Gateway struct {
	exec    ports.Executor
	manager ports.Manager
	user    *UserRepository
	rbac    *RBACRepository
	userCB  *gobreaker.CircuitBreaker
	rbacCB  *gobreaker.CircuitBreaker
}

func NewGateway(exec ports.Executor, manager ports.Manager) *Gateway {
	userCB := newBreaker("repository.user")
	rbacCB := newBreaker("repository.rbac")
	return &Gateway{
		exec:    exec,
		manager: manager,
		user:    &UserRepository{exec: exec, cb: userCB},
		rbac:    &RBACRepository{exec: exec, cb: rbacCB},
		userCB:  userCB,
		rbacCB:  rbacCB,
	}
}

func (g *Gateway) User() ports.UserRepository { return g.user }
func (g *Gateway) RBAC() ports.RBACRepository { return g.rbac }
func (g *Gateway) Manager() ports.Manager     { return g.manager }

// Factory builds Gateways bound to either the master or the replica pool
// (commands vs. queries), per spec.md's master/replica split.
type Factory struct {
	master *sql.DB
	replica *sql.DB
}

func NewFactory(master, replica *sql.DB) *Factory {
	return &Factory{master: master, replica: replica}
}

// ForCommand opens a transaction on the master pool up front and binds the
// Gateway's repositories to it, so every repository call issued against the
// returned Gateway participates in the same unit of work. Callers commit or
// roll back via gw.Manager().Finish(ctx, err).
func (f *Factory) ForCommand(ctx context.Context) (ports.Gateway, error) {
	mgr, err := db.New(f.master).WithTransaction(ctx, sql.LevelDefault, false)
	if err != nil {
		return nil, fmt.Errorf("repository: begin command transaction: %w", err)
	}
	return NewGateway(mgr.Executor(), mgr), nil
}

// ForQuery reads from the replica (falling back to master when unset)
// without opening a transaction; the returned Manager still exposes a valid
// Executor for callers that just want a consistent read connection.
func (f *Factory) ForQuery(ctx context.Context) (ports.Gateway, error) {
	pool := f.replica
	if pool == nil {
		pool = f.master
	}
	mgr := db.New(pool)
	return NewGateway(mgr.Executor(), mgr), nil
}
