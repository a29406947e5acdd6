package services

import (
	"context"
	"log"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
)

const (
	bootstrapLockName = "bootstrap"
	bootstrapLockTTL  = 20 * time.Second
	bootstrapFlagKey  = "cache:create_rules"
	bootstrapFlagTTL  = 30 * time.Second
)

// Bootstrapper idempotently registers the permission catalog derived from
// the route table at server start (component I). Cooperative throttling via
// a short-lived cache flag means a rolling deploy's worker fleet runs the
// upsert once per 30s window, not once per process.
type Bootstrapper struct {
	cache    ports.Cache
	lock     ports.Lock
	gateways ports.GatewayFactory
}

func NewBootstrapper(cache ports.Cache, lock ports.Lock, gateways ports.GatewayFactory) *Bootstrapper {
	return &Bootstrapper{cache: cache, lock: lock, gateways: gateways}
}

// Run registers every rule's permission (and its declared fields) in the
// catalog. No deletions: a rule removed from the table leaves its
// permission row in place until a manual sweep.
func (b *Bootstrapper) Run(ctx context.Context, rules []domain.RouteRule) error {
	token, err := b.lock.Acquire(ctx, bootstrapLockName, bootstrapLockTTL)
	if err != nil {
		return err
	}
	defer b.lock.Release(ctx, bootstrapLockName, token)

	_, present, err := b.cache.Get(ctx, bootstrapFlagKey)
	if err != nil {
		return err
	}
	if present {
		log.Println("bootstrapper: skipping, create_rules flag already set")
		return nil
	}
	if err := b.cache.Set(ctx, bootstrapFlagKey, "1", bootstrapFlagTTL); err != nil {
		return err
	}

	// ForCommand already opens a transaction bound to gw's repositories
	// (see repository.Factory.ForCommand); requesting a second one here
	// would start an unrelated transaction on its own connection.
	gw, err := b.gateways.ForCommand(ctx)
	if err != nil {
		return err
	}
	var txErr error
	defer func() { txErr = gw.Manager().Finish(ctx, txErr) }()

	seen := map[string]struct{}{}
	for _, rule := range rules {
		if rule.Public {
			continue
		}
		spec := rule.Permission
		if _, dup := seen[spec.Key()]; dup {
			continue
		}
		seen[spec.Key()] = struct{}{}

		permResult := gw.RBAC().UpsertPermission(ctx, spec.Resource, spec.Action, spec.Operation, spec.Description)
		if permResult.IsErr() {
			txErr = permResult.Error()
			return txErr
		}
		if len(spec.Fields) > 0 {
			fieldsResult := gw.RBAC().UpsertFields(ctx, permResult.Unwrap().ID, spec.Fields)
			if fieldsResult.IsErr() {
				txErr = fieldsResult.Error()
				return txErr
			}
		}
		log.Printf("bootstrapper: registered permission %s", spec.Key())
	}
	if txErr != nil {
		return txErr
	}

	// The view must reflect the freshly seeded catalog before the first
	// request is authorized against it; refreshing here (rather than
	// waiting for the first RBAC mutation) is what makes S6's concurrent
	// bootstrap idempotence observable immediately after startup.
	queryGw, err := b.gateways.ForQuery(ctx)
	if err != nil {
		return err
	}
	if res := queryGw.RBAC().RefreshEffectivePermissions(ctx); res.IsErr() {
		return res.Error()
	}
	return nil
}
