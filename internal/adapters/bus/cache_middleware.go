package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
)

const (
	epochKey       = "cache:epoch"
	epochModulus   = 1_000_000
	defaultReadTTL = 60 * time.Second
)

// CacheMiddleware wraps a query handler in an epoch-indexed read-through
// cache: the epoch prefix means a bump from CacheInvalidateMiddleware
// invalidates every key under the old epoch implicitly, without having to
// enumerate or delete them.
func CacheMiddleware(cache ports.Cache) ports.Middleware {
	return func(next ports.Handler) ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			epoch, err := currentEpoch(ctx, cache)
			if err != nil {
				return next.Handle(ctx, rc, msg)
			}
			key := cacheKey(epoch, rc)

			if cached, hit, err := cache.Get(ctx, key); err == nil && hit {
				var value any
				if jsonErr := json.Unmarshal([]byte(cached), &value); jsonErr == nil {
					return result.Ok[any](value)
				}
			}

			out := next.Handle(ctx, rc, msg)
			if out.IsOk() {
				if encoded, err := json.Marshal(out.Unwrap()); err == nil {
					_ = cache.Set(ctx, key, string(encoded), defaultReadTTL)
				}
			}
			return out
		})
	}
}

// CacheInvalidateMiddleware bumps the global epoch after a command handler
// succeeds, so every subsequent read observes a fresh key namespace.
// Readers mid-flight on the old epoch are tolerated — they age out with
// their entry's TTL.
func CacheInvalidateMiddleware(cache ports.Cache) ports.Middleware {
	return func(next ports.Handler) ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			out := next.Handle(ctx, rc, msg)
			if out.IsOk() {
				_, _ = cache.Increment(ctx, epochKey, 1)
			}
			return out
		})
	}
}

func currentEpoch(ctx context.Context, cache ports.Cache) (int, error) {
	raw, hit, err := cache.Get(ctx, epochKey)
	if err != nil {
		return 0, err
	}
	if !hit {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return ((n % epochModulus) + epochModulus) % epochModulus, nil
}

// cacheKey builds method|path|sorted_urlencoded_query|user_id, prefixed
// with the epoch.
func cacheKey(epoch int, rc *domain.RequestContext) string {
	var parts []string
	for k, vs := range rc.QueryParams {
		for _, v := range vs {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	sort.Strings(parts)
	userID := ""
	if rc.User != nil {
		userID = rc.User.ID.String()
	}
	return fmt.Sprintf("%d:%s|%s|%s|%s", epoch, rc.Method, rc.Path, strings.Join(parts, "&"), userID)
}
