// Package cache provides the advisory key/value cache used by the basket,
// order, and review read paths. Entries are invalidated on every write and
// are never authoritative.
package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL bounds how long a cached read-through entry may go stale.
const DefaultTTL = 5 * time.Minute

// Cache is the capability injected into services. dest must be a pointer;
// values are stored as JSON.
type Cache interface {
	// Get unmarshals the cached value into dest. The bool reports a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetOrSet returns the cached value for key, populating it from fill on a
// miss. Cache errors degrade to a direct fill: the cache is advisory.
func GetOrSet[T any](ctx context.Context, c Cache, key string, fill func(context.Context) (T, error)) (T, error) {
	var cached T
	if c != nil {
		if hit, err := c.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	value, err := fill(ctx)
	if err != nil {
		return value, err
	}
	if c != nil {
		_ = c.Set(ctx, key, value, DefaultTTL)
	}
	return value, nil
}

// Cache key builders. Keys mirror the owner identity of the cached view.

func BasketKey(owner string) string       { return "basket_" + owner }
func OrdersKey(userID int64) string       { return fmt.Sprintf("orders_%d", userID) }
func RatingKey(productID int64) string    { return fmt.Sprintf("average_rating_%d", productID) }
func CommentsKey(productID int64) string  { return fmt.Sprintf("comments_%d", productID) }
