// Package lock provides the per-user advisory lock that serializes cart
// mutations and checkout for one user.
package lock

import (
	"context"
	"fmt"

	"github.com/01moynul/tvshop-golang/internal/apperr"
)

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func() error

// Locker hands out exclusive locks by key. Lock blocks until the lock is
// held or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// CartKey is the lock key guarding one user's cart.
func CartKey(userID string) string {
	return "cart:" + userID
}

func waitErr(ctx context.Context, key string) error {
	return fmt.Errorf("%w: waiting for lock %q: %w", apperr.ErrTimeout, key, ctx.Err())
}
