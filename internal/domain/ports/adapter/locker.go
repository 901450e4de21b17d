package adapter

import (
	"context"
	"time"
)

// Locker provides best-effort mutual exclusion keyed by string.
// TryLock returns domain.ErrLocked when the key is already held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
