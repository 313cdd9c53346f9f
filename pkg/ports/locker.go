package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises work on one key across process replicas.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done. The lock
	// expires on its own after ttl if the holder dies.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
