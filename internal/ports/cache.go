package ports

import (
	"context"
	"time"
)

// Cache is a key-value capability for read models such as dashboard counts.
// Adapters are backed by the database or Redis; a zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
