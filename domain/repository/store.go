package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNil is returned by Store reads when the key does not exist or has expired.
var ErrNil = errors.New("store: key does not exist")

// Store is the key-value capability set every component persists through.
// Single-key operations are atomic. HCompareAndSwap and GetDel are the only
// primitives with read-and-write semantics.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// GetDel returns the value and deletes the key in one step. Of several
	// concurrent callers at most one observes the value.
	GetDel(ctx context.Context, key string) (string, error)
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HSetEx writes the fields and sets the hash's expiry in one step, so the
	// hash is never observable without its TTL. A ttl <= 0 leaves the expiry
	// untouched.
	HSetEx(ctx context.Context, key string, values map[string]string, ttl time.Duration) error
	// HCompareAndSwap sets field to next only if its current value equals prev
	// (a missing field compares equal to ""). It returns ErrNil when the hash
	// itself does not exist.
	HCompareAndSwap(ctx context.Context, key, field, prev, next string) (bool, error)

	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string) ([]string, error)
	LRem(ctx context.Context, key, value string) (int64, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime, or a value <= 0 when the key is
	// missing or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) error
}
