// Package store wraps the key-value store behind the narrow operation set the
// pipeline needs: hashes with atomic counters plus timestamp-scored sorted
// sets. Consumers and processors depend on the Store interface so tests can
// substitute an in-memory implementation.
package store

import "context"

// Store is the operation set required by the pipeline. All operations are
// single-key; the design deliberately avoids multi-key transactions.
type Store interface {
	// HSet writes the given fields on the hash at key.
	HSet(ctx context.Context, key string, fields map[string]any) error
	// HGet reads one hash field. A missing key or field yields "" without error.
	HGet(ctx context.Context, key, field string) (string, error)
	// HGetAll reads a whole hash. A missing key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HIncrBy atomically increments an integer hash field.
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	// ZAdd inserts member into the sorted set at key with the given score.
	ZAdd(ctx context.Context, key, member string, score float64) error
	// ZRange returns all members of the sorted set at key in ascending
	// score order.
	ZRange(ctx context.Context, key string) ([]string, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
