// Package appstate persists small opaque key/value state that must survive
// process death: the timer snapshot, the last-active heartbeat, and sync
// bookkeeping. It is never transmitted to the remote store.
package appstate

import (
	"context"
	"time"
)

// Well-known keys.
const (
	// KeyLastSyncTime is the sync watermark: remote/local data older than this
	// is considered already reconciled.
	KeyLastSyncTime = "last_sync_time"

	// KeyLastActive is the heartbeat written on backgrounding; crash recovery
	// uses it to anchor the end time of an orphaned session.
	KeyLastActive = "last_active_timestamp"

	// KeyTimerState holds the timer engine's JSON snapshot.
	KeyTimerState = "timer_state"
)

// Repository describes the key/value operations over the app_state table.
type Repository interface {
	// Get returns the value for key, or "" with no error when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or overwrites the value for key. No history is retained.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all keys.
	Clear(ctx context.Context) error

	// GetTime parses the value for key as RFC3339. ok is false when the key
	// is absent or the value does not parse.
	GetTime(ctx context.Context, key string) (t time.Time, ok bool, err error)

	// SetTime stores t under key as RFC3339 (nanosecond precision, UTC).
	SetTime(ctx context.Context, key string, t time.Time) error
}
