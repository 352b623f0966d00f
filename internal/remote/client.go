// Package remote defines the client for the remote row store: a per-user
// mirror of folders, sessions, and topic configs, addressed by remote row id
// and reconciled through the (user_id, local_id) natural key.
package remote

import (
	"context"
	"time"
)

// FolderRow is the remote representation of a folder.
type FolderRow struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	LocalID   int64     `json:"local_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRow is the remote representation of a session. FolderID references
// the remote folder id; mapping to and from local folder ids is the sync
// engine's job.
type SessionRow struct {
	ID        int64      `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	LocalID   int64      `json:"local_id"`
	Topic     string     `json:"topic"`
	Tag       string     `json:"tag,omitempty"`
	FolderID  *int64     `json:"folder_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  int64      `json:"duration"`
	Deleted   bool       `json:"deleted"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TopicConfigRow is the remote representation of a topic config. Its fallback
// key is (user_id, topic); FolderID references the remote folder id.
type TopicConfigRow struct {
	ID              int64     `json:"id,omitempty"`
	UserID          string    `json:"user_id"`
	Topic           string    `json:"topic"`
	FolderID        *int64    `json:"folder_id,omitempty"`
	AllowBackground bool      `json:"allow_background"`
	Color           string    `json:"color,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Client talks to the remote row store.
//
// Upsert* creates the row when ID is zero and updates it otherwise, returning
// the stored row with its remote id. A create that collides with an existing
// (user_id, local_id) — or folder name — returns common.ErrRemoteConflict; the
// caller then resolves the conflict through the *ByLocalID / FolderByName /
// TopicConfigByTopic fallback lookups, which return common.ErrNotFound when
// no row matches.
//
// *ModifiedSince return the user's rows updated strictly after since,
// excluding tombstones. Network failures surface as
// common.ErrRemoteUnavailable, auth failures as common.ErrUnauthorized.
type Client interface {
	// Authorize acquires (or refreshes) the bearer credential. Callers treat
	// failure as "remote unavailable" and degrade to local-only operation.
	Authorize(ctx context.Context) error

	UpsertFolder(ctx context.Context, row *FolderRow) (*FolderRow, error)
	FolderByLocalID(ctx context.Context, userID string, localID int64) (*FolderRow, error)
	FolderByName(ctx context.Context, userID, name string) (*FolderRow, error)
	FoldersModifiedSince(ctx context.Context, userID string, since time.Time) ([]FolderRow, error)

	UpsertSession(ctx context.Context, row *SessionRow) (*SessionRow, error)
	SessionByLocalID(ctx context.Context, userID string, localID int64) (*SessionRow, error)
	SessionsModifiedSince(ctx context.Context, userID string, since time.Time) ([]SessionRow, error)

	UpsertTopicConfig(ctx context.Context, row *TopicConfigRow) (*TopicConfigRow, error)
	TopicConfigByTopic(ctx context.Context, userID, topic string) (*TopicConfigRow, error)
	TopicConfigsModifiedSince(ctx context.Context, userID string, since time.Time) ([]TopicConfigRow, error)

	Close() error
}
