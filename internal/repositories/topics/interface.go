// Package topics persists TopicConfig rows: per-(user, topic) settings such
// as folder assignment, color, and the allow-background policy.
package topics

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/models"
)

// Repository describes CRUD, query, and sync-bookkeeping operations for
// TopicConfig rows.
type Repository interface {
	// Upsert inserts or updates the row keyed by (user_id, topic). The remote
	// link of an existing row is preserved.
	Upsert(ctx context.Context, tc *models.TopicConfig) error

	GetByID(ctx context.Context, id int64) (*models.TopicConfig, error)
	GetByTopic(ctx context.Context, userID, topic string) (*models.TopicConfig, error)

	// TopicsByFolder returns the topic labels assigned to the folder.
	TopicsByFolder(ctx context.Context, userID string, folderID int64) ([]string, error)

	// UnfolderedTopics returns distinct topic labels that appear in sessions
	// but have no folder assignment.
	UnfolderedTopics(ctx context.Context, userID string) ([]string, error)

	// ClearFolder detaches every config pointing at the folder (folder-delete
	// cascade; topics fall back to "unorganized").
	ClearFolder(ctx context.Context, userID string, folderID int64, now time.Time) error

	// SetFolder points the config at a folder (nil detaches).
	SetFolder(ctx context.Context, id int64, folderID *int64, now time.Time) error

	// DeleteByTopic removes the config outright. Used when a topic is deleted
	// entirely; soft-deleting the topic's sessions is the coordinator's job.
	DeleteByTopic(ctx context.Context, userID, topic string) error

	RenameTopic(ctx context.Context, userID, oldTopic, newTopic string, now time.Time) error

	Count(ctx context.Context, userID string) (int64, error)
	ListDirty(ctx context.Context, userID string, since time.Time) ([]models.TopicConfig, error)
	LinkRemote(ctx context.Context, id, remoteID int64) error
	FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.TopicConfig, error)

	// FindUnlinkedByTopic returns the unlinked row with the given natural key
	// (user, topic), the fallback key for reconciling creation races.
	FindUnlinkedByTopic(ctx context.Context, userID, topic string) (*models.TopicConfig, error)

	InsertFromRemote(ctx context.Context, tc *models.TopicConfig) (int64, error)
}
