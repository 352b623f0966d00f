// Package folders persists Folder rows in the local store.
package folders

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/models"
)

// Repository describes CRUD, query, and sync-bookkeeping operations for
// Folder rows. Implementations are backed by the local SQLite database.
type Repository interface {
	// Create inserts a folder and returns its local id.
	Create(ctx context.Context, userID, name, color, icon string, now time.Time) (int64, error)

	// Update edits the folder's user-visible attributes and bumps updated_at.
	Update(ctx context.Context, id int64, name, color, icon string, now time.Time) error

	// SoftDelete tombstones the folder. Detaching TopicConfig rows that point
	// at it is the storage coordinator's job (single transaction).
	SoftDelete(ctx context.Context, id int64, now time.Time) error

	GetByID(ctx context.Context, id int64) (*models.Folder, error)
	FindByName(ctx context.Context, userID, name string) (*models.Folder, error)

	// List returns all non-deleted folders for the user, by name.
	List(ctx context.Context, userID string) ([]models.Folder, error)

	// Count returns the number of rows (tombstones included) for the user.
	// The sync engine uses it to detect a wiped local store.
	Count(ctx context.Context, userID string) (int64, error)

	// ListDirty returns rows that are unlinked or modified after since,
	// tombstones included, ordered by local id.
	ListDirty(ctx context.Context, userID string, since time.Time) ([]models.Folder, error)

	// LinkRemote records the remote row id on a local row.
	LinkRemote(ctx context.Context, id, remoteID int64) error

	FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.Folder, error)

	// FindUnlinked returns the row with the given local id only if it has no
	// remote link yet (download-phase fallback-key match).
	FindUnlinked(ctx context.Context, userID string, localID int64) (*models.Folder, error)

	// DuplicateRemoteIDs returns remote ids referenced by more than one local
	// row, each mapped to its local ids in ascending order.
	DuplicateRemoteIDs(ctx context.Context, userID string) (map[int64][]int64, error)

	// Delete removes a row outright. Only the dedup phase uses it.
	Delete(ctx context.Context, id int64) error

	// InsertFromRemote inserts a row downloaded from the remote store,
	// preserving its remote link and timestamps, and returns the local id.
	InsertFromRemote(ctx context.Context, f *models.Folder) (int64, error)
}
