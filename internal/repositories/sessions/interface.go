// Package sessions persists Session rows and serves the read-side aggregate
// queries (daily totals, streak, per-topic and per-folder totals).
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/models"
)

// TopicTotal is a per-topic duration sum over a date range.
type TopicTotal struct {
	Topic   string
	Seconds int64
}

// FolderTotal is a per-folder duration sum over a date range. Name is ""
// for sessions not filed under any folder.
type FolderTotal struct {
	Name    string
	Seconds int64
}

// Repository describes CRUD, query, aggregation, and sync-bookkeeping
// operations for Session rows.
//
// The store does not enforce the at-most-one-open-session invariant itself;
// the timer engine is the single writer and closes any prior open session
// before creating a new one.
type Repository interface {
	// Create inserts an open session (end = NULL, duration = 0) and returns
	// its local id.
	Create(ctx context.Context, userID, topic, tag string, folderID *int64, start time.Time) (int64, error)

	// End closes the session: end time set, duration = floor(end-start) in
	// seconds (clamped at zero). Closing an already-closed session is a no-op.
	End(ctx context.Context, id int64, end time.Time) error

	GetByID(ctx context.Context, id int64) (*models.Session, error)

	// ListOpen returns the user's sessions with a NULL end time, oldest first.
	ListOpen(ctx context.Context, userID string) ([]models.Session, error)

	SetFolder(ctx context.Context, id int64, folderID *int64, now time.Time) error
	SoftDelete(ctx context.Context, id int64, now time.Time) error
	SoftDeleteByTopic(ctx context.Context, userID, topic string, now time.Time) error
	RenameTopic(ctx context.Context, userID, oldTopic, newTopic string, now time.Time) error

	Count(ctx context.Context, userID string) (int64, error)

	// ListDirty returns rows that are unlinked or modified after since,
	// tombstones included, ordered by local id. Open sessions are excluded:
	// a session is uploaded once its duration is final.
	ListDirty(ctx context.Context, userID string, since time.Time) ([]models.Session, error)

	LinkRemote(ctx context.Context, id, remoteID int64) error
	FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.Session, error)
	FindUnlinked(ctx context.Context, userID string, localID int64) (*models.Session, error)
	DuplicateRemoteIDs(ctx context.Context, userID string) (map[int64][]int64, error)

	// Delete removes a row outright. Only the dedup phase uses it.
	Delete(ctx context.Context, id int64) error

	// RepointFolder moves every session referencing oldFolderID to
	// newFolderID (folder dedup).
	RepointFolder(ctx context.Context, userID string, oldFolderID, newFolderID int64) error

	InsertFromRemote(ctx context.Context, s *models.Session) (int64, error)

	// DailyTotals maps local calendar dates ("2006-01-02", device timezone at
	// query time) to summed seconds over the last days days. Only closed
	// sessions with duration > 0 count.
	DailyTotals(ctx context.Context, userID string, days int) (map[string]int64, error)

	// CurrentStreak counts consecutive non-zero days walking back from today.
	// A zero total today does not break the streak.
	CurrentStreak(ctx context.Context, userID string) (int, error)

	TopicTotals(ctx context.Context, userID string, from, to time.Time) ([]TopicTotal, error)
	FolderTotals(ctx context.Context, userID string, from, to time.Time) ([]FolderTotal, error)
}
