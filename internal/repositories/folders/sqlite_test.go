package folders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testUser = "5f0c9f9e-0a1c-4f7e-9dce-0fb24c2a3a11"

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE folders (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  remote_id   INTEGER,
  user_id     TEXT NOT NULL,
  name        TEXT NOT NULL,
  color       TEXT NOT NULL DEFAULT '',
  icon        TEXT NOT NULL DEFAULT '',
  deleted     INTEGER NOT NULL DEFAULT 0,
  updated_at  TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestCreateAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now()

	id, err := r.Create(ctx, testUser, "Study", "#14b8a6", "book", now)
	require.NoError(t, err)
	require.NotZero(t, id)

	f, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Study", f.Name)
	assert.Equal(t, "#14b8a6", f.Color)
	assert.Equal(t, "book", f.Icon)
	assert.False(t, f.Deleted)
	assert.False(t, f.Linked())
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSoftDelete_HiddenFromList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now()

	id1, err := r.Create(ctx, testUser, "Work", "#111111", "", now)
	require.NoError(t, err)
	_, err = r.Create(ctx, testUser, "Play", "#222222", "", now)
	require.NoError(t, err)

	require.NoError(t, r.SoftDelete(ctx, id1, now.Add(time.Second)))

	list, err := r.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Play", list[0].Name)

	// tombstone still counted for the wiped-store check
	n, err := r.Count(ctx, testUser)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestListDirty_UnlinkedOrModifiedSince(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	// unlinked row, older than the watermark: still dirty
	id1, err := r.Create(ctx, testUser, "Old", "#111111", "", base.Add(-time.Hour))
	require.NoError(t, err)

	// linked row, older than the watermark: clean
	id2, err := r.Create(ctx, testUser, "Clean", "#222222", "", base.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, r.LinkRemote(ctx, id2, 200))

	// linked row, modified after the watermark: dirty
	id3, err := r.Create(ctx, testUser, "Fresh", "#333333", "", base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, r.LinkRemote(ctx, id3, 300))

	dirty, err := r.ListDirty(ctx, testUser, base)
	require.NoError(t, err)
	require.Len(t, dirty, 2)
	assert.Equal(t, id1, dirty[0].ID)
	assert.Equal(t, id3, dirty[1].ID)
}

func TestDuplicateRemoteIDs(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now()

	id1, _ := r.Create(ctx, testUser, "A", "", "", now)
	id2, _ := r.Create(ctx, testUser, "A copy", "", "", now)
	id3, _ := r.Create(ctx, testUser, "B", "", "", now)

	require.NoError(t, r.LinkRemote(ctx, id1, 42))
	require.NoError(t, r.LinkRemote(ctx, id2, 42))
	require.NoError(t, r.LinkRemote(ctx, id3, 43))

	dups, err := r.DuplicateRemoteIDs(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, []int64{id1, id2}, dups[42])
}

func TestFindUnlinked(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now()

	id, err := r.Create(ctx, testUser, "A", "", "", now)
	require.NoError(t, err)

	f, err := r.FindUnlinked(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)

	require.NoError(t, r.LinkRemote(ctx, id, 42))
	_, err = r.FindUnlinked(ctx, testUser, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInsertFromRemote_PreservesLinkAndTombstone(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	updated := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	id, err := r.InsertFromRemote(ctx, &models.Folder{
		RemoteID:  77,
		UserID:    testUser,
		Name:      "Imported",
		Color:     "#abcdef",
		Deleted:   true,
		UpdatedAt: updated,
	})
	require.NoError(t, err)

	f, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 77, f.RemoteID)
	assert.True(t, f.Deleted)
	assert.True(t, f.UpdatedAt.Equal(updated))
}

func TestListDirty_MixedFractionalSecondPrecision(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := r.Create(ctx, testUser, "Study", "", "", base)
	require.NoError(t, err)
	require.NoError(t, r.LinkRemote(ctx, id, 42))
	require.NoError(t, r.Update(ctx, id, "Study", "#fff", "", base.Add(550*time.Millisecond)))

	// the watermark has fewer fractional digits than the stored update time
	dirty, err := r.ListDirty(ctx, testUser, base.Add(500*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, id, dirty[0].ID)
}
