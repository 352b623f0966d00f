package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/dbx"
	"github.com/dmitrijs2005/focuskeeper/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const folderColumns = `id, remote_id, user_id, name, color, icon, deleted, updated_at`

func fmtTime(t time.Time) string {
	return t.UTC().Format(dbx.TimeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	var f models.Folder
	var remoteID sql.NullInt64
	var deleted int
	var updatedAt string

	if err := row.Scan(&f.ID, &remoteID, &f.UserID, &f.Name, &f.Color, &f.Icon, &deleted, &updatedAt); err != nil {
		return nil, err
	}
	if remoteID.Valid {
		f.RemoteID = remoteID.Int64
	}
	f.Deleted = deleted != 0
	f.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &f, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, userID, name, color, icon string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO folders (user_id, name, color, icon, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, userID, name, color, icon, fmtTime(now))
	if err != nil {
		return 0, common.WrapStorage("failed to insert folder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapStorage("failed to get folder id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, name, color, icon string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE folders SET name = ?, color = ?, icon = ?, updated_at = ? WHERE id = ?
	`, name, color, icon, fmtTime(now), id)
	if err != nil {
		return common.WrapStorage("failed to update folder", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE folders SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0
	`, fmtTime(now), id)
	if err != nil {
		return common.WrapStorage("failed to delete folder", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to get folder %d", id), err)
	}
	return f, nil
}

func (r *SQLiteRepository) FindByName(ctx context.Context, userID, name string) (*models.Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+folderColumns+` FROM folders WHERE user_id = ? AND name = ? AND deleted = 0
	`, userID, name)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find folder %q", name), err)
	}
	return f, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+folderColumns+` FROM folders WHERE user_id = ? AND deleted = 0 ORDER BY name
	`, userID)
	if err != nil {
		return nil, common.WrapStorage("failed to select folders", err)
	}
	defer rows.Close()
	return collectFolders(rows)
}

func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, common.WrapStorage("failed to count folders", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string, since time.Time) ([]models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+folderColumns+` FROM folders
		WHERE user_id = ? AND (remote_id IS NULL OR updated_at > ?)
		ORDER BY id
	`, userID, fmtTime(since))
	if err != nil {
		return nil, common.WrapStorage("failed to select dirty folders", err)
	}
	defer rows.Close()
	return collectFolders(rows)
}

func (r *SQLiteRepository) LinkRemote(ctx context.Context, id, remoteID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE folders SET remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to link folder %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+folderColumns+` FROM folders WHERE user_id = ? AND remote_id = ? ORDER BY id LIMIT 1
	`, userID, remoteID)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find folder by remote id %d", remoteID), err)
	}
	return f, nil
}

func (r *SQLiteRepository) FindUnlinked(ctx context.Context, userID string, localID int64) (*models.Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+folderColumns+` FROM folders WHERE user_id = ? AND id = ? AND remote_id IS NULL
	`, userID, localID)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find unlinked folder %d", localID), err)
	}
	return f, nil
}

func (r *SQLiteRepository) DuplicateRemoteIDs(ctx context.Context, userID string) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT remote_id, id FROM folders
		WHERE user_id = ? AND remote_id IS NOT NULL
		  AND remote_id IN (
			SELECT remote_id FROM folders
			WHERE user_id = ? AND remote_id IS NOT NULL
			GROUP BY remote_id HAVING COUNT(*) > 1
		  )
		ORDER BY remote_id, id
	`, userID, userID)
	if err != nil {
		return nil, common.WrapStorage("failed to select duplicate folders", err)
	}
	defer rows.Close()

	result := make(map[int64][]int64)
	for rows.Next() {
		var remoteID, id int64
		if err := rows.Scan(&remoteID, &id); err != nil {
			return nil, err
		}
		result[remoteID] = append(result[remoteID], id)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to delete folder %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) InsertFromRemote(ctx context.Context, f *models.Folder) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO folders (remote_id, user_id, name, color, icon, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.RemoteID, f.UserID, f.Name, f.Color, f.Icon, boolToInt(f.Deleted), fmtTime(f.UpdatedAt))
	if err != nil {
		return 0, common.WrapStorage("failed to insert remote folder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapStorage("failed to get folder id", err)
	}
	return id, nil
}

func collectFolders(rows *sql.Rows) ([]models.Folder, error) {
	var result []models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
