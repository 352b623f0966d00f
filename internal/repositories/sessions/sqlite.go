package sessions

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

const sessionColumns = `id, remote_id, user_id, topic, tag, folder_id, start_time, end_time, duration, deleted, updated_at`

func fmtTime(t time.Time) string {
	return t.UTC().Format(dbx.TimeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var remoteID, folderID sql.NullInt64
	var startTime, updatedAt string
	var endTime sql.NullString
	var deleted int

	err := row.Scan(&s.ID, &remoteID, &s.UserID, &s.Topic, &s.Tag, &folderID,
		&startTime, &endTime, &s.Duration, &deleted, &updatedAt)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		s.RemoteID = remoteID.Int64
	}
	if folderID.Valid {
		s.FolderID = &folderID.Int64
	}
	s.StartTime, _ = time.Parse(time.RFC3339Nano, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339Nano, endTime.String)
		s.EndTime = &t
	}
	s.Deleted = deleted != 0
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &s, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, userID, topic, tag string, folderID *int64, start time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, topic, tag, folder_id, start_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, topic, tag, folderID, fmtTime(start), fmtTime(start))
	if err != nil {
		return 0, common.WrapStorage("failed to insert session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapStorage("failed to get session id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) End(ctx context.Context, id int64, end time.Time) error {
	var startStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT start_time FROM sessions WHERE id = ? AND end_time IS NULL
	`, id).Scan(&startStr)
	if errors.Is(err, sql.ErrNoRows) {
		// already closed (or unknown id): nothing to do
		return nil
	}
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to read session %d", id), err)
	}

	start, err := time.Parse(time.RFC3339Nano, startStr)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to parse start of session %d", id), err)
	}

	duration := int64(end.Sub(start).Seconds())
	if duration < 0 {
		duration = 0
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE sessions SET end_time = ?, duration = ?, updated_at = ? WHERE id = ? AND end_time IS NULL
	`, fmtTime(end), duration, fmtTime(end), id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to end session %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to get session %d", id), err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListOpen(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? AND end_time IS NULL AND deleted = 0
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, common.WrapStorage("failed to select open sessions", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SQLiteRepository) SetFolder(ctx context.Context, id int64, folderID *int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET folder_id = ?, updated_at = ? WHERE id = ?
	`, folderID, fmtTime(now), id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to set folder on session %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0
	`, fmtTime(now), id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to delete session %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteByTopic(ctx context.Context, userID, topic string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET deleted = 1, updated_at = ? WHERE user_id = ? AND topic = ? AND deleted = 0
	`, fmtTime(now), userID, topic)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to delete sessions of topic %q", topic), err)
	}
	return nil
}

func (r *SQLiteRepository) RenameTopic(ctx context.Context, userID, oldTopic, newTopic string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET topic = ?, updated_at = ? WHERE user_id = ? AND topic = ?
	`, newTopic, fmtTime(now), userID, oldTopic)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to rename topic %q", oldTopic), err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, common.WrapStorage("failed to count sessions", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string, since time.Time) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? AND end_time IS NOT NULL AND (remote_id IS NULL OR updated_at > ?)
		ORDER BY id
	`, userID, fmtTime(since))
	if err != nil {
		return nil, common.WrapStorage("failed to select dirty sessions", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SQLiteRepository) LinkRemote(ctx context.Context, id, remoteID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to link session %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? AND remote_id = ? ORDER BY id LIMIT 1
	`, userID, remoteID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find session by remote id %d", remoteID), err)
	}
	return s, nil
}

func (r *SQLiteRepository) FindUnlinked(ctx context.Context, userID string, localID int64) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? AND id = ? AND remote_id IS NULL
	`, userID, localID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find unlinked session %d", localID), err)
	}
	return s, nil
}

func (r *SQLiteRepository) DuplicateRemoteIDs(ctx context.Context, userID string) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT remote_id, id FROM sessions
		WHERE user_id = ? AND remote_id IS NOT NULL
		  AND remote_id IN (
			SELECT remote_id FROM sessions
			WHERE user_id = ? AND remote_id IS NOT NULL
			GROUP BY remote_id HAVING COUNT(*) > 1
		  )
		ORDER BY remote_id, id
	`, userID, userID)
	if err != nil {
		return nil, common.WrapStorage("failed to select duplicate sessions", err)
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
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to delete session %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) RepointFolder(ctx context.Context, userID string, oldFolderID, newFolderID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET folder_id = ? WHERE user_id = ? AND folder_id = ?
	`, newFolderID, userID, oldFolderID)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to repoint folder %d", oldFolderID), err)
	}
	return nil
}

func (r *SQLiteRepository) InsertFromRemote(ctx context.Context, s *models.Session) (int64, error) {
	var endTime any
	if s.EndTime != nil {
		endTime = fmtTime(*s.EndTime)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (remote_id, user_id, topic, tag, folder_id, start_time, end_time, duration, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RemoteID, s.UserID, s.Topic, s.Tag, s.FolderID, fmtTime(s.StartTime), endTime,
		s.Duration, boolToInt(s.Deleted), fmtTime(s.UpdatedAt))
	if err != nil {
		return 0, common.WrapStorage("failed to insert remote session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapStorage("failed to get session id", err)
	}
	return id, nil
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
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
