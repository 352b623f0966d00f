package topics

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

const topicColumns = `id, remote_id, user_id, topic, folder_id, allow_background, color, updated_at`

func fmtTime(t time.Time) string {
	return t.UTC().Format(dbx.TimeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*models.TopicConfig, error) {
	var tc models.TopicConfig
	var remoteID, folderID sql.NullInt64
	var allowBackground int
	var updatedAt string

	if err := row.Scan(&tc.ID, &remoteID, &tc.UserID, &tc.Topic, &folderID, &allowBackground, &tc.Color, &updatedAt); err != nil {
		return nil, err
	}
	if remoteID.Valid {
		tc.RemoteID = remoteID.Int64
	}
	if folderID.Valid {
		tc.FolderID = &folderID.Int64
	}
	tc.AllowBackground = allowBackground != 0
	tc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &tc, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, tc *models.TopicConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO topic_configs (user_id, topic, folder_id, allow_background, color, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, topic) DO UPDATE SET
			folder_id = excluded.folder_id,
			allow_background = excluded.allow_background,
			color = excluded.color,
			updated_at = excluded.updated_at
	`, tc.UserID, tc.Topic, tc.FolderID, boolToInt(tc.AllowBackground), tc.Color, fmtTime(tc.UpdatedAt))
	if err != nil {
		return common.WrapStorage("failed to upsert topic config", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.TopicConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topic_configs WHERE id = ?`, id)
	tc, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to get topic config %d", id), err)
	}
	return tc, nil
}

func (r *SQLiteRepository) GetByTopic(ctx context.Context, userID, topic string) (*models.TopicConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+topicColumns+` FROM topic_configs WHERE user_id = ? AND topic = ?
	`, userID, topic)
	tc, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to get topic config %q", topic), err)
	}
	return tc, nil
}

func (r *SQLiteRepository) TopicsByFolder(ctx context.Context, userID string, folderID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT topic FROM topic_configs WHERE user_id = ? AND folder_id = ? ORDER BY topic
	`, userID, folderID)
	if err != nil {
		return nil, common.WrapStorage("failed to select topics by folder", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (r *SQLiteRepository) UnfolderedTopics(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT s.topic FROM sessions s
		LEFT JOIN topic_configs tc ON tc.user_id = s.user_id AND tc.topic = s.topic
		WHERE s.user_id = ? AND s.deleted = 0 AND (tc.id IS NULL OR tc.folder_id IS NULL)
		ORDER BY s.topic
	`, userID)
	if err != nil {
		return nil, common.WrapStorage("failed to select unfoldered topics", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (r *SQLiteRepository) ClearFolder(ctx context.Context, userID string, folderID int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE topic_configs SET folder_id = NULL, updated_at = ? WHERE user_id = ? AND folder_id = ?
	`, fmtTime(now), userID, folderID)
	if err != nil {
		return common.WrapStorage("failed to clear folder refs", err)
	}
	return nil
}

func (r *SQLiteRepository) SetFolder(ctx context.Context, id int64, folderID *int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE topic_configs SET folder_id = ?, updated_at = ? WHERE id = ?
	`, folderID, fmtTime(now), id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to set folder on config %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByTopic(ctx context.Context, userID, topic string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM topic_configs WHERE user_id = ? AND topic = ?
	`, userID, topic)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to delete topic config %q", topic), err)
	}
	return nil
}

func (r *SQLiteRepository) RenameTopic(ctx context.Context, userID, oldTopic, newTopic string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE topic_configs SET topic = ?, updated_at = ? WHERE user_id = ? AND topic = ?
	`, newTopic, fmtTime(now), userID, oldTopic)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to rename topic %q", oldTopic), err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topic_configs WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, common.WrapStorage("failed to count topic configs", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string, since time.Time) ([]models.TopicConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+topicColumns+` FROM topic_configs
		WHERE user_id = ? AND (remote_id IS NULL OR updated_at > ?)
		ORDER BY id
	`, userID, fmtTime(since))
	if err != nil {
		return nil, common.WrapStorage("failed to select dirty topic configs", err)
	}
	defer rows.Close()

	var result []models.TopicConfig
	for rows.Next() {
		tc, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tc)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) LinkRemote(ctx context.Context, id, remoteID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE topic_configs SET remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return common.WrapStorage(fmt.Sprintf("failed to link topic config %d", id), err)
	}
	return nil
}

func (r *SQLiteRepository) FindByRemoteID(ctx context.Context, userID string, remoteID int64) (*models.TopicConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+topicColumns+` FROM topic_configs WHERE user_id = ? AND remote_id = ? ORDER BY id LIMIT 1
	`, userID, remoteID)
	tc, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find topic config by remote id %d", remoteID), err)
	}
	return tc, nil
}

func (r *SQLiteRepository) FindUnlinkedByTopic(ctx context.Context, userID, topic string) (*models.TopicConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+topicColumns+` FROM topic_configs WHERE user_id = ? AND topic = ? AND remote_id IS NULL
	`, userID, topic)
	tc, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapStorage(fmt.Sprintf("failed to find unlinked topic config %q", topic), err)
	}
	return tc, nil
}

func (r *SQLiteRepository) InsertFromRemote(ctx context.Context, tc *models.TopicConfig) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO topic_configs (remote_id, user_id, topic, folder_id, allow_background, color, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tc.RemoteID, tc.UserID, tc.Topic, tc.FolderID, boolToInt(tc.AllowBackground), tc.Color, fmtTime(tc.UpdatedAt))
	if err != nil {
		return 0, common.WrapStorage("failed to insert remote topic config", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapStorage("failed to get topic config id", err)
	}
	return id, nil
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
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
