package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
)

// dateLayout is the key format of the daily-totals map.
const dateLayout = "2006-01-02"

// DailyTotals buckets closed sessions by the local calendar date of their
// start time. The 'localtime' modifier applies the device timezone at query
// time, so a session started at 23:40 local lands on that local date even
// though its UTC date is the next day.
func (r *SQLiteRepository) DailyTotals(ctx context.Context, userID string, days int) (map[string]int64, error) {
	if days < 1 {
		days = 1
	}
	since := fmt.Sprintf("-%d days", days-1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT date(start_time, 'localtime') AS day, SUM(duration)
		FROM sessions
		WHERE user_id = ? AND deleted = 0 AND end_time IS NOT NULL AND duration > 0
		  AND date(start_time, 'localtime') >= date('now', 'localtime', ?)
		GROUP BY day
	`, userID, since)
	if err != nil {
		return nil, common.WrapStorage("failed to select daily totals", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var day string
		var total int64
		if err := rows.Scan(&day, &total); err != nil {
			return nil, err
		}
		totals[day] = total
	}
	return totals, rows.Err()
}

func (r *SQLiteRepository) CurrentStreak(ctx context.Context, userID string) (int, error) {
	// A year of history bounds the walk; nobody has a longer streak without
	// also having a year of daily totals.
	totals, err := r.DailyTotals(ctx, userID, 366)
	if err != nil {
		return 0, err
	}
	return StreakFromTotals(totals, time.Now()), nil
}

// StreakFromTotals walks consecutive calendar days backward from today,
// counting days with a positive total. A zero total today does not break the
// streak (the user may simply not have recorded time yet); any later zero
// day does.
func StreakFromTotals(totals map[string]int64, today time.Time) int {
	streak := 0
	for i := 0; ; i++ {
		day := today.AddDate(0, 0, -i).Format(dateLayout)
		total := totals[day]
		if total > 0 {
			streak++
			continue
		}
		if i == 0 {
			continue // today may still be empty
		}
		break
	}
	return streak
}

func (r *SQLiteRepository) TopicTotals(ctx context.Context, userID string, from, to time.Time) ([]TopicTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT topic, SUM(duration) AS total
		FROM sessions
		WHERE user_id = ? AND deleted = 0 AND end_time IS NOT NULL AND duration > 0
		  AND start_time >= ? AND start_time < ?
		GROUP BY topic
		ORDER BY total DESC, topic
	`, userID, fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, common.WrapStorage("failed to select topic totals", err)
	}
	defer rows.Close()

	var result []TopicTotal
	for rows.Next() {
		var tt TopicTotal
		if err := rows.Scan(&tt.Topic, &tt.Seconds); err != nil {
			return nil, err
		}
		result = append(result, tt)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) FolderTotals(ctx context.Context, userID string, from, to time.Time) ([]FolderTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(f.name, ''), SUM(s.duration) AS total
		FROM sessions s
		LEFT JOIN folders f ON f.id = s.folder_id
		WHERE s.user_id = ? AND s.deleted = 0 AND s.end_time IS NOT NULL AND s.duration > 0
		  AND s.start_time >= ? AND s.start_time < ?
		GROUP BY s.folder_id
		ORDER BY total DESC
	`, userID, fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, common.WrapStorage("failed to select folder totals", err)
	}
	defer rows.Close()

	var result []FolderTotal
	for rows.Next() {
		var ft FolderTotal
		if err := rows.Scan(&ft.Name, &ft.Seconds); err != nil {
			return nil, err
		}
		result = append(result, ft)
	}
	return result, rows.Err()
}
