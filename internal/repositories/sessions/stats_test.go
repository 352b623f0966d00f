package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) time.Time {
	now := time.Now()
	d := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.Local)
	return d.AddDate(0, 0, offset)
}

func addClosed(t *testing.T, r *SQLiteRepository, topic string, folderID *int64, start time.Time, dur time.Duration) {
	t.Helper()
	ctx := context.Background()
	id, err := r.Create(ctx, testUser, topic, "", folderID, start)
	require.NoError(t, err)
	require.NoError(t, r.End(ctx, id, start.Add(dur)))
}

func TestDailyTotals_GroupsByLocalDate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	addClosed(t, r, "A", nil, day(0), 90*time.Second)
	addClosed(t, r, "B", nil, day(0).Add(time.Hour), 30*time.Second)
	addClosed(t, r, "A", nil, day(-1), 60*time.Second)

	// open session does not count
	_, err := r.Create(ctx, testUser, "C", "", nil, day(0))
	require.NoError(t, err)

	totals, err := r.DailyTotals(ctx, testUser, 7)
	require.NoError(t, err)

	assert.EqualValues(t, 120, totals[day(0).Format(dateLayout)])
	assert.EqualValues(t, 60, totals[day(-1).Format(dateLayout)])
}

func TestDailyTotals_LocalMidnightBoundary(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	// 23:40 local on yesterday's calendar date; a naive UTC date() would file
	// it under a different day in most timezones.
	now := time.Now()
	lateEvening := time.Date(now.Year(), now.Month(), now.Day(), 23, 40, 0, 0, time.Local).AddDate(0, 0, -1)
	addClosed(t, r, "Night", nil, lateEvening, 5*time.Minute)

	totals, err := r.DailyTotals(context.Background(), testUser, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 300, totals[lateEvening.Format(dateLayout)])
}

func TestCurrentStreak_TodayZeroTolerated(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	// {today: 0, yesterday: 5s, day-2: 3s} -> streak 2
	addClosed(t, r, "A", nil, day(-1), 5*time.Second)
	addClosed(t, r, "A", nil, day(-2), 3*time.Second)

	streak, err := r.CurrentStreak(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestCurrentStreak_Zero(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	streak, err := r.CurrentStreak(context.Background(), testUser)
	require.NoError(t, err)
	assert.Zero(t, streak)
}

func TestStreakFromTotals(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	d := func(offset int) string { return today.AddDate(0, 0, offset).Format(dateLayout) }

	tests := []struct {
		name   string
		totals map[string]int64
		want   int
	}{
		{"empty", map[string]int64{}, 0},
		{"today zero does not break", map[string]int64{d(-1): 5, d(-2): 3}, 2},
		{"today and yesterday zero", map[string]int64{d(-2): 3}, 0},
		{"today counted", map[string]int64{d(0): 10, d(-1): 5}, 2},
		{"gap stops the walk", map[string]int64{d(0): 10, d(-2): 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StreakFromTotals(tt.totals, today))
		})
	}
}

func TestTopicAndFolderTotals(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO folders (user_id, name, updated_at) VALUES (?, 'Study', '2026-01-01T00:00:00Z')`, testUser)
	require.NoError(t, err)
	folderID := int64(1)

	base := day(-1)
	addClosed(t, r, "Algorithms", &folderID, base, 10*time.Minute)
	addClosed(t, r, "Algorithms", &folderID, base.Add(time.Hour), 5*time.Minute)
	addClosed(t, r, "Piano", nil, base, 7*time.Minute)

	from := base.Add(-24 * time.Hour)
	to := base.Add(24 * time.Hour)

	topics, err := r.TopicTotals(ctx, testUser, from, to)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, TopicTotal{Topic: "Algorithms", Seconds: 900}, topics[0])
	assert.Equal(t, TopicTotal{Topic: "Piano", Seconds: 420}, topics[1])

	folders, err := r.FolderTotals(ctx, testUser, from, to)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, FolderTotal{Name: "Study", Seconds: 900}, folders[0])
	assert.Equal(t, FolderTotal{Name: "", Seconds: 420}, folders[1])
}
