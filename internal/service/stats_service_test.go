package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStatsTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:stats-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.WritingEntry{}, &db.Streak{}, &db.Setting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedEntryAt(t *testing.T, gdb *gorm.DB, userID uint, words int, at time.Time) {
	t.Helper()

	entry := db.WritingEntry{UserID: userID, Content: "x", WordCount: words, ExerciseType: db.ExerciseFreeWriting}
	entry.CreatedAt = at
	if err := gdb.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
}

func TestSummaryWindows(t *testing.T) {
	gdb, cleanup := setupStatsTestDB(t)
	defer cleanup()

	// 2024-05-15 是周三，本周从 5 月 13 日（周一）起算
	now := time.Date(2024, 5, 15, 18, 0, 0, 0, time.Local)

	seedEntryAt(t, gdb, 1, 300, time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local))
	seedEntryAt(t, gdb, 1, 200, time.Date(2024, 5, 14, 20, 0, 0, 0, time.Local))
	seedEntryAt(t, gdb, 1, 100, time.Date(2024, 5, 2, 10, 0, 0, 0, time.Local))
	seedEntryAt(t, gdb, 1, 50, time.Date(2024, 4, 1, 10, 0, 0, 0, time.Local))

	// 其他用户的条目不计入
	seedEntryAt(t, gdb, 2, 9999, time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local))

	summary, err := NewStatsService(gdb).Summary(1, now)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if summary.Today != 300 {
		t.Fatalf("expected today=300, got %d", summary.Today)
	}
	if summary.Week != 500 {
		t.Fatalf("expected week=500, got %d", summary.Week)
	}
	if summary.Month != 600 {
		t.Fatalf("expected month=600, got %d", summary.Month)
	}
	if summary.Total != 650 {
		t.Fatalf("expected total=650, got %d", summary.Total)
	}
}

func TestSummaryWithoutEntries(t *testing.T) {
	gdb, cleanup := setupStatsTestDB(t)
	defer cleanup()

	summary, err := NewStatsService(gdb).Summary(1, time.Now())
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if summary.Today != 0 || summary.Week != 0 || summary.Month != 0 || summary.Total != 0 {
		t.Fatalf("expected zero sums, got %+v", summary)
	}
	if summary.DailyGoal != db.DefaultDailyWordGoal {
		t.Fatalf("expected lazy default goal, got %d", summary.DailyGoal)
	}
	if summary.CurrentStreak != 0 || summary.LongestStreak != 0 {
		t.Fatalf("expected zero streaks, got %d/%d", summary.CurrentStreak, summary.LongestStreak)
	}
}

func TestStartOfWeekIsMonday(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// 周日归属到上周一
		{time.Date(2024, 5, 19, 23, 0, 0, 0, time.Local), time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local)},
		// 周一归属到当天
		{time.Date(2024, 5, 13, 0, 30, 0, 0, time.Local), time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local)},
		{time.Date(2024, 5, 15, 12, 0, 0, 0, time.Local), time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local)},
	}

	for i, tc := range cases {
		if got := startOfWeek(tc.now); !got.Equal(tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}
