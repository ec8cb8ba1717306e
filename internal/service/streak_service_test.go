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

func setupStreakTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:streak-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Streak{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestStreakFirstWrite(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewStreakService(gdb)
	today := time.Date(2024, 5, 15, 14, 30, 0, 0, time.Local)

	streak, err := svc.RecordWritingDay(gdb, 1, today)
	if err != nil {
		t.Fatalf("RecordWritingDay returned error: %v", err)
	}

	if streak.CurrentStreak != 1 || streak.LongestStreak != 1 {
		t.Fatalf("unexpected streaks: current=%d longest=%d", streak.CurrentStreak, streak.LongestStreak)
	}

	if streak.LastWritingDay == nil || !streak.LastWritingDay.Equal(time.Date(2024, 5, 15, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("expected last writing day to be normalized to today, got %v", streak.LastWritingDay)
	}
}

func TestStreakSameDayIdempotent(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewStreakService(gdb)
	morning := time.Date(2024, 5, 15, 8, 0, 0, 0, time.Local)
	evening := time.Date(2024, 5, 15, 22, 0, 0, 0, time.Local)

	first, err := svc.RecordWritingDay(gdb, 1, morning)
	if err != nil {
		t.Fatalf("first RecordWritingDay returned error: %v", err)
	}

	second, err := svc.RecordWritingDay(gdb, 1, evening)
	if err != nil {
		t.Fatalf("second RecordWritingDay returned error: %v", err)
	}

	if second.CurrentStreak != first.CurrentStreak || second.LongestStreak != first.LongestStreak {
		t.Fatalf("same-day submission changed streak: first=%d/%d second=%d/%d",
			first.CurrentStreak, first.LongestStreak, second.CurrentStreak, second.LongestStreak)
	}
}

func TestStreakContinuity(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	yesterday := time.Date(2024, 5, 14, 0, 0, 0, 0, time.Local)
	if err := gdb.Create(&db.Streak{UserID: 1, CurrentStreak: 4, LongestStreak: 6, LastWritingDay: &yesterday}).Error; err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}

	svc := NewStreakService(gdb)
	streak, err := svc.RecordWritingDay(gdb, 1, time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("RecordWritingDay returned error: %v", err)
	}

	if streak.CurrentStreak != 5 {
		t.Fatalf("expected current streak 5, got %d", streak.CurrentStreak)
	}

	// 未超过历史最高，longest 保持不变
	if streak.LongestStreak != 6 {
		t.Fatalf("expected longest streak 6, got %d", streak.LongestStreak)
	}
}

func TestStreakContinuityExtendsLongest(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	yesterday := time.Date(2024, 5, 14, 0, 0, 0, 0, time.Local)
	if err := gdb.Create(&db.Streak{UserID: 1, CurrentStreak: 6, LongestStreak: 6, LastWritingDay: &yesterday}).Error; err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}

	svc := NewStreakService(gdb)
	streak, err := svc.RecordWritingDay(gdb, 1, time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("RecordWritingDay returned error: %v", err)
	}

	if streak.CurrentStreak != 7 || streak.LongestStreak != 7 {
		t.Fatalf("expected 7/7, got %d/%d", streak.CurrentStreak, streak.LongestStreak)
	}
}

func TestStreakReset(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	threeDaysAgo := time.Date(2024, 5, 12, 0, 0, 0, 0, time.Local)
	if err := gdb.Create(&db.Streak{UserID: 1, CurrentStreak: 5, LongestStreak: 9, LastWritingDay: &threeDaysAgo}).Error; err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}

	svc := NewStreakService(gdb)
	streak, err := svc.RecordWritingDay(gdb, 1, time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("RecordWritingDay returned error: %v", err)
	}

	if streak.CurrentStreak != 1 {
		t.Fatalf("expected current streak reset to 1, got %d", streak.CurrentStreak)
	}

	if streak.LongestStreak != 9 {
		t.Fatalf("expected longest streak unchanged at 9, got %d", streak.LongestStreak)
	}
}

func TestStreakFutureLastDayResets(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	// 时钟偏移导致的未来日期按断档处理
	tomorrow := time.Date(2024, 5, 16, 0, 0, 0, 0, time.Local)
	if err := gdb.Create(&db.Streak{UserID: 1, CurrentStreak: 3, LongestStreak: 8, LastWritingDay: &tomorrow}).Error; err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}

	svc := NewStreakService(gdb)
	today := time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local)
	streak, err := svc.RecordWritingDay(gdb, 1, today)
	if err != nil {
		t.Fatalf("RecordWritingDay returned error: %v", err)
	}

	if streak.CurrentStreak != 1 || streak.LongestStreak != 8 {
		t.Fatalf("expected 1/8, got %d/%d", streak.CurrentStreak, streak.LongestStreak)
	}

	if streak.LastWritingDay == nil || !streak.LastWritingDay.Equal(normalizeToDate(today)) {
		t.Fatalf("expected last writing day rewritten to today, got %v", streak.LastWritingDay)
	}
}

func TestStreakLongestNeverDecreases(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewStreakService(gdb)

	// 连写 4 天，断 3 天，再连写 2 天
	days := []time.Time{
		time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 2, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 3, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 4, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 8, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 9, 10, 0, 0, 0, time.Local),
	}

	maxLongest := 0
	for _, day := range days {
		streak, err := svc.RecordWritingDay(gdb, 1, day)
		if err != nil {
			t.Fatalf("RecordWritingDay(%v) returned error: %v", day, err)
		}
		if streak.LongestStreak < maxLongest {
			t.Fatalf("longest streak decreased from %d to %d", maxLongest, streak.LongestStreak)
		}
		maxLongest = streak.LongestStreak
	}

	if maxLongest != 4 {
		t.Fatalf("expected longest streak 4, got %d", maxLongest)
	}
}

func TestStreakGetWithoutRecord(t *testing.T) {
	gdb, cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewStreakService(gdb)
	streak, err := svc.Get(42)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if streak.CurrentStreak != 0 || streak.LongestStreak != 0 {
		t.Fatalf("expected zero streaks, got %d/%d", streak.CurrentStreak, streak.LongestStreak)
	}

	var count int64
	gdb.Model(&db.Streak{}).Count(&count)
	if count != 0 {
		t.Fatalf("Get should not create rows, found %d", count)
	}
}
