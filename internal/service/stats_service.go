package service

import (
	"fmt"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
)

// StatsService 负责按时间窗口聚合字数统计
// 纯读操作，无副作用；没有任何条目时各项返回 0 而非错误
type StatsService struct {
	db *gorm.DB
}

// StatsSummary 汇总单个用户的统计概览
type StatsSummary struct {
	Today         int
	Week          int
	Month         int
	Total         int
	DailyGoal     int
	CurrentStreak int
	LongestStreak int
}

// NewStatsService 构造 StatsService
func NewStatsService(gdb *gorm.DB) *StatsService {
	return &StatsService{db: gdb}
}

// Summary 返回今日/本周/本月/累计字数，以及每日目标与连续天数。
// 周从最近的周一 00:00 起算，月从本月 1 日 00:00 起算。
func (s *StatsService) Summary(userID uint, now time.Time) (*StatsSummary, error) {
	dayStart := normalizeToDate(now)
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	summary := &StatsSummary{}

	var err error
	if summary.Today, err = sumWordsSince(s.db, userID, &dayStart); err != nil {
		return nil, err
	}
	if summary.Week, err = sumWordsSince(s.db, userID, &weekStart); err != nil {
		return nil, err
	}
	if summary.Month, err = sumWordsSince(s.db, userID, &monthStart); err != nil {
		return nil, err
	}
	if summary.Total, err = sumWordsSince(s.db, userID, nil); err != nil {
		return nil, err
	}

	setting, err := NewSettingService(s.db).Get(userID)
	if err != nil {
		return nil, err
	}
	summary.DailyGoal = setting.DailyWordGoal

	streak, err := NewStreakService(s.db).Get(userID)
	if err != nil {
		return nil, err
	}
	summary.CurrentStreak = streak.CurrentStreak
	summary.LongestStreak = streak.LongestStreak

	return summary, nil
}

// sumWordsSince 聚合 start 之后（含）的字数，start 为 nil 时不限时间
func sumWordsSince(gdb *gorm.DB, userID uint, start *time.Time) (int, error) {
	var total int64

	query := gdb.Model(&db.WritingEntry{}).Where("user_id = ?", userID)
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}

	if err := query.Select("COALESCE(SUM(word_count), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum word counts: %w", err)
	}

	return int(total), nil
}

// startOfWeek 返回最近的周一 00:00（ISO 周，周一为一周之始）
func startOfWeek(now time.Time) time.Time {
	day := normalizeToDate(now)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -weekday+1)
}
