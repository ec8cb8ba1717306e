package service

import (
	"fmt"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
)

const defaultLeaderboardSize = 10

// LeaderboardService 负责按本周字数对用户排名
type LeaderboardService struct {
	db *gorm.DB
}

// LeaderboardRow 描述榜单中的一行
type LeaderboardRow struct {
	UserID      uint
	DisplayName string
	WordCount   int
	IsPro       bool
}

// NewLeaderboardService 构造 LeaderboardService
func NewLeaderboardService(gdb *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: gdb}
}

// WeeklyTop 返回本周（最近的周一起）字数最多的前 limit 名用户
func (s *LeaderboardService) WeeklyTop(limit int, now time.Time) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}

	weekStart := startOfWeek(now)

	var rows []LeaderboardRow
	if err := s.db.Model(&db.WritingEntry{}).
		Select("writing_entries.user_id AS user_id, COALESCE(users.username, users.email) AS display_name, SUM(writing_entries.word_count) AS word_count, users.is_pro AS is_pro").
		Joins("JOIN users ON users.id = writing_entries.user_id").
		Where("writing_entries.created_at >= ?", weekStart).
		Group("writing_entries.user_id").
		Order("word_count DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}

	return rows, nil
}
