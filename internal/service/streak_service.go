package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakService 负责连续写作天数的状态迁移
// 状态三元组为 (current, longest, last_writing_day)，每个自然日最多迁移一次
type StreakService struct {
	db *gorm.DB
}

// NewStreakService 构造 StreakService
func NewStreakService(gdb *gorm.DB) *StreakService {
	return &StreakService{db: gdb}
}

// Get 返回用户的连续写作记录，不存在时返回全零记录而不落库
func (s *StreakService) Get(userID uint) (*db.Streak, error) {
	var streak db.Streak
	if err := s.db.Where("user_id = ?", userID).First(&streak).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &db.Streak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &streak, nil
}

// RecordWritingDay 将"今天写过了"事件应用到用户的连续记录上。
// 同一天的重复调用是无操作；昨天写过则 current+1；更早（或异常的未来日期）则重置为 1。
// 必须在与条目写入相同的事务中调用，tx 为该事务句柄。
func (s *StreakService) RecordWritingDay(tx *gorm.DB, userID uint, now time.Time) (*db.Streak, error) {
	today := normalizeToDate(now)

	var streak db.Streak
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&streak)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		// 首次写作，惰性创建
		streak = db.Streak{UserID: userID}
	case result.Error != nil:
		return nil, fmt.Errorf("load streak: %w", result.Error)
	}

	switch {
	case streak.LastWritingDay == nil:
		streak.CurrentStreak = 1
		if streak.LongestStreak < 1 {
			streak.LongestStreak = 1
		}
	case daysBetween(*streak.LastWritingDay, today) == 0:
		// 今天已计入，幂等返回
		return &streak, nil
	case daysBetween(*streak.LastWritingDay, today) == 1:
		streak.CurrentStreak++
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
	default:
		// 间隔两天以上，或时钟偏移导致的未来日期，一律重置
		streak.CurrentStreak = 1
	}

	streak.LastWritingDay = &today
	if err := tx.Save(&streak).Error; err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}

	return &streak, nil
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 以自然日为单位计算 from 到 to 的差值，to 早于 from 时为负。
// 四舍五入吸收夏令时造成的 23/25 小时日。
func daysBetween(from, to time.Time) int {
	hours := normalizeToDate(to).Sub(normalizeToDate(from)).Hours()
	return int(math.Round(hours / 24))
}
