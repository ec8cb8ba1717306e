package service

import (
	"fmt"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeService 负责徽章达成判定与授予
// 授予依赖 (user_id, badge_id) 唯一索引，重复授予是无操作而非错误
type BadgeService struct {
	db *gorm.DB
}

// EarnedBadge 将目录信息与授予时间合并，用于列表展示
type EarnedBadge struct {
	Badge     db.Badge
	AwardedAt time.Time
}

// NewBadgeService 构造 BadgeService
func NewBadgeService(gdb *gorm.DB) *BadgeService {
	return &BadgeService{db: gdb}
}

// EvaluateSubmission 在一次提交后判定新达成的徽章并写入授予记录。
// sessionWords 为本次提交的字数，currentStreak 为更新后的连续天数；
// 累计与本周字数在 tx 内聚合，因此包含刚插入的条目。
// 返回本次真正新授予的徽章集合。
func (s *BadgeService) EvaluateSubmission(tx *gorm.DB, userID uint, sessionWords, currentStreak int, now time.Time) ([]db.Badge, error) {
	candidates, err := s.unearned(tx, userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	totalWords := -1
	weekWords := -1

	var awarded []db.Badge
	for _, badge := range candidates {
		if badge.ConditionThreshold == nil {
			continue
		}
		threshold := *badge.ConditionThreshold

		var value int
		switch badge.ConditionKind {
		case db.ConditionStreak:
			value = currentStreak
		case db.ConditionSessionWords:
			value = sessionWords
		case db.ConditionTotalWords:
			if totalWords < 0 {
				if totalWords, err = sumWordsSince(tx, userID, nil); err != nil {
					return nil, err
				}
			}
			value = totalWords
		case db.ConditionWeeklyGoal:
			if weekWords < 0 {
				weekStart := startOfWeek(now)
				if weekWords, err = sumWordsSince(tx, userID, &weekStart); err != nil {
					return nil, err
				}
			}
			value = weekWords
		default:
			continue
		}

		if value < threshold {
			continue
		}

		award := db.BadgeAward{UserID: userID, BadgeID: badge.ID, AwardedAt: now}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).Create(&award)
		if insert.Error != nil {
			return nil, fmt.Errorf("award badge %s: %w", badge.Code, insert.Error)
		}

		// RowsAffected == 0 说明已持有（并发提交下的兜底），不计入本次新授予
		if insert.RowsAffected == 1 {
			awarded = append(awarded, badge)
		}
	}

	return awarded, nil
}

// Catalog 返回完整徽章目录
func (s *BadgeService) Catalog() ([]db.Badge, error) {
	var badges []db.Badge
	if err := s.db.Order("id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// Earned 返回用户已获得的徽章及授予时间
func (s *BadgeService) Earned(userID uint) ([]EarnedBadge, error) {
	var awards []db.BadgeAward
	if err := s.db.Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&awards).Error; err != nil {
		return nil, fmt.Errorf("list badge awards: %w", err)
	}

	earned := make([]EarnedBadge, 0, len(awards))
	for _, award := range awards {
		earned = append(earned, EarnedBadge{Badge: award.Badge, AwardedAt: award.AwardedAt})
	}
	return earned, nil
}

// unearned 返回目录中用户尚未持有的徽章
func (s *BadgeService) unearned(tx *gorm.DB, userID uint) ([]db.Badge, error) {
	var badges []db.Badge
	subquery := tx.Session(&gorm.Session{NewDB: true}).
		Model(&db.BadgeAward{}).
		Select("badge_id").
		Where("user_id = ?", userID)

	if err := tx.Where("id NOT IN (?)", subquery).Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list unearned badges: %w", err)
	}
	return badges, nil
}
