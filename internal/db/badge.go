package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeCondition 枚举徽章的达成条件类型
type BadgeCondition string

const (
	ConditionStreak       BadgeCondition = "streak"
	ConditionTotalWords   BadgeCondition = "total_words"
	ConditionSessionWords BadgeCondition = "session_words"
	ConditionWeeklyGoal   BadgeCondition = "weekly_goal"
)

// Badge 定义了徽章目录模型，运行期只读
// ConditionThreshold 为空的徽章不会被自动授予（预留人工颁发）
type Badge struct {
	gorm.Model
	Code               string `gorm:"uniqueIndex;not null"`
	Name               string `gorm:"not null"`
	Description        string
	Category           string
	ConditionKind      BadgeCondition
	ConditionThreshold *int
}

// BadgeAward 记录用户获得的徽章
// UserID + BadgeID 唯一索引保证同一徽章对同一用户至多授予一次
type BadgeAward struct {
	gorm.Model
	UserID    uint  `gorm:"index;index:idx_badge_award_unique,unique;not null"`
	BadgeID   uint  `gorm:"index:idx_badge_award_unique,unique;not null"`
	Badge     Badge `gorm:"constraint:OnDelete:CASCADE"`
	AwardedAt time.Time
}

// TableName 重写确保唯一索引作用到 user_id + badge_id
func (BadgeAward) TableName() string {
	return "badge_awards"
}

func intPtr(v int) *int {
	return &v
}

// defaultBadges 内置徽章目录，按 Code 幂等写入
var defaultBadges = []Badge{
	{Code: "streak_3", Name: "三日之约", Description: "连续写作 3 天", Category: "streak", ConditionKind: ConditionStreak, ConditionThreshold: intPtr(3)},
	{Code: "streak_7", Name: "七日不辍", Description: "连续写作 7 天", Category: "streak", ConditionKind: ConditionStreak, ConditionThreshold: intPtr(7)},
	{Code: "streak_30", Name: "月度常客", Description: "连续写作 30 天", Category: "streak", ConditionKind: ConditionStreak, ConditionThreshold: intPtr(30)},
	{Code: "streak_100", Name: "百日坚持", Description: "连续写作 100 天", Category: "streak", ConditionKind: ConditionStreak, ConditionThreshold: intPtr(100)},
	{Code: "total_1k", Name: "千字起步", Description: "累计写作 1000 字", Category: "milestone", ConditionKind: ConditionTotalWords, ConditionThreshold: intPtr(1000)},
	{Code: "total_10k", Name: "万字积累", Description: "累计写作 10000 字", Category: "milestone", ConditionKind: ConditionTotalWords, ConditionThreshold: intPtr(10000)},
	{Code: "total_100k", Name: "十万字著", Description: "累计写作 100000 字", Category: "milestone", ConditionKind: ConditionTotalWords, ConditionThreshold: intPtr(100000)},
	{Code: "session_200", Name: "一气呵成", Description: "单次写作 200 字", Category: "session", ConditionKind: ConditionSessionWords, ConditionThreshold: intPtr(200)},
	{Code: "session_1k", Name: "笔走龙蛇", Description: "单次写作 1000 字", Category: "session", ConditionKind: ConditionSessionWords, ConditionThreshold: intPtr(1000)},
	{Code: "weekly_3k", Name: "周度达人", Description: "单周写作 3000 字", Category: "weekly", ConditionKind: ConditionWeeklyGoal, ConditionThreshold: intPtr(3000)},
}

// seedBadges 将内置目录写入数据库，已存在的 Code 保持原样
func seedBadges(gdb *gorm.DB) error {
	for _, badge := range defaultBadges {
		record := badge
		if err := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}
