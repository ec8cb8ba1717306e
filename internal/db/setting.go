package db

import "gorm.io/gorm"

// DefaultDailyWordGoal 未配置时的默认每日字数目标
const DefaultDailyWordGoal = 200

// Setting 保存用户偏好，每个用户一行，首次访问时惰性创建
type Setting struct {
	gorm.Model
	UserID        uint `gorm:"uniqueIndex;not null"`
	DailyWordGoal int  `gorm:"not null;default:200"`
}
