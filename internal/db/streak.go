package db

import (
	"time"

	"gorm.io/gorm"
)

// Streak 记录用户的连续写作状态，每个用户一行
// LastWritingDay 仅保留日期部分；不变量：LongestStreak >= CurrentStreak
type Streak struct {
	gorm.Model
	UserID         uint `gorm:"uniqueIndex;not null"`
	CurrentStreak  int  `gorm:"not null;default:0"`
	LongestStreak  int  `gorm:"not null;default:0"`
	LastWritingDay *time.Time
}
