package db

import (
	"time"

	"gorm.io/gorm"
)

// Subscription 保存计费系统侧的订阅引用，仅由 webhook 调和逻辑写入
// CustomerID/SubscriptionID/PriceID 为计费提供方的外部引用
type Subscription struct {
	gorm.Model
	UserID           uint   `gorm:"uniqueIndex;not null"`
	CustomerID       string `gorm:"index;not null"`
	SubscriptionID   string
	PriceID          string
	CurrentPeriodEnd time.Time
	Canceled         bool `gorm:"not null;default:false"`
}
