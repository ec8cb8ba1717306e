package handler

import (
	"github.com/inkstreak/internal/config"
	"github.com/inkstreak/internal/service"
	"gorm.io/gorm"
)

// API 聚合各 HTTP 处理器共享的依赖
type API struct {
	db            *gorm.DB
	entries       *service.EntryService
	stats         *service.StatsService
	badges        *service.BadgeService
	settings      *service.SettingService
	leaderboard   *service.LeaderboardService
	subscriptions *service.SubscriptionService
	billing       *service.BillingClient
	siteBaseURL   string
	priceID       string
}

// NewAPI 基于同一个数据库句柄构造全部服务
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		db:            gdb,
		entries:       service.NewEntryService(gdb),
		stats:         service.NewStatsService(gdb),
		badges:        service.NewBadgeService(gdb),
		settings:      service.NewSettingService(gdb),
		leaderboard:   service.NewLeaderboardService(gdb),
		subscriptions: service.NewSubscriptionService(gdb, cfg.BillingWebhookSecret),
		billing:       service.NewBillingClient(cfg.BillingAPIKey),
		siteBaseURL:   cfg.SiteBaseURL,
		priceID:       cfg.BillingPriceID,
	}
}
