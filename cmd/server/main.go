package main

import (
	"log"

	"github.com/inkstreak/internal/config"
	"github.com/inkstreak/internal/db"
	"github.com/inkstreak/internal/handler"
	"github.com/inkstreak/internal/router"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 可选的引导账号，便于首次部署后直接登录
	if err := db.EnsureUser(cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
		log.Fatalf("failed to ensure bootstrap user: %v", err)
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(db.DB, cfg)
	r := router.SetupRouter(api, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
