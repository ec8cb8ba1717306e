package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkstreak/internal/config"
	"github.com/inkstreak/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("inkstreak_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/register", api.Register)
		apiGroup.POST("/login", api.Login)

		// webhook 由签名而非会话认证
		apiGroup.POST("/billing/webhook", api.HandleWebhook)

		// 需要认证的路由
		auth := apiGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.POST("/logout", api.Logout)

			auth.GET("/entries", api.ListEntries)
			auth.POST("/entries", api.SubmitEntry)
			auth.GET("/entries/:id", api.GetEntry)
			auth.DELETE("/entries/:id", api.DeleteEntry)

			auth.GET("/stats", api.GetStats)
			auth.GET("/badges", api.GetBadges)
			auth.GET("/leaderboard", api.GetLeaderboard)

			auth.GET("/settings", api.GetSettings)
			auth.PUT("/settings", api.UpdateSettings)

			auth.POST("/billing/checkout", api.CreateCheckout)
			auth.POST("/billing/portal", api.CreatePortal)
		}
	}

	return r
}
