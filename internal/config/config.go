package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr           string
	Port                 string
	DatabasePath         string
	SessionSecret        string
	GinMode              string
	SiteBaseURL          string
	BillingAPIKey        string
	BillingWebhookSecret string
	BillingPriceID       string
	BootstrapEmail       string
	BootstrapPassword    string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "inkstreak.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "inkstreak-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "http://localhost:8080"
	}

	billingAPIKey := strings.TrimSpace(os.Getenv("BILLING_API_KEY"))
	billingWebhookSecret := strings.TrimSpace(os.Getenv("BILLING_WEBHOOK_SECRET"))
	billingPriceID := strings.TrimSpace(os.Getenv("BILLING_PRICE_ID"))

	bootstrapEmail := strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_EMAIL"))
	bootstrapPassword := strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_PASSWORD"))

	return AppConfig{
		ListenAddr:           listenAddr,
		Port:                 port,
		DatabasePath:         databasePath,
		SessionSecret:        sessionSecret,
		GinMode:              ginMode,
		SiteBaseURL:          siteBaseURL,
		BillingAPIKey:        billingAPIKey,
		BillingWebhookSecret: billingWebhookSecret,
		BillingPriceID:       billingPriceID,
		BootstrapEmail:       bootstrapEmail,
		BootstrapPassword:    bootstrapPassword,
	}
}
