package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// EventCheckoutCompleted 结账完成事件
	EventCheckoutCompleted = "checkout.session.completed"
	// EventSubscriptionUpdated 订阅变更事件
	EventSubscriptionUpdated = "customer.subscription.updated"
	// EventSubscriptionDeleted 订阅终止事件
	EventSubscriptionDeleted = "customer.subscription.deleted"

	defaultSignatureTolerance = 5 * time.Minute
)

var (
	// ErrInvalidSignature 在 webhook 签名校验失败时返回
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrWebhookSecretMissing 在未配置 webhook 密钥时返回
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
)

// SubscriptionService 消费计费系统的 webhook 事件，使本地订阅状态与外部保持一致。
// 所有写入均为 upsert 语义，重放同一事件收敛到相同状态。
// 事件乱序（旧的 updated 晚于新的到达）没有序列号可依据，目前为后写覆盖。
type SubscriptionService struct {
	db            *gorm.DB
	webhookSecret string
	tolerance     time.Duration
}

// webhookEvent 是事件信封，Data.Object 按事件类型二次解析
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	Price             string `json:"price"`
	ClientReferenceID string `json:"client_reference_id"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}

type subscriptionObject struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	Price             string `json:"price"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}

// NewSubscriptionService 构造 SubscriptionService
func NewSubscriptionService(gdb *gorm.DB, webhookSecret string) *SubscriptionService {
	return &SubscriptionService{
		db:            gdb,
		webhookSecret: strings.TrimSpace(webhookSecret),
		tolerance:     defaultSignatureTolerance,
	}
}

// WithTolerance 允许在测试中调整签名时间戳容忍窗口
func (s *SubscriptionService) WithTolerance(d time.Duration) *SubscriptionService {
	if d > 0 {
		s.tolerance = d
	}
	return s
}

// Get 返回用户的订阅记录，可能为 nil
func (s *SubscriptionService) Get(userID uint) (*db.Subscription, error) {
	var sub db.Subscription
	if err := s.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// ProcessWebhook 校验签名后分发事件；校验失败时不做任何状态变更。
func (s *SubscriptionService) ProcessWebhook(payload []byte, signatureHeader string, now time.Time) error {
	if err := s.VerifySignature(payload, signatureHeader, now); err != nil {
		return err
	}
	return s.HandleEvent(payload)
}

// VerifySignature 校验 "t=<unix>,v1=<hex>" 形式的签名头。
// 签名为 HMAC-SHA256(secret, "<t>.<payload>")，时间戳须落在容忍窗口内。
func (s *SubscriptionService) VerifySignature(payload []byte, signatureHeader string, now time.Time) error {
	if s.webhookSecret == "" {
		return ErrWebhookSecretMissing
	}

	var timestamp int64
	var candidates []string

	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = parsed
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age < -s.tolerance || age > s.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
}

// HandleEvent 解析事件信封并按类型调和本地状态；未知类型被忽略。
func (s *SubscriptionService) HandleEvent(payload []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("parse webhook event: %w", err)
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}
		return s.applyCheckoutCompleted(session)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub subscriptionObject
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return fmt.Errorf("parse subscription object: %w", err)
		}
		return s.applySubscriptionChange(sub)
	default:
		log.Printf("ignoring webhook event type %s", event.Type)
		return nil
	}
}

// applyCheckoutCompleted 以 client_reference_id 定位用户并落地订阅引用
func (s *SubscriptionService) applyCheckoutCompleted(session checkoutSessionObject) error {
	userID, err := strconv.ParseUint(strings.TrimSpace(session.ClientReferenceID), 10, 32)
	if err != nil {
		log.Printf("checkout completed with unusable client reference %q, skipping", session.ClientReferenceID)
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, uint(userID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("checkout completed for unknown user %d, skipping", userID)
				return nil
			}
			return fmt.Errorf("find user: %w", err)
		}

		sub := db.Subscription{
			UserID:           user.ID,
			CustomerID:       strings.TrimSpace(session.Customer),
			SubscriptionID:   strings.TrimSpace(session.Subscription),
			PriceID:          strings.TrimSpace(session.Price),
			CurrentPeriodEnd: time.Unix(session.CurrentPeriodEnd, 0),
			Canceled:         false,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id", "subscription_id", "price_id", "current_period_end", "canceled", "updated_at",
			}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}

		if err := tx.Model(&db.User{}).Where("id = ?", user.ID).Update("is_pro", true).Error; err != nil {
			return fmt.Errorf("update pro flag: %w", err)
		}
		return nil
	})
}

// applySubscriptionChange 以计费客户引用定位本地订阅并同步状态。
// 本地找不到对应客户时按非致命情况记录日志后跳过。
func (s *SubscriptionService) applySubscriptionChange(obj subscriptionObject) error {
	customerID := strings.TrimSpace(obj.Customer)
	if customerID == "" {
		log.Printf("subscription event without customer reference, skipping")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var sub db.Subscription
		if err := tx.Where("customer_id = ?", customerID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("subscription event for unknown customer %s, skipping", customerID)
				return nil
			}
			return fmt.Errorf("find subscription: %w", err)
		}

		if strings.TrimSpace(obj.ID) != "" {
			sub.SubscriptionID = strings.TrimSpace(obj.ID)
		}
		if strings.TrimSpace(obj.Price) != "" {
			sub.PriceID = strings.TrimSpace(obj.Price)
		}
		if obj.CurrentPeriodEnd > 0 {
			sub.CurrentPeriodEnd = time.Unix(obj.CurrentPeriodEnd, 0)
		}
		sub.Canceled = obj.CancelAtPeriodEnd || obj.Status == "canceled"

		if err := tx.Save(&sub).Error; err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

		isPro := obj.Status == "active"
		if err := tx.Model(&db.User{}).Where("id = ?", sub.UserID).Update("is_pro", isPro).Error; err != nil {
			return fmt.Errorf("update pro flag: %w", err)
		}
		return nil
	})
}
