package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkstreak/internal/db"
	"github.com/inkstreak/internal/service"
)

const signatureHeader = "Billing-Signature"

// CreateCheckout 创建托管结账会话并返回跳转地址
// 本地不写任何订阅状态，落库以 webhook 确认为准
func (a *API) CreateCheckout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var user db.User
	if err := a.db.First(&user, userID).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户不存在")
		return
	}

	url, err := a.billing.CreateCheckoutSession(c.Request.Context(), service.CheckoutParams{
		CustomerEmail:     user.Email,
		PriceID:           a.priceID,
		ClientReferenceID: strconv.FormatUint(uint64(user.ID), 10),
		SuccessURL:        a.siteBaseURL + "/billing/success",
		CancelURL:         a.siteBaseURL + "/billing/cancel",
	})
	if err != nil {
		log.Printf("create checkout session: %v", err)
		respondError(c, http.StatusInternalServerError, "创建结账会话失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal 为已订阅用户创建计费门户会话
func (a *API) CreatePortal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	sub, err := a.subscriptions.Get(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取订阅信息失败")
		return
	}
	if sub == nil {
		respondError(c, http.StatusNotFound, "尚未开通订阅")
		return
	}

	url, err := a.billing.CreatePortalSession(c.Request.Context(), sub.CustomerID, a.siteBaseURL+"/settings")
	if err != nil {
		log.Printf("create portal session: %v", err)
		respondError(c, http.StatusInternalServerError, "创建门户会话失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// HandleWebhook 接收计费系统的签名事件。
// 签名校验失败直接拒绝且不处理；重试由计费提供方负责。
func (a *API) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取请求失败")
		return
	}

	err = a.subscriptions.ProcessWebhook(payload, c.GetHeader(signatureHeader), time.Now())
	switch {
	case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrWebhookSecretMissing):
		respondError(c, http.StatusBadRequest, "签名校验失败")
	case err != nil:
		log.Printf("process webhook: %v", err)
		respondError(c, http.StatusInternalServerError, "事件处理失败")
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
