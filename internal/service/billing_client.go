package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrBillingKeyMissing 在未配置计费 API Key 时返回
var ErrBillingKeyMissing = errors.New("billing api key not configured")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BillingClient 封装对托管计费服务的出站调用
// 仅创建托管页面会话并透传返回的 URL，本地不落任何状态；
// 订阅状态以 webhook 确认为准
type BillingClient struct {
	http    httpDoer
	baseURL string
	apiKey  string
}

// CheckoutParams 定义创建托管结账会话所需的参数
type CheckoutParams struct {
	CustomerEmail     string
	PriceID           string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

type billingSessionResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewBillingClient 构造 BillingClient
func NewBillingClient(apiKey string) *BillingClient {
	return &BillingClient{
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://api.stripe.com/v1",
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// SetHTTPClient 覆盖底层 HTTP 客户端，主要用于测试
func (c *BillingClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	c.http = client
}

// SetBaseURL 覆盖计费接口地址，主要用于测试
func (c *BillingClient) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// CreateCheckoutSession 创建托管结账会话并返回跳转 URL
func (c *BillingClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer_email", strings.TrimSpace(params.CustomerEmail))
	form.Set("client_reference_id", strings.TrimSpace(params.ClientReferenceID))
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][price]", strings.TrimSpace(params.PriceID))
	form.Set("line_items[0][quantity]", "1")

	session, err := c.postForm(ctx, "/checkout/sessions", form)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// CreatePortalSession 为既有客户创建计费门户会话并返回跳转 URL
func (c *BillingClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", strings.TrimSpace(customerID))
	form.Set("return_url", returnURL)

	session, err := c.postForm(ctx, "/billing_portal/sessions", form)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (c *BillingClient) postForm(ctx context.Context, path string, form url.Values) (*billingSessionResponse, error) {
	if c.apiKey == "" {
		return nil, ErrBillingKeyMissing
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("构造计费请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	// 每次调用独立的幂等键，网络重试不会重复建会话
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求计费接口失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取计费响应失败: %w", err)
	}

	var session billingSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("解析计费响应失败: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(session.Error.Message)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return nil, fmt.Errorf("计费接口返回错误：%s", errMsg)
	}

	if strings.TrimSpace(session.URL) == "" {
		return nil, errors.New("计费接口未返回会话地址")
	}

	return &session, nil
}
