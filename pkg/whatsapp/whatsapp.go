// Package whatsapp 封装 WhatsApp 消息网关调用
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"atende-agora/backend/config"
)

// ErrSendFailed 网关返回非成功状态
var ErrSendFailed = errors.New("WhatsApp 消息发送失败")

// Sender 发送单条文本消息
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// NewSender 按配置创建发送器；未启用网关时仅记录日志
func NewSender(cfg *config.WhatsAppConfig, logger *zap.Logger) Sender {
	if !cfg.Enabled {
		return NewLogSender(logger)
	}
	return NewClient(cfg, logger)
}

// ── HTTP 网关 ──

// sendRequest 网关请求体
type sendRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// sendResponse 网关响应体
type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Client 基于 resty 的网关客户端
type Client struct {
	httpClient *resty.Client
	sender     string
	logger     *zap.Logger
}

// NewClient 创建网关客户端
func NewClient(cfg *config.WhatsAppConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{
		httpClient: httpClient,
		sender:     cfg.Sender,
		logger:     logger,
	}
}

// Send 调用 POST /messages 发送文本消息
func (c *Client) Send(ctx context.Context, to, text string) error {
	var result sendResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(sendRequest{From: c.sender, To: to, Text: text}).
		SetResult(&result).
		SetError(&result).
		Post("/messages")
	if err != nil {
		c.logger.Warn("WhatsApp 网关调用失败", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("调用 WhatsApp 网关: %w", err)
	}

	if resp.IsError() {
		c.logger.Warn("WhatsApp 网关返回错误",
			zap.String("to", to),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", result.Error),
		)
		return fmt.Errorf("%w: HTTP %d %s", ErrSendFailed, resp.StatusCode(), result.Error)
	}

	c.logger.Debug("WhatsApp 消息已发送", zap.String("to", to), zap.String("message_id", result.ID))
	return nil
}

// ── 日志发送器 ──

// LogSender 未接入网关时使用，只记录日志并视为成功
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender 创建日志发送器
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, text string) error {
	s.logger.Info("WhatsApp 网关未启用，消息仅记录", zap.String("to", to), zap.String("text", text))
	return nil
}
