package ths

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"marketline/pkg/logger"
)

// client 行情接口HTTP客户端。
// 接口返回 GBK 编码的报文，读取时统一转为 UTF-8。
type client struct {
	httpClient  *http.Client
	lastRequest time.Time
	requestMu   sync.Mutex
	rateLimit   time.Duration
	maxRetries  int
	userAgent   string
	log         *logrus.Entry
}

func newClient() *client {
	return &client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				MaxConnsPerHost:     10,
			},
			Timeout: 15 * time.Second,
		},
		rateLimit:  200 * time.Millisecond,
		maxRetries: 3,
		userAgent:  "Marketline/1.0",
		log:        logger.WithComponent("ths.client"),
	}
}

// get 带限流和重试地获取一个URL，返回 UTF-8 文本
func (c *client) get(ctx context.Context, url string) (string, error) {
	c.enforceRateLimit()

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			lastErr = fmt.Errorf("create request failed: %w", err)
			continue
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Referer", "http://www.10jqka.com.cn/")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response failed: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("HTTP status error: %d", resp.StatusCode)
			continue
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty response")
			continue
		}

		return string(body), nil
	}

	return "", fmt.Errorf("failed after %d retries: %v", c.maxRetries, lastErr)
}

// enforceRateLimit 执行请求间隔限制
func (c *client) enforceRateLimit() {
	c.requestMu.Lock()
	defer c.requestMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.rateLimit && !c.lastRequest.IsZero() {
		time.Sleep(c.rateLimit - elapsed)
	}
	c.lastRequest = time.Now()
}
