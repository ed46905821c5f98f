package ths

import (
	"context"
	"fmt"
	"strings"

	"marketline/pkg/bar"
	"marketline/pkg/provider"
)

// Provider 同花顺行情数据源。
// 全量日线走 d.10jqka.com.cn 的 all.js 接口，
// 当日分钟线走 last.js 接口，两者均为 JSONP 包装。
type Provider struct {
	client  *client
	baseURL string
}

// NewProvider 创建同花顺数据源
func NewProvider() *Provider {
	return &Provider{
		client:  newClient(),
		baseURL: "https://d.10jqka.com.cn",
	}
}

// SetBaseURL 覆盖接口地址，测试用
func (p *Provider) SetBaseURL(url string) {
	p.baseURL = strings.TrimRight(url, "/")
}

// Name 返回数据源名称
func (p *Provider) Name() string {
	return "ths"
}

// NormalizeSymbol 把外部标的代码转为接口使用的内部代码。
// 港股代码带 HK 前缀，A股为6位数字。
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "hs_") || strings.HasPrefix(lower, "hk_") {
		return lower, nil
	}
	if strings.HasPrefix(lower, "hk") {
		code := strings.TrimPrefix(lower, "hk")
		if code == "" {
			return "", provider.ErrSymbolNotSupported
		}
		return "hk_" + strings.ToUpper(code), nil
	}
	if len(s) == 6 && (s[0] == '0' || s[0] == '3' || s[0] == '6' || s[0] == '8') {
		return "hs_" + s, nil
	}
	return "", provider.ErrSymbolNotSupported
}

// Market 返回内部代码所属的市场标识
func Market(code string) string {
	if strings.HasPrefix(code, "hk_") {
		return "hk"
	}
	return "hs"
}

// FetchAllHistory 获取全部日线历史
func (p *Provider) FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error) {
	code, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v6/line/%s/01/all.js", p.baseURL, code)
	body, err := p.client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUpstream, err)
	}

	var payload AllHistoryPayload
	if err := ExtractJSONCallback(body, &payload); err != nil {
		return nil, err
	}
	return payload.Bars(DefaultPriceFactor)
}

// FetchLatest 获取当日分钟线。
// last.js 返回以内部代码为键的对象，取出本标的对应的载荷。
func (p *Provider) FetchLatest(ctx context.Context, symbol string) (bar.Series, error) {
	code, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v6/time/%s/defer/last.js", p.baseURL, code)
	body, err := p.client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUpstream, err)
	}

	var payloads map[string]LatestPayload
	if err := ExtractJSONCallback(body, &payloads); err != nil {
		return nil, err
	}

	payload, ok := payloads[code]
	if !ok {
		return nil, &provider.MissingFieldError{Source: "ths", Field: code}
	}
	return payload.Bars()
}
