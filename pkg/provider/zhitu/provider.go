package zhitu

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

	"github.com/sirupsen/logrus"

	"marketline/pkg/bar"
	"marketline/pkg/logger"
	"marketline/pkg/provider"
)

var (
	// ErrInvalidPeriod 周期参数不在接口支持范围内
	ErrInvalidPeriod = errors.New("无效周期参数")

	// ErrInvalidAdjust 复权参数不在接口支持范围内
	ErrInvalidAdjust = errors.New("无效复权参数")

	// ErrMissingToken 未配置接口令牌
	ErrMissingToken = errors.New("缺少 zhitu 接口令牌")
)

var (
	validPeriods = map[string]bool{
		"1": true, "5": true, "15": true, "30": true, "60": true,
		"d": true, "w": true, "m": true, "y": true,
	}
	validAdjusts = map[string]bool{
		"n": true, "f": true, "b": true, "fr": true, "br": true,
	}
)

// Provider 知图行情数据源。
// 所有接口要求在查询参数中携带 token。
// 参考API文档：https://www.zhituapi.com/hsstockapi.html
type Provider struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewProvider 创建知图数据源
func NewProvider(token string) (*Provider, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Provider{
		token:   token,
		baseURL: "https://api.zhituapi.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.WithComponent("zhitu"),
	}, nil
}

// SetBaseURL 覆盖接口地址，测试用
func (p *Provider) SetBaseURL(u string) {
	p.baseURL = strings.TrimRight(u, "/")
}

// Name 返回数据源名称
func (p *Provider) Name() string {
	return "zhitu"
}

// barRecord 行情接口的单条K线记录
type barRecord struct {
	T string  `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
	A float64 `json:"a"`
}

var recordLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (r barRecord) toBar() (bar.Bar, error) {
	var ts time.Time
	var err error
	for _, layout := range recordLayouts {
		ts, err = time.ParseInLocation(layout, r.T, time.Local)
		if err == nil {
			break
		}
	}
	if err != nil {
		return bar.Bar{}, fmt.Errorf("时间 %q 无法解析", r.T)
	}
	return bar.Bar{
		Timestamp: ts,
		Open:      r.O,
		High:      r.H,
		Low:       r.L,
		Close:     r.C,
		Volume:    r.V,
	}, nil
}

func (p *Provider) toSeries(records []barRecord) bar.Series {
	series := make(bar.Series, 0, len(records))
	for i, r := range records {
		b, err := r.toBar()
		if err != nil {
			p.log.Warnf("跳过第 %d 条记录: %v", i, err)
			continue
		}
		series = append(series, b)
	}
	return series
}

// get 发送带 token 的GET请求并反序列化JSON响应
func (p *Provider) get(ctx context.Context, path string, params url.Values, v interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", p.token)

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response failed: %v", provider.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP status %d", provider.ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &provider.DecodeError{Source: "zhitu", Reason: fmt.Sprintf("JSON 解析失败: %v", err)}
	}
	return nil
}

func validatePeriod(period string) error {
	if !validPeriods[period] {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return nil
}

func validateAdjust(adjust string) error {
	if !validAdjusts[adjust] {
		return fmt.Errorf("%w: %q", ErrInvalidAdjust, adjust)
	}
	return nil
}

// marketSuffix 根据A股代码推断接口要求的交易所后缀
func marketSuffix(code string) string {
	switch {
	case strings.HasPrefix(code, "6") || strings.HasPrefix(code, "5"):
		return code + ".SH"
	case strings.HasPrefix(code, "0") || strings.HasPrefix(code, "3"):
		return code + ".SZ"
	default:
		return code + ".BJ"
	}
}

// StockHistory 获取股票历史K线
func (p *Provider) StockHistory(ctx context.Context, code, period, adjust, start, end string) (bar.Series, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if err := validateAdjust(adjust); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("st", start)
	params.Set("et", end)

	var records []barRecord
	path := fmt.Sprintf("/hs/history/%s/%s/%s", marketSuffix(code), period, adjust)
	if err := p.get(ctx, path, params, &records); err != nil {
		return nil, err
	}
	return p.toSeries(records), nil
}

// StockLatest 获取股票近期K线
func (p *Provider) StockLatest(ctx context.Context, code, period string) (bar.Series, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	var records []barRecord
	path := fmt.Sprintf("/hs/latest/%s/%s/n", marketSuffix(code), period)
	if err := p.get(ctx, path, nil, &records); err != nil {
		return nil, err
	}
	return p.toSeries(records), nil
}

// IndexHistory 获取指数历史K线
func (p *Provider) IndexHistory(ctx context.Context, indexCode, period, start, end string) (bar.Series, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("st", start)
	params.Set("et", end)

	var records []barRecord
	path := fmt.Sprintf("/hz/history/fsjy/%s/%s", indexCode, period)
	if err := p.get(ctx, path, params, &records); err != nil {
		return nil, err
	}
	return p.toSeries(records), nil
}

// IndexLatest 获取指数分时K线
func (p *Provider) IndexLatest(ctx context.Context, indexCode, period string) (bar.Series, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	var records []barRecord
	path := fmt.Sprintf("/hz/latest/fsjy/%s/%s", indexCode, period)
	if err := p.get(ctx, path, nil, &records); err != nil {
		return nil, err
	}
	return p.toSeries(records), nil
}

// RealQuote 获取股票实时快照，字段已重映射为可读名称
func (p *Provider) RealQuote(ctx context.Context, code string) (map[string]interface{}, error) {
	var record map[string]interface{}
	path := "/hs/real/ssjy/" + code
	if err := p.get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	return RemapFields(record, realQuoteFields), nil
}

// FetchQuote 实现 provider.QuoteProvider
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (map[string]interface{}, error) {
	return p.RealQuote(ctx, symbol)
}

// FetchAllHistory 实现 provider.HistoryProvider，取全部可用日线
func (p *Provider) FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error) {
	end := time.Now().Format("20060102")
	return p.StockHistory(ctx, symbol, "d", "n", "19901219", end)
}

// FetchLatest 实现 provider.HistoryProvider，取近期5分钟线
func (p *Provider) FetchLatest(ctx context.Context, symbol string) (bar.Series, error) {
	return p.StockLatest(ctx, symbol, "5")
}

// Listing 标的列表条目
type Listing struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type listingRecord struct {
	DM string `json:"dm"`
	MC string `json:"mc"`
}

// ListStocks 获取全部A股标的，代码已去除交易所后缀
func (p *Provider) ListStocks(ctx context.Context) ([]Listing, error) {
	var records []listingRecord
	if err := p.get(ctx, "/hs/list/all", nil, &records); err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(records))
	for _, r := range records {
		code := r.DM
		if len(code) > 3 {
			code = code[:len(code)-3]
		}
		out = append(out, Listing{Code: code, Name: r.MC})
	}
	return out, nil
}

// ListIndexes 获取沪深指数列表，代码保留交易所后缀
func (p *Provider) ListIndexes(ctx context.Context) ([]Listing, error) {
	var records []listingRecord
	if err := p.get(ctx, "/hz/list/hszs", nil, &records); err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(records))
	for _, r := range records {
		out = append(out, Listing{Code: r.DM, Name: r.MC})
	}
	return out, nil
}
