package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"marketline/pkg/bar"
	"marketline/pkg/indicator"
	"marketline/pkg/logger"
	"marketline/pkg/provider"
	"marketline/pkg/series"
)

// Service 行情门面。
// 按目标周期选择数据线路：分钟级周期重采样当日分钟线，
// 日级及以上周期重采样全量日线，最后统一附加技术指标。
type Service struct {
	provider provider.HistoryProvider
	calendar series.Calendar
	log      *logrus.Entry
}

// Option Service 可选配置
type Option func(*Service)

// WithCalendar 覆盖按市场推断的交易时段
func WithCalendar(cal series.Calendar) Option {
	return func(s *Service) {
		s.calendar = cal
	}
}

// NewService 创建行情门面
func NewService(p provider.HistoryProvider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		log:      logger.WithComponent("market"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History 获取指定标的在目标周期下的K线并附加技术指标
func (s *Service) History(ctx context.Context, symbol, periodStr string) ([]indicator.EnrichedBar, error) {
	period, err := series.ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}

	var raw bar.Series
	if period.IsIntraday() {
		raw, err = s.provider.FetchLatest(ctx, symbol)
	} else {
		raw, err = s.provider.FetchAllHistory(ctx, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("获取 %s 行情失败: %w", symbol, err)
	}

	cal := s.calendar
	if cal == nil {
		cal = series.DefaultCalendar(marketOf(symbol))
	}

	resampled, err := series.Resample(raw.Normalize(), period, cal)
	if err != nil {
		return nil, err
	}

	s.log.Debugf("标的 %s 周期 %s: 原始 %d 条, 重采样后 %d 条", symbol, period, len(raw), len(resampled))
	return indicator.Enrich(resampled), nil
}

// HistoryRecords 同 History，但以扁平记录返回，便于JSON输出
func (s *Service) HistoryRecords(ctx context.Context, symbol, periodStr string) ([]map[string]interface{}, error) {
	enriched, err := s.History(ctx, symbol, periodStr)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, len(enriched))
	for i, b := range enriched {
		records[i] = b.Record()
	}
	return records, nil
}

// marketOf 根据标的代码推断市场标识
func marketOf(symbol string) string {
	if strings.HasPrefix(strings.ToLower(symbol), "hk") {
		return "hk"
	}
	return "hs"
}
