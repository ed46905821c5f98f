package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketline/pkg/bar"
	"marketline/pkg/series"
)

type stubProvider struct {
	daily       bar.Series
	minutes     bar.Series
	err         error
	latestCalls int
	allCalls    int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error) {
	s.allCalls++
	return s.daily, s.err
}

func (s *stubProvider) FetchLatest(ctx context.Context, symbol string) (bar.Series, error) {
	s.latestCalls++
	return s.minutes, s.err
}

func minuteBar(hour, minute int, price float64) bar.Bar {
	return bar.Bar{
		Timestamp: time.Date(2023, 6, 1, hour, minute, 0, 0, time.Local),
		Open:      price, High: price, Low: price, Close: price,
		Volume: 100,
	}
}

func dayBar(day int, price float64) bar.Bar {
	return bar.Bar{
		Timestamp: time.Date(2023, 6, day, 0, 0, 0, 0, time.Local),
		Open:      price, High: price + 1, Low: price - 1, Close: price,
		Volume: 1000,
	}
}

func TestHistoryIntradayUsesLatest(t *testing.T) {
	stub := &stubProvider{minutes: bar.Series{
		minuteBar(9, 30, 10),
		minuteBar(9, 31, 10.2),
		minuteBar(9, 36, 10.4),
	}}
	svc := NewService(stub)

	out, err := svc.History(context.Background(), "600000", "5")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.latestCalls)
	assert.Equal(t, 0, stub.allCalls)

	// 09:30/09:31 合并进 09:30 桶, 09:36 进 09:35 桶
	require.Len(t, out, 2)
	assert.Equal(t, 10.2, out[0].Close)
	assert.Equal(t, 10.4, out[1].Close)
}

func TestHistoryDailyUsesAllHistory(t *testing.T) {
	stub := &stubProvider{daily: bar.Series{
		dayBar(1, 10), dayBar(2, 11), dayBar(5, 12),
	}}
	svc := NewService(stub)

	out, err := svc.History(context.Background(), "600000", "d")
	require.NoError(t, err)
	assert.Equal(t, 0, stub.latestCalls)
	assert.Equal(t, 1, stub.allCalls)
	require.Len(t, out, 3)
	assert.Equal(t, 50.0, out[0].K, "指标已附加")
}

func TestHistoryWeekly(t *testing.T) {
	// 6月1日(周四)、2日(周五)与5日(下周一)分属两周
	stub := &stubProvider{daily: bar.Series{
		dayBar(1, 10), dayBar(2, 11), dayBar(5, 12),
	}}
	svc := NewService(stub)

	out, err := svc.History(context.Background(), "600000", "w")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 11.0, out[0].Close)
	assert.Equal(t, 12.0, out[1].Close)
}

func TestHistoryInvalidPeriod(t *testing.T) {
	svc := NewService(&stubProvider{})
	_, err := svc.History(context.Background(), "600000", "2h")
	assert.Error(t, err)
}

func TestHistoryProviderError(t *testing.T) {
	stub := &stubProvider{err: errors.New("上游超时")}
	svc := NewService(stub)
	_, err := svc.History(context.Background(), "600000", "d")
	assert.Error(t, err)
}

func TestHistoryCalendarOverride(t *testing.T) {
	// 收盘竞价时段 16:05 默认港股时段内、A股时段外
	stub := &stubProvider{minutes: bar.Series{
		minuteBar(16, 5, 10),
	}}

	svc := NewService(stub, WithCalendar(series.ParseTradingHours(series.TradingHoursHK)))
	out, err := svc.History(context.Background(), "600000", "5")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	svc = NewService(stub)
	out, err = svc.History(context.Background(), "600000", "5")
	require.NoError(t, err)
	assert.Len(t, out, 0, "A股交易时段外的数据被丢弃")
}

func TestHistoryRecords(t *testing.T) {
	stub := &stubProvider{daily: bar.Series{dayBar(1, 10)}}
	svc := NewService(stub)

	records, err := svc.HistoryRecords(context.Background(), "600000", "d")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 10.0, records[0]["close"])
	assert.Nil(t, records[0]["ma5"])
}
