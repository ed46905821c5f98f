package series

import (
	"fmt"
	"sort"
	"time"

	"marketline/pkg/bar"
)

// ConfigurationError 分钟级重采样缺少有效交易日历
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// Resample 将K线序列重采样到目标周期。
// 聚合规则固定为 open=first, high=max, low=min, close=last, volume=sum，
// 无观测值的桶直接丢弃，不做前向填充。空输入返回空序列而非错误，
// 因为上游在非交易日经常返回空数据。
func Resample(s bar.Series, period Period, cal Calendar) (bar.Series, error) {
	if !validPeriods[period] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if len(s) == 0 {
		return bar.Series{}, nil
	}

	sorted := s.Sorted()

	if period.IsIntraday() {
		if len(cal) == 0 {
			return nil, &ConfigurationError{Message: "分钟级重采样需要交易时段配置"}
		}
		return resampleIntraday(sorted, period.Minutes(), cal), nil
	}
	return resampleCalendar(sorted, period), nil
}

// resampleIntraday 逐交易时段过滤、聚合，最后合并并重新排序。
// 不能对整天做朴素的时间桶划分：跨越午休的桶会把下午开盘的成交量
// 并进上午的最后一桶。
func resampleIntraday(sorted bar.Series, minutes int, cal Calendar) bar.Series {
	var out bar.Series
	for _, w := range cal {
		var filtered bar.Series
		for _, b := range sorted {
			if w.Contains(b.Timestamp) {
				filtered = append(filtered, b)
			}
		}
		out = append(out, aggregate(filtered, func(t time.Time) time.Time {
			bucket := (t.Hour()*60 + t.Minute()) / minutes * minutes
			return time.Date(t.Year(), t.Month(), t.Day(), bucket/60, bucket%60, 0, 0, t.Location())
		})...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func resampleCalendar(sorted bar.Series, period Period) bar.Series {
	return aggregate(sorted, func(t time.Time) time.Time {
		switch period {
		case PeriodWeek:
			// 周桶锚定周一
			offset := (int(t.Weekday()) + 6) % 7
			return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
		case PeriodMonth:
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		case PeriodYear:
			return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
		default:
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
	})
}

// aggregate 按桶起点分组聚合，输入必须已按时间升序。
// 返回结果按桶起点升序，仅包含有观测值的桶。
func aggregate(sorted bar.Series, bucketOf func(time.Time) time.Time) bar.Series {
	if len(sorted) == 0 {
		return nil
	}

	buckets := make(map[int64]*bar.Bar)
	keys := make([]int64, 0)

	for _, b := range sorted {
		start := bucketOf(b.Timestamp)
		key := start.UnixNano()
		agg, ok := buckets[key]
		if !ok {
			buckets[key] = &bar.Bar{
				Timestamp: start,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			}
			keys = append(keys, key)
			continue
		}

		if b.High > agg.High {
			agg.High = b.High
		}
		if b.Low < agg.Low {
			agg.Low = b.Low
		}
		agg.Close = b.Close
		agg.Volume += b.Volume
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make(bar.Series, 0, len(keys))
	for _, k := range keys {
		out = append(out, *buckets[k])
	}
	return out
}
