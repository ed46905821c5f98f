// Package bar 定义统一的K线数据模型。
// 所有上游数据源（同花顺、知图等）解码后都归一化为 Bar 序列，
// 重采样和指标计算只依赖这一种表示。
package bar

import (
	"sort"
	"time"
)

// Bar 单根K线（OHLCV）
// 时间戳为交易所本地时间，构造后不再修改。
type Bar struct {
	Timestamp time.Time `json:"timestamp"` // 时间戳
	Open      float64   `json:"open"`      // 开盘价
	High      float64   `json:"high"`      // 最高价
	Low       float64   `json:"low"`       // 最低价
	Close     float64   `json:"close"`     // 收盘价
	Volume    float64   `json:"volume"`    // 成交量
}

// Series 同一标的的K线序列
type Series []Bar

// Sorted 返回按时间戳升序排列的副本，不修改原序列
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Normalize 返回升序且时间戳唯一的副本。
// 来源数据中重复时间戳保留最后一条。
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return Series{}
	}

	sorted := s.Sorted()
	out := make(Series, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(b.Timestamp) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// Timestamps 返回序列中所有时间戳
func (s Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Timestamp
	}
	return out
}

// Closes 返回收盘价切片
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}
