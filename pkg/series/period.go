// Package series 实现K线序列在交易时段约束下的重采样。
// 分钟级周期按交易时段分别聚合后再合并，避免跨午休/跨隔夜的桶混入
// 下一时段的数据；日/周/月/年周期按日历边界聚合。
package series

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPeriod 周期标识不被支持
var ErrInvalidPeriod = errors.New("无效的周期")

// Period 重采样周期
type Period string

// 支持的周期。分钟级周期必须搭配交易日历使用。
const (
	Period5Min  Period = "5"
	Period15Min Period = "15"
	Period20Min Period = "20"
	Period30Min Period = "30"
	PeriodDay   Period = "d"
	PeriodWeek  Period = "w"
	PeriodMonth Period = "m"
	PeriodYear  Period = "y"
)

var validPeriods = map[Period]bool{
	Period5Min:  true,
	Period15Min: true,
	Period20Min: true,
	Period30Min: true,
	PeriodDay:   true,
	PeriodWeek:  true,
	PeriodMonth: true,
	PeriodYear:  true,
}

// ParsePeriod 解析周期标识，大小写不敏感
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !validPeriods[p] {
		return "", fmt.Errorf("%w: %q，有效选项: 5/15/20/30/d/w/m/y", ErrInvalidPeriod, s)
	}
	return p, nil
}

// IsIntraday 是否为分钟级周期
func (p Period) IsIntraday() bool {
	switch p {
	case Period5Min, Period15Min, Period20Min, Period30Min:
		return true
	}
	return false
}

// Minutes 分钟级周期的桶宽，非分钟级周期返回0
func (p Period) Minutes() int {
	switch p {
	case Period5Min:
		return 5
	case Period15Min:
		return 15
	case Period20Min:
		return 20
	case Period30Min:
		return 30
	}
	return 0
}

func (p Period) String() string {
	return string(p)
}
