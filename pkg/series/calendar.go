package series

import (
	"strconv"
	"strings"
	"time"

	"marketline/pkg/logger"
)

// 各市场默认交易时段
const (
	// TradingHoursHK 港股：上午 09:30-12:00，下午 13:00-16:10
	TradingHoursHK = "0930-1200,1300-1610"
	// TradingHoursHS 沪深：上午 09:30-11:30，下午 13:00-15:00
	TradingHoursHS = "0930-1130,1300-1500"
)

// Window 单个连续交易时段，起止均为闭区间
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains 判断时间戳的日内时刻是否落在时段内（含边界）
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.Start.MinuteOfDay() && m <= w.End.MinuteOfDay()
}

// TimeOfDay 一天内的时刻，分钟精度
type TimeOfDay struct {
	Hour   int
	Minute int
}

// MinuteOfDay 返回从零点起的分钟数
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// Calendar 一个市场的有序交易时段集合，时段互不重叠
type Calendar []Window

// ParseTradingHours 解析 "HHMM-HHMM,HHMM-HHMM" 形式的交易时段配置。
// 单个时段格式错误时跳过并告警，不中断解析。
func ParseTradingHours(s string) Calendar {
	if s == "" {
		return nil
	}

	log := logger.WithComponent("series")
	var cal Calendar
	for _, seg := range strings.Split(s, ",") {
		seg = strings.TrimSpace(seg)
		parts := strings.Split(seg, "-")
		if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
			log.Warnf("时间段格式错误，已跳过: %q", seg)
			continue
		}

		start, ok1 := parseHHMM(parts[0])
		end, ok2 := parseHHMM(parts[1])
		if !ok1 || !ok2 {
			log.Warnf("无效的时间段，已跳过: %q", seg)
			continue
		}

		cal = append(cal, Window{Start: start, End: end})
	}
	return cal
}

// DefaultCalendar 按市场标识返回默认交易日历，港股以 hk 开头，其余视为沪深
func DefaultCalendar(market string) Calendar {
	if strings.HasPrefix(strings.ToLower(market), "hk") {
		return ParseTradingHours(TradingHoursHK)
	}
	return ParseTradingHours(TradingHoursHS)
}

func parseHHMM(s string) (TimeOfDay, bool) {
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, false
	}
	m, err := strconv.Atoi(s[2:])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: h, Minute: m}, true
}
