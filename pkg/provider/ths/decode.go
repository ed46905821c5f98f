package ths

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketline/pkg/bar"
	"marketline/pkg/logger"
	"marketline/pkg/provider"
)

// DefaultPriceFactor 报文未给出有效缩放因子时采用的默认值
const DefaultPriceFactor = 1000.0

// ExtractJSONCallback 从 JSONP 形式的报文中提取 JSON 载荷并反序列化。
// 报文形如 ident({...})，取第一个左括号与最后一个右括号之间的内容。
func ExtractJSONCallback(payload string, v interface{}) error {
	start := strings.Index(payload, "(")
	end := strings.LastIndex(payload, ")")
	if start < 0 || end < 0 || end <= start {
		return &provider.DecodeError{Source: "ths", Reason: "报文不是合法的 JSONP 包装"}
	}

	if err := json.Unmarshal([]byte(payload[start+1:end]), v); err != nil {
		return &provider.DecodeError{Source: "ths", Reason: fmt.Sprintf("JSON 解析失败: %v", err)}
	}
	return nil
}

// SortYear 年份与该年交易日数量，报文中以 [year, count] 数组表示
type SortYear struct {
	Year  int
	Count int
}

func (s *SortYear) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	s.Year = pair[0]
	s.Count = pair[1]
	return nil
}

// AllHistoryPayload 全量日线历史报文。
// dates 为逐日的 MMdd 串，年份由 sortYear 按顺序补全；
// price 按日给出4个整数：最低价基准与开/高/收相对基准的偏移，
// 除以 priceFactor 后得到真实价格。
type AllHistoryPayload struct {
	Dates       string     `json:"dates"`
	Price       string     `json:"price"`
	Volumn      string     `json:"volumn"`
	SortYear    []SortYear `json:"sortYear"`
	PriceFactor float64    `json:"priceFactor"`
}

// Bars 把日线报文解析为规范化K线序列
func (p *AllHistoryPayload) Bars(defaultFactor float64) (bar.Series, error) {
	log := logger.WithComponent("ths.decode")

	switch {
	case p.Dates == "":
		return nil, &provider.MissingFieldError{Source: "ths", Field: "dates"}
	case p.Price == "":
		return nil, &provider.MissingFieldError{Source: "ths", Field: "price"}
	case p.Volumn == "":
		return nil, &provider.MissingFieldError{Source: "ths", Field: "volumn"}
	case len(p.SortYear) == 0:
		return nil, &provider.MissingFieldError{Source: "ths", Field: "sortYear"}
	}

	factor := p.PriceFactor
	if factor <= 0 {
		log.Warnf("priceFactor 无效 (%v)，使用默认值 %v", p.PriceFactor, defaultFactor)
		factor = defaultFactor
	}

	dates := strings.Split(p.Dates, ",")
	years := make([]int, 0, len(dates))
	for _, sy := range p.SortYear {
		for i := 0; i < sy.Count; i++ {
			years = append(years, sy.Year)
		}
	}

	// 价格串在不同行情线路上用逗号或分号分组，两种都接受
	tokens := strings.FieldsFunc(p.Price, func(r rune) bool {
		return r == ',' || r == ';'
	})
	if len(tokens)%4 != 0 {
		return nil, &provider.FormatError{
			Source: "ths",
			Reason: fmt.Sprintf("价格字段数 %d 不是4的倍数", len(tokens)),
		}
	}
	groups := len(tokens) / 4

	volumes := strings.Split(p.Volumn, ",")

	n := len(dates)
	if len(years) < n {
		n = len(years)
	}
	if groups < n {
		n = groups
	}
	if len(volumes) < n {
		n = len(volumes)
	}

	series := make(bar.Series, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation("20060102", fmt.Sprintf("%d%s", years[i], dates[i]), time.Local)
		if err != nil {
			log.Warnf("跳过第 %d 条记录: 日期 %q 无法解析", i, dates[i])
			continue
		}

		base, err0 := strconv.ParseFloat(tokens[i*4], 64)
		d1, err1 := strconv.ParseFloat(tokens[i*4+1], 64)
		d2, err2 := strconv.ParseFloat(tokens[i*4+2], 64)
		d3, err3 := strconv.ParseFloat(tokens[i*4+3], 64)
		if err0 != nil || err1 != nil || err2 != nil || err3 != nil {
			log.Warnf("跳过第 %d 条记录: 价格组无法解析", i)
			continue
		}

		volume, err := strconv.ParseFloat(volumes[i], 64)
		if err != nil {
			log.Warnf("第 %d 条记录成交量 %q 无法解析，置0", i, volumes[i])
			volume = 0
		}

		series = append(series, bar.Bar{
			Timestamp: ts,
			Low:       base / factor,
			Open:      (base + d1) / factor,
			High:      (base + d2) / factor,
			Close:     (base + d3) / factor,
			Volume:    volume,
		})
	}
	return series, nil
}

// LatestPayload 当日分钟线报文。
// data 为分号分隔的分钟组，每组至少4个逗号分隔字段：
// 时间(HHMM)、价格、成交量、均价。分钟线只有单一价格，
// 开高低收均取该价格。
type LatestPayload struct {
	Date string `json:"date"`
	Data string `json:"data"`
}

// Bars 把分钟线报文解析为规范化K线序列
func (p *LatestPayload) Bars() (bar.Series, error) {
	log := logger.WithComponent("ths.decode")

	if p.Data == "" {
		return nil, &provider.MissingFieldError{Source: "ths", Field: "data"}
	}
	date := p.Date
	if date == "" {
		return nil, &provider.MissingFieldError{Source: "ths", Field: "date"}
	}

	groups := strings.Split(p.Data, ";")
	series := make(bar.Series, 0, len(groups))
	for i, g := range groups {
		fields := strings.Split(g, ",")
		if len(fields) < 4 {
			log.Warnf("跳过第 %d 个分钟组 %q: 字段不足", i, g)
			continue
		}

		hhmm := fields[0]
		if len(hhmm) != 4 {
			log.Warnf("跳过第 %d 个分钟组: 时间 %q 无法解析", i, hhmm)
			continue
		}

		ts, err := time.ParseInLocation("20060102 15:04", date+" "+hhmm[:2]+":"+hhmm[2:], time.Local)
		if err != nil {
			log.Warnf("跳过第 %d 个分钟组: 时间 %q 无法解析", i, hhmm)
			continue
		}

		price, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			log.Warnf("跳过第 %d 个分钟组: 价格 %q 无法解析", i, fields[1])
			continue
		}

		volume, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			log.Warnf("第 %d 个分钟组成交量 %q 无法解析，置0", i, fields[2])
			volume = 0
		}

		series = append(series, bar.Bar{
			Timestamp: ts,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
		})
	}
	return series, nil
}
