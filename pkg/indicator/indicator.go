// Package indicator 在K线序列上计算常用技术指标。
// 指标列按固定参数计算（参数是对外契约的一部分），回看窗口未满的
// 前导行取 NaN；KDJ 例外，它从首行起就有种子值 50，下游依赖这一差异。
package indicator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"marketline/pkg/bar"
)

// 指标参数，调用方依赖这些默认值，不可随意调整
const (
	BollWindow  = 20
	BollK       = 2.0
	MACDFast    = 12
	MACDSlow    = 26
	MACDSignal  = 9
	RSIWindow   = 14
	KDJWindow   = 9
	ATRWindow   = 14
	WillRWindow = 14
	SARAccel    = 0.02
	SARMaxAccel = 0.2
	MomWindow   = 10
	ROCWindow   = 12
)

// MissingColumnError 输入记录缺少必需列
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "缺少必需列: " + strings.Join(e.Columns, ",")
}

// EnrichedBar 附加指标列后的K线。
// 未定义的指标值为 NaN，序列化为 JSON 时输出 null。
type EnrichedBar struct {
	bar.Bar

	MA5  float64
	MA10 float64
	MA20 float64

	BollMid   float64
	BollUpper float64
	BollLower float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	RSI float64

	K float64
	D float64
	J float64

	ATR      float64
	SAR      float64
	WillR    float64
	OBV      float64
	Momentum float64
	ROC      float64
}

// Record 转为扁平映射，便于直接序列化为 JSON 或表格。
// NaN 输出为 nil。
func (b EnrichedBar) Record() map[string]interface{} {
	rec := map[string]interface{}{
		"timestamp": b.Timestamp.Format("2006-01-02 15:04:05"),
		"open":      b.Open,
		"high":      b.High,
		"low":       b.Low,
		"close":     b.Close,
		"volume":    b.Volume,
	}
	put := func(key string, v float64) {
		if math.IsNaN(v) {
			rec[key] = nil
		} else {
			rec[key] = v
		}
	}
	put("ma5", b.MA5)
	put("ma10", b.MA10)
	put("ma20", b.MA20)
	put("boll_mid", b.BollMid)
	put("boll_upper", b.BollUpper)
	put("boll_lower", b.BollLower)
	put("macd", b.MACD)
	put("macd_signal", b.MACDSignal)
	put("macd_hist", b.MACDHist)
	put("rsi", b.RSI)
	put("k", b.K)
	put("d", b.D)
	put("j", b.J)
	put("atr", b.ATR)
	put("sar", b.SAR)
	put("willr", b.WillR)
	put("obv", b.OBV)
	put("momentum", b.Momentum)
	put("roc", b.ROC)
	return rec
}

// MarshalJSON 经由 Record 序列化，避免 NaN 破坏 JSON 输出
func (b EnrichedBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Record())
}

// Enrich 计算全部指标列，不增删或重排输入行。
// 历史不足不报错，只在对应行留下 NaN。
func Enrich(s bar.Series) []EnrichedBar {
	n := len(s)
	out := make([]EnrichedBar, n)
	if n == 0 {
		return out
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range s {
		out[i].Bar = b
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	ma5 := roundedSMA(closes, 5)
	ma10 := roundedSMA(closes, 10)
	ma20 := roundedSMA(closes, 20)
	bollMid, bollUp, bollDown := boll(closes, BollWindow, BollK)
	macdLine, macdSignal, macdHist := macd(closes, MACDFast, MACDSlow, MACDSignal)
	rsiCol := rsi(closes, RSIWindow)
	k, d, j := kdj(highs, lows, closes, KDJWindow)
	atrCol := atr(highs, lows, closes, ATRWindow)
	sarCol := sar(highs, lows, SARAccel, SARMaxAccel)
	willrCol := willR(highs, lows, closes, WillRWindow)
	obvCol := obv(closes, volumes)
	momCol := momentum(closes, MomWindow)
	rocCol := roc(closes, ROCWindow)

	for i := range out {
		out[i].MA5 = ma5[i]
		out[i].MA10 = ma10[i]
		out[i].MA20 = ma20[i]
		out[i].BollMid = bollMid[i]
		out[i].BollUpper = bollUp[i]
		out[i].BollLower = bollDown[i]
		out[i].MACD = macdLine[i]
		out[i].MACDSignal = macdSignal[i]
		out[i].MACDHist = macdHist[i]
		out[i].RSI = rsiCol[i]
		out[i].K = k[i]
		out[i].D = d[i]
		out[i].J = j[i]
		out[i].ATR = atrCol[i]
		out[i].SAR = sarCol[i]
		out[i].WillR = willrCol[i]
		out[i].OBV = obvCol[i]
		out[i].Momentum = momCol[i]
		out[i].ROC = rocCol[i]
	}
	return out
}

var requiredColumns = []string{"o", "h", "l", "c", "v"}

// EnrichRecords 对来自API的扁平记录计算指标。
// 记录缺少 o/h/l/c/v 任一列时返回 MissingColumnError。
func EnrichRecords(records []map[string]interface{}) ([]EnrichedBar, error) {
	if len(records) == 0 {
		return []EnrichedBar{}, nil
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := records[0][col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	s := make(bar.Series, 0, len(records))
	for i, rec := range records {
		b := bar.Bar{
			Open:   asFloat(rec["o"]),
			High:   asFloat(rec["h"]),
			Low:    asFloat(rec["l"]),
			Close:  asFloat(rec["c"]),
			Volume: asFloat(rec["v"]),
		}
		ts, err := parseTimestamp(rec["t"])
		if err != nil {
			return nil, fmt.Errorf("第 %d 条记录时间戳无效: %w", i, err)
		}
		b.Timestamp = ts
		s = append(s, b)
	}
	return Enrich(s), nil
}

func asFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		var f float64
		fmt.Sscanf(x, "%f", &f)
		return f
	}
	return 0
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102 15:04",
	"20060102",
}

func parseTimestamp(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("时间戳类型错误: %T", v)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间戳: %q", s)
}

// round2 保留两位小数，与行情网站的展示精度一致
func round2(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
