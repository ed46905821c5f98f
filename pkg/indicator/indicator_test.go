package indicator

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketline/pkg/bar"
)

// linearSeries 收盘价为 start, start+1, ... 的简单序列
func linearSeries(n int, start float64) bar.Series {
	s := make(bar.Series, n)
	for i := range s {
		price := start + float64(i)
		s[i] = bar.Bar{
			Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local).AddDate(0, 0, i),
			Open:      price,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
			Volume:    100,
		}
	}
	return s
}

// flatSeries 所有价格恒定的序列
func flatSeries(n int, price float64) bar.Series {
	s := make(bar.Series, n)
	for i := range s {
		s[i] = bar.Bar{
			Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local).AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    50,
		}
	}
	return s
}

func TestEnrichEmptySeries(t *testing.T) {
	out := Enrich(bar.Series{})
	assert.Len(t, out, 0)
}

func TestEnrichKeepsInputRows(t *testing.T) {
	s := linearSeries(30, 10)
	out := Enrich(s)
	require.Len(t, out, 30)
	for i := range s {
		assert.Equal(t, s[i], out[i].Bar, "第 %d 行K线数据不得被改动", i)
	}
}

func TestMovingAverages(t *testing.T) {
	s := linearSeries(25, 1) // 收盘价 1..25
	out := Enrich(s)

	// 前 N-1 行未定义
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(out[i].MA5), "MA5 第 %d 行应为 NaN", i)
	}
	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(out[i].MA20), "MA20 第 %d 行应为 NaN", i)
	}

	// MA5 于第5行 = mean(1..5) = 3
	assert.Equal(t, 3.0, out[4].MA5)
	assert.Equal(t, 23.0, out[24].MA5)
	assert.Equal(t, 5.5, out[9].MA10)
	assert.Equal(t, 10.5, out[19].MA20)
}

func TestBollingerOnFlatSeries(t *testing.T) {
	out := Enrich(flatSeries(25, 10))

	assert.True(t, math.IsNaN(out[18].BollMid))
	// 标准差为0，三条轨重合
	assert.Equal(t, 10.0, out[19].BollMid)
	assert.Equal(t, 10.0, out[19].BollUpper)
	assert.Equal(t, 10.0, out[19].BollLower)
}

func TestMACDOnFlatSeries(t *testing.T) {
	out := Enrich(flatSeries(40, 8))

	// EMA 以首值为种子，常数序列全程为常数，差值为0
	for i, b := range out {
		assert.Equal(t, 0.0, b.MACD, "MACD 第 %d 行", i)
		assert.Equal(t, 0.0, b.MACDSignal)
		assert.Equal(t, 0.0, b.MACDHist)
	}
}

func TestMACDDefinedFromFirstRow(t *testing.T) {
	out := Enrich(linearSeries(5, 10))
	// EMA 无回看空窗，首行即有定义
	assert.False(t, math.IsNaN(out[0].MACD))
	assert.Equal(t, 0.0, out[0].MACD)
}

func TestRSI(t *testing.T) {
	t.Run("前导行未定义", func(t *testing.T) {
		out := Enrich(linearSeries(20, 10))
		for i := 0; i < 14; i++ {
			assert.True(t, math.IsNaN(out[i].RSI), "RSI 第 %d 行应为 NaN", i)
		}
	})

	t.Run("单边上涨时为100", func(t *testing.T) {
		out := Enrich(linearSeries(20, 10))
		for i := 14; i < 20; i++ {
			assert.Equal(t, 100.0, out[i].RSI, "RSI 第 %d 行", i)
		}
	})

	t.Run("无涨跌时保持未定义", func(t *testing.T) {
		out := Enrich(flatSeries(20, 10))
		for i := range out {
			assert.True(t, math.IsNaN(out[i].RSI))
		}
	})
}

// KDJ 从首行起就有定义（种子值50），这与均线类指标不同，
// 下游依赖该差异，必须保持。
func TestKDJAlwaysDefined(t *testing.T) {
	s := linearSeries(30, 10)
	out := Enrich(s)

	assert.Equal(t, 50.0, out[0].K)
	assert.Equal(t, 50.0, out[0].D)
	assert.Equal(t, 50.0, out[0].J)
	for i, b := range out {
		assert.False(t, math.IsNaN(b.K), "K 第 %d 行不得为 NaN", i)
		assert.False(t, math.IsNaN(b.D), "D 第 %d 行不得为 NaN", i)
		assert.False(t, math.IsNaN(b.J), "J 第 %d 行不得为 NaN", i)
	}
}

func TestKDJFlatRangeRSV(t *testing.T) {
	// 高低价相等时 RSV 取 100，K 持续向 100 收敛
	out := Enrich(flatSeries(30, 10))
	assert.Greater(t, out[29].K, out[9].K)
	assert.LessOrEqual(t, out[29].K, 100.0)
}

func TestATR(t *testing.T) {
	out := Enrich(flatSeries(20, 10))
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(out[i].ATR), "ATR 第 %d 行应为 NaN", i)
	}
	// 高=低=收，真实波幅恒为0
	for i := 14; i < 20; i++ {
		assert.Equal(t, 0.0, out[i].ATR)
	}
}

func TestSARDefinedFromSecondRow(t *testing.T) {
	out := Enrich(linearSeries(10, 10))
	assert.True(t, math.IsNaN(out[0].SAR))
	for i := 1; i < 10; i++ {
		require.False(t, math.IsNaN(out[i].SAR), "SAR 第 %d 行", i)
	}
	// 上升趋势中 SAR 低于当前最低价
	assert.Less(t, out[9].SAR, out[9].Low)
}

func TestWilliamsR(t *testing.T) {
	out := Enrich(linearSeries(20, 10))
	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(out[i].WillR))
	}
	for i := 13; i < 20; i++ {
		require.False(t, math.IsNaN(out[i].WillR))
		assert.GreaterOrEqual(t, out[i].WillR, -100.0)
		assert.LessOrEqual(t, out[i].WillR, 0.0)
	}
}

func TestOBV(t *testing.T) {
	s := bar.Series{
		{Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local), Close: 10, Volume: 100},
		{Timestamp: time.Date(2023, 1, 2, 0, 0, 0, 0, time.Local), Close: 11, Volume: 200},
		{Timestamp: time.Date(2023, 1, 3, 0, 0, 0, 0, time.Local), Close: 10.5, Volume: 50},
		{Timestamp: time.Date(2023, 1, 4, 0, 0, 0, 0, time.Local), Close: 10.5, Volume: 300},
	}

	out := Enrich(s)
	assert.Equal(t, 100.0, out[0].OBV)
	assert.Equal(t, 300.0, out[1].OBV)
	assert.Equal(t, 250.0, out[2].OBV)
	assert.Equal(t, 250.0, out[3].OBV, "平盘不计成交量")
}

func TestMomentumAndROC(t *testing.T) {
	out := Enrich(linearSeries(20, 10)) // 收盘 10..29

	assert.True(t, math.IsNaN(out[9].Momentum))
	assert.Equal(t, 10.0, out[10].Momentum) // 20 - 10

	assert.True(t, math.IsNaN(out[11].ROC))
	assert.Equal(t, 120.0, out[12].ROC) // (22/10-1)*100
}

func TestEnrichDeterministic(t *testing.T) {
	s := linearSeries(40, 5)

	// NaN 与自身不相等，经由JSON（NaN→null）比较
	first, err := json.Marshal(Enrich(s))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Enrich(s))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestEnrichRecords(t *testing.T) {
	t.Run("正常记录", func(t *testing.T) {
		records := []map[string]interface{}{
			{"t": "2023-01-01 00:00:00", "o": 10.0, "h": 10.5, "l": 9.8, "c": 10.2, "v": 100.0},
			{"t": "2023-01-02 00:00:00", "o": 10.2, "h": 10.8, "l": 10.1, "c": 10.6, "v": 120.0},
		}

		out, err := EnrichRecords(records)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, 10.2, out[0].Close)
		assert.Equal(t, 50.0, out[0].K)
	})

	t.Run("缺少必需列", func(t *testing.T) {
		records := []map[string]interface{}{
			{"t": "2023-01-01", "o": 10.0, "c": 10.2},
		}

		_, err := EnrichRecords(records)
		require.Error(t, err)
		var colErr *MissingColumnError
		require.ErrorAs(t, err, &colErr)
		assert.ElementsMatch(t, []string{"h", "l", "v"}, colErr.Columns)
	})

	t.Run("空输入", func(t *testing.T) {
		out, err := EnrichRecords(nil)
		require.NoError(t, err)
		assert.Len(t, out, 0)
	})
}

func TestRecordAndJSON(t *testing.T) {
	out := Enrich(linearSeries(3, 10))

	rec := out[0].Record()
	assert.Equal(t, 10.0, rec["close"])
	assert.Nil(t, rec["ma5"], "未定义的指标应输出 nil")
	assert.Equal(t, 50.0, rec["k"])

	// NaN 不得破坏 JSON 序列化
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ma5":null`)
	assert.NotContains(t, string(data), "NaN")
}
