package indicator

import "math"

// sma 滚动算术平均，前 window-1 个位置为 NaN
func sma(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

func roundedSMA(values []float64, window int) []float64 {
	out := sma(values, window)
	for i := range out {
		out[i] = round2(out[i])
	}
	return out
}

// rollingStd 滚动样本标准差（除数 n-1），与均线同样的回看窗口
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		var mean float64
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

// boll 布林带：中轨为 SMA，上下轨为中轨 ± k 倍标准差
func boll(closes []float64, window int, k float64) (mid, upper, lower []float64) {
	mid = roundedSMA(closes, window)
	std := rollingStd(closes, window)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		sd := round2(std[i])
		upper[i] = round2(mid[i] + k*sd)
		lower[i] = round2(mid[i] - k*sd)
	}
	return mid, upper, lower
}

// ema 指数移动平均，以首值为种子，没有回看空窗
// EMA[i] = α·v[i] + (1-α)·EMA[i-1]，α = 2/(period+1)
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// macd 快慢EMA之差；信号线为差值的EMA，柱为两者之差
func macd(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	n := len(closes)
	line = make([]float64, n)
	hist = make([]float64, n)
	if n == 0 {
		return line, nanSlice(0), hist
	}

	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = round2(emaFast[i]) - round2(emaSlow[i])
	}

	sig := ema(diff, signalPeriod)
	signal = make([]float64, n)
	for i := 0; i < n; i++ {
		line[i] = round2(diff[i])
		signal[i] = round2(sig[i])
		hist[i] = round2(diff[i] - signal[i])
	}
	return line, signal, hist
}

// momentum 动量：当前收盘与 window 根之前收盘的差
func momentum(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	for i := window; i < len(closes); i++ {
		out[i] = round2(closes[i] - closes[i-window])
	}
	return out
}

// roc 变动率：相对 window 根之前收盘的百分比变化
func roc(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	for i := window; i < len(closes); i++ {
		if closes[i-window] == 0 {
			continue
		}
		out[i] = round2((closes[i]/closes[i-window] - 1) * 100)
	}
	return out
}
