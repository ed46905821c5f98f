package indicator

import "math"

// rsi 相对强弱指标。
// 涨跌幅拆分为增益/损失两列各取滚动均值；损失均值为零时沿用上一个
// 非零分母，避免除零。分母始终为零且无增益时该行为 NaN。
func rsi(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < window+1 {
		return out
	}

	gains := nanSlice(n)
	losses := nanSlice(n)
	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		gainSum += gain
		lossSum += loss
		if i > window {
			prev := closes[i-window] - closes[i-window-1]
			if prev > 0 {
				gainSum -= prev
			} else {
				lossSum -= -prev
			}
		}
		if i >= window {
			gains[i] = round2(gainSum / float64(window))
			losses[i] = round2(lossSum / float64(window))
		}
	}

	lastLoss := math.NaN()
	for i := window; i < n; i++ {
		den := losses[i]
		if den == 0 {
			den = lastLoss
		} else {
			lastLoss = den
		}

		switch {
		case math.IsNaN(den) || den == 0:
			if gains[i] > 0 {
				out[i] = 100
			}
			// 无涨也无跌：保持 NaN
		default:
			rs := gains[i] / den
			out[i] = round2(100 - 100/(1+rs))
		}
	}
	return out
}

// kdj 随机指标。
// RSV 在窗口未满时取 0，窗口内最高价等于最低价时取 100；
// K/D 以 50 为种子从首行递归平滑，因此 K/D/J 对每一行都有定义，
// 这与均线类指标的前导 NaN 形成有意保留的差异。
func kdj(highs, lows, closes []float64, window int) (k, d, j []float64) {
	n := len(closes)
	k = make([]float64, n)
	d = make([]float64, n)
	j = make([]float64, n)
	if n == 0 {
		return k, d, j
	}

	rsv := make([]float64, n)
	for i := window - 1; i < n; i++ {
		lo := lows[i-window+1]
		hi := highs[i-window+1]
		for x := i - window + 2; x <= i; x++ {
			if lows[x] < lo {
				lo = lows[x]
			}
			if highs[x] > hi {
				hi = highs[x]
			}
		}
		if hi == lo {
			rsv[i] = 100
		} else {
			rsv[i] = (closes[i] - lo) / (hi - lo) * 100
		}
	}

	k[0], d[0], j[0] = 50, 50, 50
	for i := 1; i < n; i++ {
		k[i] = round2(2.0/3.0*k[i-1] + 1.0/3.0*rsv[i])
		d[i] = round2(2.0/3.0*d[i-1] + 1.0/3.0*k[i])
		j[i] = round2(3*k[i] - 2*d[i])
	}
	return k, d, j
}

// willR 威廉指标：收盘价在窗口高低区间中的相对位置，取值 [-100, 0]
func willR(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	for i := window - 1; i < n; i++ {
		hi := highs[i-window+1]
		lo := lows[i-window+1]
		for x := i - window + 2; x <= i; x++ {
			if highs[x] > hi {
				hi = highs[x]
			}
			if lows[x] < lo {
				lo = lows[x]
			}
		}
		if hi == lo {
			out[i] = 0
			continue
		}
		out[i] = round2((hi - closes[i]) / (hi - lo) * -100)
	}
	return out
}
