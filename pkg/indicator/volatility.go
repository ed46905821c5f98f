package indicator

import "math"

// atr 平均真实波幅，Wilder 平滑。
// 首个输出为前 window 个真实波幅的算术平均，之后递归平滑。
func atr(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < window+1 {
		return out
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 1; i <= window; i++ {
		sum += tr[i]
	}
	prev := sum / float64(window)
	out[window] = round2(prev)
	for i := window + 1; i < n; i++ {
		prev = (prev*float64(window-1) + tr[i]) / float64(window)
		out[i] = round2(prev)
	}
	return out
}

// sar 抛物线转向。初始趋势由前两根K线的中价决定，
// 加速因子从 accel 起步，每创新高/新低递增，封顶 maxAccel。
func sar(highs, lows []float64, accel, maxAccel float64) []float64 {
	n := len(highs)
	out := nanSlice(n)
	if n < 2 {
		return out
	}

	up := highs[1]+lows[1] >= highs[0]+lows[0]
	af := accel
	var cur, ep float64
	if up {
		cur = lows[0]
		ep = highs[1]
	} else {
		cur = highs[0]
		ep = lows[1]
	}
	out[1] = round2(cur)

	for i := 2; i < n; i++ {
		next := cur + af*(ep-cur)
		if up {
			// SAR 不得高于最近两根K线的最低价
			next = math.Min(next, math.Min(lows[i-1], lows[i-2]))
			if lows[i] < next {
				up = false
				next = ep
				ep = lows[i]
				af = accel
			} else if highs[i] > ep {
				ep = highs[i]
				af = math.Min(af+accel, maxAccel)
			}
		} else {
			next = math.Max(next, math.Max(highs[i-1], highs[i-2]))
			if highs[i] > next {
				up = true
				next = ep
				ep = highs[i]
				af = accel
			} else if lows[i] < ep {
				ep = lows[i]
				af = math.Min(af+accel, maxAccel)
			}
		}
		cur = next
		out[i] = round2(cur)
	}
	return out
}
