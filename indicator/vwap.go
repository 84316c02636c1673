package indicator

// VWAP 计算滚动成交量加权平均价（Volume Weighted Average Price）。
// 典型价格取 (最高+最低+收盘)/3，再以最近 period 根K线的成交量加权平均：
// VWAP = Σ(典型价格×成交量) / Σ(成交量)。
// go-talib 未提供 VWAP，这里手工实现。前 period-1 个位置为 0（数据不足），
// 窗口内成交量合计为 0 时该位置也返回 0。
// 价格高于 VWAP 说明当前买方以高于市场平均成本的价格成交，市场偏强；
// 低于 VWAP 则偏弱。机构交易常以 VWAP 作为执行成本的基准。
func VWAP(high, low, close, volume []float64, period int) []float64 {
	vwap := make([]float64, len(close))
	if period <= 0 || len(close) < period {
		return vwap
	}

	for i := period - 1; i < len(close); i++ {
		var sumPV, sumV float64
		for j := i - period + 1; j <= i; j++ {
			typical := (high[j] + low[j] + close[j]) / 3.0
			sumPV += typical * volume[j]
			sumV += volume[j]
		}
		if sumV > 0 {
			vwap[i] = sumPV / sumV
		}
	}

	return vwap
}
