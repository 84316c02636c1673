package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = float64(100 + i)
		down[i] = float64(100 - i)
	}

	rsiUp := RSI(up, 14)
	rsiDown := RSI(down, 14)
	require.Len(t, rsiUp, 30)

	// 连续上涨时 RSI 接近 100，连续下跌时接近 0
	assert.Greater(t, rsiUp[len(rsiUp)-1], 90.0)
	assert.Less(t, rsiDown[len(rsiDown)-1], 10.0)

	for i := 14; i < len(rsiUp); i++ {
		assert.GreaterOrEqual(t, rsiUp[i], 0.0)
		assert.LessOrEqual(t, rsiUp[i], 100.0)
	}
}

func TestSMA(t *testing.T) {
	values := SMA([]float64{1, 2, 3, 4, 5}, 2)
	require.Len(t, values, 5)
	assert.Equal(t, 0.0, values[0])
	assert.InDelta(t, 1.5, values[1], 1e-9)
	assert.InDelta(t, 4.5, values[4], 1e-9)
}

func TestEMAFollowsTrend(t *testing.T) {
	input := make([]float64, 50)
	for i := range input {
		input[i] = float64(i + 1)
	}

	ema := EMA(input, 10)
	sma := SMA(input, 10)

	// 上升趋势中 EMA 比 SMA 更贴近最新价
	last := len(input) - 1
	assert.Greater(t, ema[last], sma[last])
	assert.Less(t, ema[last], input[last])
}

func TestMAType(t *testing.T) {
	input := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, SMA(input, 3), MA(input, 3, TypeSMA))
	assert.Equal(t, EMA(input, 3), MA(input, 3, TypeEMA))
	assert.Equal(t, WMA(input, 3), MA(input, 3, TypeWMA))
}

func TestBB(t *testing.T) {
	input := []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 12, 11, 10, 11, 12, 13, 14, 13, 12, 11, 10, 11, 12, 13}

	upper, mid, lower := BB(input, 20, 2.0, TypeSMA)
	require.Len(t, upper, len(input))

	for i := 20; i < len(input); i++ {
		assert.GreaterOrEqual(t, upper[i], mid[i])
		assert.GreaterOrEqual(t, mid[i], lower[i])
	}
}

func TestMACD(t *testing.T) {
	input := make([]float64, 100)
	for i := range input {
		input[i] = 100 + float64(i%10)
	}

	macd, signal, hist := MACD(input, 12, 26, 9)
	require.Len(t, macd, len(input))

	// 柱状图等于 MACD 线与信号线之差
	for i := 40; i < len(input); i++ {
		assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-9)
	}
}

func TestMFI(t *testing.T) {
	size := 40
	high := make([]float64, size)
	low := make([]float64, size)
	close := make([]float64, size)
	volume := make([]float64, size)
	for i := 0; i < size; i++ {
		base := 100 + float64(i%7)
		high[i] = base + 1
		low[i] = base - 1
		close[i] = base
		volume[i] = 1000
	}

	mfi := MFI(high, low, close, volume, 14)
	require.Len(t, mfi, size)
	for i := 15; i < size; i++ {
		assert.GreaterOrEqual(t, mfi[i], 0.0)
		assert.LessOrEqual(t, mfi[i], 100.0)
	}
}
