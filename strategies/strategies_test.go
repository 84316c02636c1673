package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlearn/quantbot/model"
)

// fakeBroker 记录策略下的订单并维护简单的持仓状态。
type fakeBroker struct {
	asset     float64
	quote     float64
	lastClose float64

	buys  int
	sells int
}

func (f *fakeBroker) Account() (model.Account, error) {
	return model.Account{}, nil
}

func (f *fakeBroker) Position(_ string) (asset, quote float64, err error) {
	return f.asset, f.quote, nil
}

func (f *fakeBroker) CreateOrderMarket(side model.SideType, _ string, size float64) (model.Trade, error) {
	if side == model.SideTypeBuy {
		f.buys++
		f.asset += size
		f.quote -= size * f.lastClose
	} else {
		f.sells++
		f.asset -= size
		f.quote += size * f.lastClose
	}
	return model.Trade{}, nil
}

func (f *fakeBroker) CreateOrderMarketQuote(side model.SideType, pair string, quote float64) (model.Trade, error) {
	return f.CreateOrderMarket(side, pair, quote/f.lastClose)
}

func dataframeWith(closes []float64, metadata map[string]model.Series[float64]) *model.Dataframe {
	df := &model.Dataframe{
		Pair:     "BTCUSDT",
		Metadata: metadata,
	}
	for i, c := range closes {
		df.Close = append(df.Close, c)
		df.Open = append(df.Open, c)
		df.High = append(df.High, c+1)
		df.Low = append(df.Low, c-1)
		df.Volume = append(df.Volume, 100)
		df.Time = append(df.Time, time.Unix(int64(i)*3600, 0))
	}
	return df
}

func TestRSIBuySignal(t *testing.T) {
	strategy := NewRSI()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"rsi": {50, 25},
	})

	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.buys)
	assert.Zero(t, broker.sells)
	assert.InDelta(t, 10.0, broker.asset, 1e-9)
}

func TestRSINoSignal(t *testing.T) {
	strategy := NewRSI()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"rsi": {50, 50},
	})

	strategy.OnCandle(df, broker)
	assert.Zero(t, broker.buys)
	assert.Zero(t, broker.sells)
}

func TestRSISellSignal(t *testing.T) {
	strategy := NewRSI()
	broker := &fakeBroker{asset: 5, quote: 0, lastClose: 100}

	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"rsi": {50, 80},
	})

	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
	assert.Zero(t, broker.asset)
}

func TestRSITrailingStop(t *testing.T) {
	strategy := NewRSI()
	strategy.TrailingStop = 0.05
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	// 超卖买入并激活追踪止损
	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"rsi": {50, 25},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	// 上涨后回落超过 5%，触发止损卖出
	df = dataframeWith([]float64{100, 120}, map[string]model.Series[float64]{
		"rsi": {50, 50},
	})
	strategy.OnCandle(df, broker)
	assert.Zero(t, broker.sells)

	df = dataframeWith([]float64{120, 113}, map[string]model.Series[float64]{
		"rsi": {50, 50},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestPriceMASignals(t *testing.T) {
	strategy := NewPriceMA()
	broker := &fakeBroker{quote: 1000, lastClose: 103}

	// 收盘价上穿均线：买入
	df := dataframeWith([]float64{99, 103}, map[string]model.Series[float64]{
		"ma": {100, 100},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	// 收盘价下穿均线：卖出
	broker.lastClose = 97
	df = dataframeWith([]float64{103, 97}, map[string]model.Series[float64]{
		"ma": {100, 100},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestCrossMASignals(t *testing.T) {
	strategy := NewCrossMA()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	// 快线上穿慢线：买入
	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"ma_fast": {99, 101},
		"ma_slow": {100, 100},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	// 快线下穿慢线：卖出
	df = dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"ma_fast": {101, 99},
		"ma_slow": {100, 100},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestBollingerSignals(t *testing.T) {
	strategy := NewBollinger()
	broker := &fakeBroker{quote: 1000, lastClose: 90}

	// 收盘价触及下轨：买入
	df := dataframeWith([]float64{95, 90}, map[string]model.Series[float64]{
		"bb_upper": {110, 110},
		"bb_mid":   {100, 100},
		"bb_lower": {90, 90},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	// 收盘价回到中轨上方且 %B 超过 0.8：卖出
	broker.lastClose = 107
	df = dataframeWith([]float64{100, 107}, map[string]model.Series[float64]{
		"bb_upper": {110, 110},
		"bb_mid":   {100, 100},
		"bb_lower": {90, 90},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestMACDSignals(t *testing.T) {
	strategy := NewMACD()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"macd":        {-1, 1},
		"macd_signal": {0, 0},
		"macd_hist":   {-1, 1},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	df = dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"macd":        {1, -1},
		"macd_signal": {0, 0},
		"macd_hist":   {1, -1},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestMFISignals(t *testing.T) {
	strategy := NewMFI()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	df := dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"mfi": {50, 15},
		"obv": {0, 100},
	})
	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	df = dataframeWith([]float64{100, 100}, map[string]model.Series[float64]{
		"mfi": {50, 85},
		"obv": {100, 200},
	})
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestVolumeBreakoutEntry(t *testing.T) {
	strategy := NewVolumeBreakout()
	broker := &fakeBroker{quote: 1000, lastClose: 120}

	closes := []float64{100, 101, 102, 103, 120}
	df := dataframeWith(closes, map[string]model.Series[float64]{
		"volume_ma": {100, 100, 100, 100, 100},
		"trend_ema": {100, 100, 100, 100, 105},
		"vwap":      {100, 100, 100, 100, 104},
	})
	// 末根K线放量
	df.Volume[len(df.Volume)-1] = 500
	// 最高价不含当前K线，当前收盘 120 突破前高

	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.buys)
}

func TestVolumeBreakoutTimeExit(t *testing.T) {
	strategy := NewVolumeBreakout()
	strategy.ExitBars = 2
	broker := &fakeBroker{asset: 5, lastClose: 120}

	df := dataframeWith([]float64{119, 120}, map[string]model.Series[float64]{
		"volume_ma": {100, 100},
		"trend_ema": {100, 100},
		"vwap":      {100, 100},
	})

	// 价格仍在趋势线上方，第一根K线不离场
	strategy.OnCandle(df, broker)
	assert.Zero(t, broker.sells)

	// 持仓达到 ExitBars 根后离场
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.sells)
}

func TestBuyHoldBuysOnce(t *testing.T) {
	strategy := NewBuyHold()
	broker := &fakeBroker{quote: 1000, lastClose: 100}

	df := dataframeWith([]float64{100}, nil)

	strategy.OnCandle(df, broker)
	require.Equal(t, 1, broker.buys)

	// 已有持仓后不再加仓
	strategy.OnCandle(df, broker)
	assert.Equal(t, 1, broker.buys)
}
