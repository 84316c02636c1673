package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/storage"
)

func newTestBroker(t *testing.T, capital, feeRate float64) *Broker {
	t.Helper()
	st, err := storage.FromMemory()
	require.NoError(t, err)
	return NewBroker(st, model.Settings{
		Pairs:          []string{"BTCUSDT"},
		InitialCapital: capital,
		FeeRate:        feeRate,
	})
}

func candleAt(close float64, ts int64) model.Candle {
	return model.Candle{
		Pair:     "BTCUSDT",
		Time:     time.Unix(ts, 0),
		Open:     close,
		Close:    close,
		High:     close,
		Low:      close,
		Complete: true,
	}
}

func TestBrokerInitialBalance(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)

	asset, quote, err := broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.Zero(t, asset)
	assert.Equal(t, 1000.0, quote)
}

func TestBrokerRoundTrip(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 2)
	require.NoError(t, err)

	asset, quote, err := broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2.0, asset)
	assert.InDelta(t, 799.8, quote, 1e-9) // 1000 - 200 - 0.2手续费

	broker.OnCandle(candleAt(110, 2000))
	trade, err := broker.CreateOrderMarket(model.SideTypeSell, "BTCUSDT", 2)
	require.NoError(t, err)

	// 盈亏 = (110-100)*2 - 买入费0.2 - 卖出费0.22
	assert.InDelta(t, 19.58, trade.Profit, 1e-9)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 110.0, trade.ExitPrice)

	asset, quote, err = broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.Zero(t, asset)
	assert.InDelta(t, 1019.58, quote, 1e-9)

	trades := broker.Trades("BTCUSDT")
	require.Len(t, trades, 1)
	assert.InDelta(t, 420.0, broker.Volume("BTCUSDT"), 1e-9) // 200买 + 220卖
}

func TestBrokerOrderMarketQuote(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, "BTCUSDT", 1000)
	require.NoError(t, err)

	// 成本加手续费不超过给定金额，余额几乎清零
	asset, quote, err := broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/1.001/100.0, asset, 1e-9)
	assert.InDelta(t, 0.0, quote, 1e-6)
}

func TestBrokerInsufficientFunds(t *testing.T) {
	broker := newTestBroker(t, 100, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 2)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestBrokerSellWithoutPosition(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeSell, "BTCUSDT", 1)
	assert.ErrorIs(t, err, ErrNoOpenPosition)
}

func TestBrokerInvalidQuantity(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestBrokerPartialClose(t *testing.T) {
	broker := newTestBroker(t, 1000, 0.001)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 2)
	require.NoError(t, err)

	broker.OnCandle(candleAt(110, 2000))
	trade, err := broker.CreateOrderMarket(model.SideTypeSell, "BTCUSDT", 1)
	require.NoError(t, err)

	// 部分平仓：入场费按数量比例分摊一半（0.1），加上卖出费 0.11
	assert.InDelta(t, (110-100)*1-0.1-0.11, trade.Profit, 1e-9)
	assert.Equal(t, 1.0, trade.Quantity)

	// 剩余持仓还有 1 个
	asset, _, err := broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, asset)
}

func TestBrokerAveragedEntry(t *testing.T) {
	broker := newTestBroker(t, 10000, 0)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 1)
	require.NoError(t, err)

	broker.OnCandle(candleAt(120, 2000))
	_, err = broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 1)
	require.NoError(t, err)

	broker.OnCandle(candleAt(130, 3000))
	trade, err := broker.CreateOrderMarket(model.SideTypeSell, "BTCUSDT", 2)
	require.NoError(t, err)

	// 加仓后入场价加权平均为 110
	assert.InDelta(t, 110.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, (130-110)*2, trade.Profit, 1e-9)
}

func TestBrokerLiquidate(t *testing.T) {
	broker := newTestBroker(t, 1000, 0)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 5)
	require.NoError(t, err)

	broker.OnCandle(candleAt(120, 2000))
	require.NoError(t, broker.Liquidate("BTCUSDT"))

	asset, quote, err := broker.Position("BTCUSDT")
	require.NoError(t, err)
	assert.Zero(t, asset)
	assert.InDelta(t, 1100.0, quote, 1e-9)

	// 没有持仓时再次平仓不报错
	require.NoError(t, broker.Liquidate("BTCUSDT"))
}

func TestBrokerEquity(t *testing.T) {
	broker := newTestBroker(t, 1000, 0)
	broker.OnCandle(candleAt(100, 1000))

	_, err := broker.CreateOrderMarket(model.SideTypeBuy, "BTCUSDT", 5)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, broker.Equity("BTCUSDT"), 1e-9)

	// 价格上涨，权益跟随持仓市值上升
	broker.OnCandle(candleAt(120, 2000))
	assert.InDelta(t, 1100.0, broker.Equity("BTCUSDT"), 1e-9)
}
