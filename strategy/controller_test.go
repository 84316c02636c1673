package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
)

// spyStrategy 记录回调次数与收到的样本长度。
type spyStrategy struct {
	warmup         int
	indicatorCalls int
	onCandleCalls  int
	lastSampleSize int
}

func (s spyStrategy) Timeframe() string { return "1h" }
func (s spyStrategy) WarmupPeriod() int { return s.warmup }

func (s *spyStrategy) Indicators(df *model.Dataframe) {
	s.indicatorCalls++
	s.lastSampleSize = df.Close.Length()
}

func (s *spyStrategy) OnCandle(_ *model.Dataframe, _ service.Broker) {
	s.onCandleCalls++
}

func candle(ts int64, close float64) model.Candle {
	return model.Candle{
		Pair:     "BTCUSDT",
		Time:     time.Unix(ts, 0),
		Open:     close,
		Close:    close,
		High:     close + 1,
		Low:      close - 1,
		Volume:   100,
		Complete: true,
	}
}

func TestControllerWarmup(t *testing.T) {
	spy := &spyStrategy{warmup: 3}
	controller := NewStrategyController("BTCUSDT", spy, nil)
	controller.Start()

	controller.OnCandle(candle(1000, 100))
	controller.OnCandle(candle(2000, 101))
	assert.Zero(t, spy.onCandleCalls)

	controller.OnCandle(candle(3000, 102))
	assert.Equal(t, 1, spy.onCandleCalls)

	controller.OnCandle(candle(4000, 103))
	assert.Equal(t, 2, spy.onCandleCalls)

	// 策略只看到预热期长度的样本
	assert.Equal(t, 3, spy.lastSampleSize)
}

func TestControllerNotStarted(t *testing.T) {
	spy := &spyStrategy{warmup: 1}
	controller := NewStrategyController("BTCUSDT", spy, nil)

	controller.OnCandle(candle(1000, 100))

	// 未启动时只计算指标，不触发交易逻辑
	assert.Equal(t, 1, spy.indicatorCalls)
	assert.Zero(t, spy.onCandleCalls)
}

func TestControllerUpdateSameTimestamp(t *testing.T) {
	spy := &spyStrategy{warmup: 10}
	controller := NewStrategyController("BTCUSDT", spy, nil)

	controller.OnCandle(candle(1000, 100))
	controller.OnCandle(candle(1000, 105))

	require.Equal(t, 1, controller.dataframe.Close.Length())
	assert.Equal(t, 105.0, controller.dataframe.Close.Last(0))
}

func TestControllerDropsLateCandle(t *testing.T) {
	spy := &spyStrategy{warmup: 10}
	controller := NewStrategyController("BTCUSDT", spy, nil)

	controller.OnCandle(candle(2000, 100))
	controller.OnCandle(candle(1000, 90))

	require.Equal(t, 1, controller.dataframe.Close.Length())
	assert.Equal(t, 100.0, controller.dataframe.Close.Last(0))
}
