package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// MACD 是趋势跟踪策略：MACD 线上穿信号线买入，下穿信号线卖出。
type MACD struct {
	FastPeriod      int // 快速EMA周期，默认 12
	SlowPeriod      int // 慢速EMA周期，默认 26
	SignalPeriod    int // 信号线EMA周期，默认 9
	CandleTimeframe string
}

// NewMACD 以经典参数 12/26/9 创建日线 MACD 策略。
func NewMACD() *MACD {
	return &MACD{
		FastPeriod:      12,
		SlowPeriod:      26,
		SignalPeriod:    9,
		CandleTimeframe: "1d",
	}
}

func (m MACD) Timeframe() string {
	return m.CandleTimeframe
}

func (m *MACD) SetTimeframe(timeframe string) {
	m.CandleTimeframe = timeframe
}

// WarmupPeriod 取慢线加信号线周期的3倍，让EMA在窗口内收敛。
func (m MACD) WarmupPeriod() int {
	return (m.SlowPeriod + m.SignalPeriod) * 3
}

func (m MACD) Indicators(df *model.Dataframe) {
	macd, signal, hist := indicator.MACD(df.Close, m.FastPeriod, m.SlowPeriod, m.SignalPeriod)
	df.Metadata["macd"] = macd
	df.Metadata["macd_signal"] = signal
	df.Metadata["macd_hist"] = hist
}

func (m *MACD) OnCandle(df *model.Dataframe, broker service.Broker) {
	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)

	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition &&
		df.Metadata["macd"].Crossover(df.Metadata["macd_signal"]) {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
		return
	}

	if assetPosition > 0 &&
		df.Metadata["macd"].Crossunder(df.Metadata["macd_signal"]) {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
		}
	}
}
