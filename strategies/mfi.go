package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// MFI 是资金流量指标策略，可以看作带成交量确认的 RSI：
// MFI 低于超卖阈值买入，高于超买阈值卖出。
type MFI struct {
	Period          int     // MFI 周期，默认 14
	Oversold        float64 // 超卖阈值，默认 20
	Overbought      float64 // 超买阈值，默认 80
	CandleTimeframe string
}

// NewMFI 以 14/20/80 创建日线 MFI 策略。
func NewMFI() *MFI {
	return &MFI{
		Period:          14,
		Oversold:        20,
		Overbought:      80,
		CandleTimeframe: "1d",
	}
}

func (m MFI) Timeframe() string {
	return m.CandleTimeframe
}

func (m *MFI) SetTimeframe(timeframe string) {
	m.CandleTimeframe = timeframe
}

func (m MFI) WarmupPeriod() int {
	return m.Period * 4
}

func (m MFI) Indicators(df *model.Dataframe) {
	df.Metadata["mfi"] = indicator.MFI(df.High, df.Low, df.Close, df.Volume, m.Period)
	// OBV 作为参考序列一并计算，便于报告与图表外工具分析资金流向
	df.Metadata["obv"] = indicator.OBV(df.Close, df.Volume)
}

func (m *MFI) OnCandle(df *model.Dataframe, broker service.Broker) {
	mfi := df.Metadata["mfi"].Last(0)

	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)

	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition && mfi < m.Oversold {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
		return
	}

	if assetPosition > 0 && mfi > m.Overbought {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
		}
	}
}
