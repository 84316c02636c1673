package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// VolumeBreakout 是放量突破策略：成交量放大到均量的数倍、
// 收盘价突破近期高点且站上 VWAP 与趋势均线时买入；
// 跌破趋势均线或持仓超过 ExitBars 根K线后离场。
type VolumeBreakout struct {
	VolumePeriod    int     // 均量与突破检测窗口，默认 20
	VolumeMult      float64 // 放量倍数阈值，默认 2.0
	TrendPeriod     int     // 趋势EMA周期，默认 50
	ExitBars        int     // 最长持仓K线数，默认 5
	CandleTimeframe string

	barsInPosition map[string]int
}

// NewVolumeBreakout 以 20/2.0/50/5 创建日线放量突破策略。
func NewVolumeBreakout() *VolumeBreakout {
	return &VolumeBreakout{
		VolumePeriod:    20,
		VolumeMult:      2.0,
		TrendPeriod:     50,
		ExitBars:        5,
		CandleTimeframe: "1d",
		barsInPosition:  make(map[string]int),
	}
}

func (v VolumeBreakout) Timeframe() string {
	return v.CandleTimeframe
}

func (v *VolumeBreakout) SetTimeframe(timeframe string) {
	v.CandleTimeframe = timeframe
}

func (v VolumeBreakout) WarmupPeriod() int {
	return v.TrendPeriod * 2
}

func (v VolumeBreakout) Indicators(df *model.Dataframe) {
	df.Metadata["volume_ma"] = indicator.SMA(df.Volume, v.VolumePeriod)
	df.Metadata["trend_ema"] = indicator.EMA(df.Close, v.TrendPeriod)
	df.Metadata["vwap"] = indicator.VWAP(df.High, df.Low, df.Close, df.Volume, v.VolumePeriod)
}

// highestHigh 返回不含当前K线的前 period 根K线最高价。
func (v VolumeBreakout) highestHigh(df *model.Dataframe, period int) float64 {
	highest := 0.0
	for i := 1; i <= period && i < df.High.Length(); i++ {
		if h := df.High.Last(i); h > highest {
			highest = h
		}
	}
	return highest
}

func (v *VolumeBreakout) OnCandle(df *model.Dataframe, broker service.Broker) {
	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)
	volume := df.Volume.Last(0)
	volumeMA := df.Metadata["volume_ma"].Last(0)
	trendEMA := df.Metadata["trend_ema"].Last(0)
	vwap := df.Metadata["vwap"].Last(0)

	hasPosition := assetPosition*closePrice >= minQuotePosition

	if !hasPosition {
		breakout := closePrice > v.highestHigh(df, v.VolumePeriod) &&
			volume > volumeMA*v.VolumeMult &&
			closePrice > trendEMA &&
			closePrice > vwap

		if breakout && quotePosition >= minQuotePosition {
			_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
			if err != nil {
				log.Error(err)
				return
			}
			v.barsInPosition[df.Pair] = 0
		}
		return
	}

	v.barsInPosition[df.Pair]++

	// 趋势破位或持仓超时都离场
	if closePrice < trendEMA || v.barsInPosition[df.Pair] >= v.ExitBars {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
			return
		}
		delete(v.barsInPosition, df.Pair)
	}
}
