// Package strategies 提供若干内置交易策略，均为单仓位多头策略：
// 空仓时等待买入信号，持仓时等待卖出信号。
package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools"
	"github.com/quantlearn/quantbot/tools/log"
)

// minQuotePosition 是视为"有可用资金"的最小报价资产余额，
// 避免余额尾数反复触发买入。
const minQuotePosition = 10.0

// RSI 是基于相对强弱指数的超买超卖策略：
// 空仓时 RSI 低于下限（超卖）买入，持仓时 RSI 高于上限（超买）卖出。
// TrailingStop 大于 0 时启用追踪止损，按入场价的比例设置初始止损距离。
type RSI struct {
	Period          int     // RSI 周期，默认 14
	Lower           float64 // 超卖阈值，默认 30
	Upper           float64 // 超买阈值，默认 70
	TrailingStop    float64 // 追踪止损比例，如 0.05；0 表示关闭
	CandleTimeframe string

	trailing map[string]*tools.TrailingStop
}

// NewRSI 以经典参数 14/30/70 创建日线 RSI 策略。
func NewRSI() *RSI {
	return &RSI{
		Period:          14,
		Lower:           30,
		Upper:           70,
		CandleTimeframe: "1d",
		trailing:        make(map[string]*tools.TrailingStop),
	}
}

func (r RSI) Timeframe() string {
	return r.CandleTimeframe
}

// SetTimeframe 覆盖策略使用的K线周期。
func (r *RSI) SetTimeframe(timeframe string) {
	r.CandleTimeframe = timeframe
}

// WarmupPeriod 取 RSI 周期的4倍，让 Wilder 平滑在窗口内收敛。
func (r RSI) WarmupPeriod() int {
	return r.Period * 4
}

func (r RSI) Indicators(df *model.Dataframe) {
	df.Metadata["rsi"] = indicator.RSI(df.Close, r.Period)
}

func (r *RSI) OnCandle(df *model.Dataframe, broker service.Broker) {
	rsi := df.Metadata["rsi"].Last(0)

	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)

	// 空仓且超卖：全部资金买入
	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition && rsi < r.Lower {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
			return
		}

		if r.TrailingStop > 0 {
			if r.trailing[df.Pair] == nil {
				r.trailing[df.Pair] = tools.NewTrailingStop()
			}
			r.trailing[df.Pair].Start(closePrice, closePrice*(1-r.TrailingStop))
		}
		return
	}

	if assetPosition <= 0 {
		return
	}

	// 持仓且超买：全部卖出
	if rsi > r.Upper {
		r.sellAll(df, broker, assetPosition)
		return
	}

	// 追踪止损触发时也卖出
	if trailing := r.trailing[df.Pair]; trailing != nil && trailing.Update(closePrice) {
		r.sellAll(df, broker, assetPosition)
	}
}

func (r *RSI) sellAll(df *model.Dataframe, broker service.Broker, assetPosition float64) {
	_, err := broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
	if err != nil {
		log.Error(err)
		return
	}
	if trailing := r.trailing[df.Pair]; trailing != nil {
		trailing.Stop()
	}
}
