package strategies

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/quantlearn/quantbot/strategy"
)

// Factory 按参数表构造策略实例。参数表中未出现的键保持策略默认值，
// 因此空表即得到默认参数的策略。
type Factory func(params map[string]float64) strategy.Strategy

var registry = map[string]Factory{
	"rsi": func(params map[string]float64) strategy.Strategy {
		s := NewRSI()
		if v, ok := params["period"]; ok {
			s.Period = int(v)
		}
		if v, ok := params["lower"]; ok {
			s.Lower = v
		}
		if v, ok := params["upper"]; ok {
			s.Upper = v
		}
		if v, ok := params["trailing_stop"]; ok {
			s.TrailingStop = v
		}
		return s
	},
	"price-ma": func(params map[string]float64) strategy.Strategy {
		s := NewPriceMA()
		if v, ok := params["period"]; ok {
			s.Period = int(v)
		}
		return s
	},
	"ma-cross": func(params map[string]float64) strategy.Strategy {
		s := NewCrossMA()
		if v, ok := params["fast"]; ok {
			s.FastPeriod = int(v)
		}
		if v, ok := params["slow"]; ok {
			s.SlowPeriod = int(v)
		}
		return s
	},
	"bollinger": func(params map[string]float64) strategy.Strategy {
		s := NewBollinger()
		if v, ok := params["period"]; ok {
			s.Period = int(v)
		}
		if v, ok := params["deviation"]; ok {
			s.Deviation = v
		}
		return s
	},
	"macd": func(params map[string]float64) strategy.Strategy {
		s := NewMACD()
		if v, ok := params["fast"]; ok {
			s.FastPeriod = int(v)
		}
		if v, ok := params["slow"]; ok {
			s.SlowPeriod = int(v)
		}
		if v, ok := params["signal"]; ok {
			s.SignalPeriod = int(v)
		}
		return s
	},
	"mfi": func(params map[string]float64) strategy.Strategy {
		s := NewMFI()
		if v, ok := params["period"]; ok {
			s.Period = int(v)
		}
		if v, ok := params["oversold"]; ok {
			s.Oversold = v
		}
		if v, ok := params["overbought"]; ok {
			s.Overbought = v
		}
		return s
	},
	"volume-breakout": func(params map[string]float64) strategy.Strategy {
		s := NewVolumeBreakout()
		if v, ok := params["volume_period"]; ok {
			s.VolumePeriod = int(v)
		}
		if v, ok := params["volume_mult"]; ok {
			s.VolumeMult = v
		}
		if v, ok := params["trend_period"]; ok {
			s.TrendPeriod = int(v)
		}
		if v, ok := params["exit_bars"]; ok {
			s.ExitBars = int(v)
		}
		return s
	},
	"buy-hold": func(_ map[string]float64) strategy.Strategy {
		return NewBuyHold()
	},
}

// New 按名称与参数表构造策略，名称未注册时返回错误。
func New(name string, params map[string]float64) (strategy.Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %v)", name, Names())
	}
	return factory(params), nil
}

// NewWithTimeframe 构造策略并覆盖其K线周期，timeframe 为空时保留默认值。
func NewWithTimeframe(name, timeframe string, params map[string]float64) (strategy.Strategy, error) {
	str, err := New(name, params)
	if err != nil {
		return nil, err
	}
	if timeframe != "" {
		if setter, ok := str.(interface{ SetTimeframe(string) }); ok {
			setter.SetTimeframe(timeframe)
		}
	}
	return str, nil
}

// Names 返回全部已注册的策略名称，按字母序排列。
func Names() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
