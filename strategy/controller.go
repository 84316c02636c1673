package strategy

import (
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// Controller 驱动单个交易对上的策略运行：维护K线数据帧、
// 在每根K线收盘后计算指标并调用策略逻辑。
type Controller struct {
	strategy  Strategy
	dataframe *model.Dataframe
	broker    service.Broker
	started   bool
}

// NewStrategyController 创建一个策略控制器。
func NewStrategyController(pair string, strategy Strategy, broker service.Broker) *Controller {
	dataframe := &model.Dataframe{
		Pair:     pair,
		Metadata: make(map[string]model.Series[float64]),
	}

	return &Controller{
		dataframe: dataframe,
		strategy:  strategy,
		broker:    broker,
	}
}

// Start 启动控制器。启动之前收到的K线只用于积累数据帧（预热），
// 不会触发策略的买卖逻辑。
func (s *Controller) Start() {
	s.started = true
}

// updateDataFrame 把一根K线并入数据帧：时间戳与最后一条相同则原地更新，
// 否则追加为新记录。
func (s *Controller) updateDataFrame(candle model.Candle) {
	if len(s.dataframe.Time) > 0 && candle.Time.Equal(s.dataframe.Time[len(s.dataframe.Time)-1]) {
		last := len(s.dataframe.Time) - 1
		s.dataframe.Close[last] = candle.Close
		s.dataframe.Open[last] = candle.Open
		s.dataframe.High[last] = candle.High
		s.dataframe.Low[last] = candle.Low
		s.dataframe.Volume[last] = candle.Volume
		s.dataframe.Time[last] = candle.Time
		for k, v := range candle.Metadata {
			s.dataframe.Metadata[k][last] = v
		}
	} else {
		s.dataframe.Close = append(s.dataframe.Close, candle.Close)
		s.dataframe.Open = append(s.dataframe.Open, candle.Open)
		s.dataframe.High = append(s.dataframe.High, candle.High)
		s.dataframe.Low = append(s.dataframe.Low, candle.Low)
		s.dataframe.Volume = append(s.dataframe.Volume, candle.Volume)
		s.dataframe.Time = append(s.dataframe.Time, candle.Time)
		s.dataframe.LastUpdate = candle.Time
		for k, v := range candle.Metadata {
			s.dataframe.Metadata[k] = append(s.dataframe.Metadata[k], v)
		}
	}
}

// OnCandle 在每根K线收盘后调用：并入数据帧，预热完成后计算指标
// 并执行策略逻辑。时间戳早于数据帧末尾的K线视为乱序数据，记错误日志后丢弃。
func (s *Controller) OnCandle(candle model.Candle) {
	if len(s.dataframe.Time) > 0 && candle.Time.Before(s.dataframe.Time[len(s.dataframe.Time)-1]) {
		log.Errorf("late candle received: %#v", candle)
		return
	}

	s.updateDataFrame(candle)

	if len(s.dataframe.Close) >= s.strategy.WarmupPeriod() {
		// 只取预热期长度的样本，指标每根K线在样本上重算
		sample := s.dataframe.Sample(s.strategy.WarmupPeriod())
		s.strategy.Indicators(&sample)
		if s.started {
			s.strategy.OnCandle(&sample, s.broker)
		}
	}
}
