package backtest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/xhit/go-str2duration/v2"

	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/storage"
	"github.com/quantlearn/quantbot/strategy"
	"github.com/quantlearn/quantbot/tools/log"
	"github.com/quantlearn/quantbot/tools/metrics"
)

// Engine 驱动一次完整的回测：把数据源的K线按时间顺序回放给
// 策略控制器，经纪商按收盘价撮合，结束后平掉剩余持仓并汇总结果。
type Engine struct {
	settings model.Settings
	feed     service.Feeder
	strategy strategy.Strategy
	storage  storage.Storage
	broker   *Broker

	Results map[string]*Summary
}

// Option 用于定制回测引擎。
type Option func(*Engine)

// WithStorage 指定交易记录的存储后端，默认为内存存储。
func WithStorage(st storage.Storage) Option {
	return func(e *Engine) {
		e.storage = st
	}
}

// WithLogLevel 设置回测期间的日志级别，例如 log.WarnLevel 可以隐藏
// 逐笔成交日志。
func WithLogLevel(level log.Level) Option {
	return func(_ *Engine) {
		log.SetLevel(level)
	}
}

// NewEngine 创建回测引擎。
func NewEngine(settings model.Settings, feed service.Feeder, str strategy.Strategy,
	options ...Option) (*Engine, error) {

	engine := &Engine{
		settings: settings,
		feed:     feed,
		strategy: str,
		Results:  make(map[string]*Summary),
	}

	for _, option := range options {
		option(engine)
	}

	if engine.storage == nil {
		st, err := storage.FromMemory()
		if err != nil {
			return nil, err
		}
		engine.storage = st
	}

	engine.broker = NewBroker(engine.storage, settings)

	return engine, nil
}

// Broker 返回引擎使用的模拟经纪商。
func (e *Engine) Broker() *Broker {
	return e.broker
}

// Run 依次回测每个交易对：订阅K线、驱动策略、记录权益曲线，
// 回放结束后以最后收盘价平仓结算。
func (e *Engine) Run(ctx context.Context) error {
	for _, pair := range e.settings.Pairs {
		if err := e.runPair(ctx, pair); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runPair(ctx context.Context, pair string) error {
	log.Infof("[BACKTEST] running %s strategy for %s", e.strategy.Timeframe(), pair)

	controller := strategy.NewStrategyController(pair, e.strategy, e.broker)
	controller.Start()

	ccandle, cerr := e.feed.CandlesSubscription(ctx, pair, e.strategy.Timeframe())

	equity := make([]float64, 0)
	for {
		select {
		case candle, ok := <-ccandle:
			if !ok {
				return e.finishPair(pair, equity)
			}
			e.broker.OnCandle(candle)
			// 重采样产生的未完成K线只更新行情价，不驱动策略
			if !candle.Complete {
				continue
			}
			controller.OnCandle(candle)
			equity = append(equity, e.broker.Equity(pair))
		case err, ok := <-cerr:
			if ok && err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Engine) finishPair(pair string, equity []float64) error {
	// 回放结束后平掉剩余持仓，让每笔买入都有对应的往返记录
	if err := e.broker.Liquidate(pair); err != nil {
		return err
	}
	if len(equity) > 0 {
		equity[len(equity)-1] = e.broker.Equity(pair)
	}

	e.Results[pair] = &Summary{
		Pair:           pair,
		Trades:         e.broker.Trades(pair),
		Volume:         e.broker.Volume(pair),
		InitialCapital: e.settings.InitialCapital,
		EquityCurve:    equity,
	}

	return nil
}

// periodsPerYear 返回K线周期对应的年化系数：日线按252个交易日，
// 其余周期按全年自然时间折算。
func periodsPerYear(timeframe string) float64 {
	if timeframe == "1d" {
		return metrics.TradingDaysPerYear
	}
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil || interval <= 0 {
		return metrics.TradingDaysPerYear
	}
	return float64(365*24*time.Hour) / float64(interval)
}

// Summary 在标准输出上打印回测报告：各交易对的交易统计表、
// 收益率分布直方图、自助法置信区间与权益曲线绩效。
func (e *Engine) Summary() {
	var (
		total  float64
		wins   int
		loses  int
		volume float64
		sqn    float64
	)

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Pair", "Trades", "Win", "Loss", "% Win", "Payoff", "Pr Fact.", "SQN", "Profit", "Volume"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
	avgPayoff := 0.0
	avgProfitFactor := 0.0

	returns := make([]float64, 0)
	for _, summary := range e.Results {
		trades := len(summary.Trades)
		if trades == 0 {
			continue
		}
		avgPayoff += summary.Payoff() * float64(trades)
		avgProfitFactor += summary.ProfitFactor() * float64(trades)
		table.Append([]string{
			summary.Pair,
			strconv.Itoa(trades),
			strconv.Itoa(len(summary.Win())),
			strconv.Itoa(len(summary.Lose())),
			fmt.Sprintf("%.1f %%", summary.WinPercentage()),
			fmt.Sprintf("%.3f", summary.Payoff()),
			fmt.Sprintf("%.3f", summary.ProfitFactor()),
			fmt.Sprintf("%.1f", summary.SQN()),
			fmt.Sprintf("%.2f", summary.Profit()),
			fmt.Sprintf("%.2f", summary.Volume),
		})

		total += summary.Profit()
		sqn += summary.SQN()
		wins += len(summary.Win())
		loses += len(summary.Lose())
		volume += summary.Volume

		returns = append(returns, summary.WinPercent()...)
		returns = append(returns, summary.LosePercent()...)
	}

	if wins+loses == 0 {
		fmt.Println("no trades executed")
		return
	}

	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(wins + loses),
		strconv.Itoa(wins),
		strconv.Itoa(loses),
		fmt.Sprintf("%.1f %%", float64(wins)/float64(wins+loses)*100),
		fmt.Sprintf("%.3f", avgPayoff/float64(wins+loses)),
		fmt.Sprintf("%.3f", avgProfitFactor/float64(wins+loses)),
		fmt.Sprintf("%.1f", sqn/float64(len(e.Results))),
		fmt.Sprintf("%.2f", total),
		fmt.Sprintf("%.2f", volume),
	})
	table.Render()

	fmt.Println(buffer.String())
	fmt.Println("------ RETURN -------")
	returnsPercent := make([]float64, 0, len(returns))
	for _, p := range returns {
		returnsPercent = append(returnsPercent, p*100)
	}
	hist := histogram.Hist(15, returnsPercent)
	histogram.Fprint(os.Stdout, hist, histogram.Linear(10))
	fmt.Println()

	fmt.Println("------ CONFIDENCE INTERVAL (95%) -------")
	for pair, summary := range e.Results {
		if len(summary.Trades) == 0 {
			continue
		}
		fmt.Printf("| %s |\n", pair)
		returns := append(summary.WinPercent(), summary.LosePercent()...)
		returnsInterval := metrics.Bootstrap(returns, metrics.Mean, 10000, 0.95)
		payoffInterval := metrics.Bootstrap(returns, metrics.Payoff, 10000, 0.95)
		profitFactorInterval := metrics.Bootstrap(returns, metrics.ProfitFactor, 10000, 0.95)
		fmt.Printf("RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
			returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
		fmt.Printf("PAYOFF:      %.2f (%.2f ~ %.2f)\n",
			payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
		fmt.Printf("PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
			profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
	}
	fmt.Println()

	fmt.Println("------ PERFORMANCE -------")
	py := periodsPerYear(e.strategy.Timeframe())
	for pair, summary := range e.Results {
		perf := summary.Performance(py)
		fmt.Printf("| %s |\n", pair)
		fmt.Printf("TOTAL RETURN:  %.2f%%\n", perf.TotalReturn*100)
		fmt.Printf("ANNUAL RETURN: %.2f%%\n", perf.AnnualReturn*100)
		fmt.Printf("ANNUAL VOL:    %.2f%%\n", perf.AnnualVolatility*100)
		fmt.Printf("SHARPE RATIO:  %.2f\n", perf.SharpeRatio)
		fmt.Printf("MAX DRAWDOWN:  %.2f%%\n", perf.MaxDrawdown*100)
	}
	fmt.Println()
}

// SaveReturns 把每个交易对的逐笔收益率保存到目录下的 <pair>.csv 文件。
func (e *Engine) SaveReturns(outputDir string) error {
	for _, summary := range e.Results {
		outputFile := fmt.Sprintf("%s/%s.csv", outputDir, summary.Pair)
		if err := summary.SaveReturns(outputFile); err != nil {
			return err
		}
	}
	return nil
}
