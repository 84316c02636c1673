// Package optimize 实现策略参数的网格搜索：穷举每一种参数组合，
// 各自跑一遍完整回测，再按指定指标排序挑出表现最好的参数。
package optimize

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/quantlearn/quantbot/backtest"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/strategies"
	"github.com/quantlearn/quantbot/tools/log"
)

// 可选的排序指标
const (
	MetricProfit  = "profit"
	MetricSQN     = "sqn"
	MetricWinRate = "win-rate"
)

// Param 描述网格中的一个维度：参数名与候选取值。
type Param struct {
	Name   string
	Values []float64
}

// Result 是一种参数组合跑完回测后的成绩单。
type Result struct {
	Params  map[string]float64
	Profit  float64
	SQN     float64
	WinRate float64
	Trades  int
}

// Score 返回该结果在指定指标下的得分，用于排序。
func (r Result) Score(metric string) float64 {
	switch metric {
	case MetricSQN:
		return r.SQN
	case MetricWinRate:
		return r.WinRate
	default:
		return r.Profit
	}
}

// Optimizer 对一个策略执行网格搜索。数据源通过工厂函数提供，
// 因为每次回测都会消费一份独立的K线回放。
type Optimizer struct {
	settings     model.Settings
	strategyName string
	params       []Param
	newFeed      func() (service.Feeder, error)

	workers int
	metric  string
}

// Option 用于定制优化器。
type Option func(*Optimizer)

// WithWorkers 设置并发回测的协程数，默认 4。
func WithWorkers(workers int) Option {
	return func(o *Optimizer) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// WithMetric 设置排序指标，可选 profit、sqn、win-rate，默认 profit。
func WithMetric(metric string) Option {
	return func(o *Optimizer) {
		o.metric = metric
	}
}

// NewOptimizer 创建网格搜索优化器。
func NewOptimizer(settings model.Settings, strategyName string, params []Param,
	newFeed func() (service.Feeder, error), options ...Option) (*Optimizer, error) {

	// 提前校验策略名，避免跑到一半才报错
	if _, err := strategies.New(strategyName, nil); err != nil {
		return nil, err
	}

	if len(params) == 0 {
		return nil, fmt.Errorf("no parameters to optimize")
	}

	optimizer := &Optimizer{
		settings:     settings,
		strategyName: strategyName,
		params:       params,
		newFeed:      newFeed,
		workers:      4,
		metric:       MetricProfit,
	}

	for _, option := range options {
		option(optimizer)
	}

	return optimizer, nil
}

// combinations 生成全部参数组合的笛卡尔积。
func (o *Optimizer) combinations() []map[string]float64 {
	combos := []map[string]float64{{}}
	for _, param := range o.params {
		next := make([]map[string]float64, 0, len(combos)*len(param.Values))
		for _, combo := range combos {
			for _, value := range param.Values {
				merged := make(map[string]float64, len(combo)+1)
				for k, v := range combo {
					merged[k] = v
				}
				merged[param.Name] = value
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}

// runOne 用一种参数组合跑一遍回测，汇总全部交易对的结果。
func (o *Optimizer) runOne(ctx context.Context, params map[string]float64) (Result, error) {
	str, err := strategies.New(o.strategyName, params)
	if err != nil {
		return Result{}, err
	}

	feed, err := o.newFeed()
	if err != nil {
		return Result{}, err
	}

	engine, err := backtest.NewEngine(o.settings, feed, str)
	if err != nil {
		return Result{}, err
	}

	if err := engine.Run(ctx); err != nil {
		return Result{}, err
	}

	result := Result{Params: params}
	wins, total := 0, 0
	for _, summary := range engine.Results {
		result.Profit += summary.Profit()
		result.SQN += summary.SQN()
		wins += len(summary.Win())
		total += len(summary.Trades)
	}
	result.Trades = total
	if total > 0 {
		result.WinRate = float64(wins) / float64(total) * 100
	}

	return result, nil
}

// Run 并发执行全部参数组合的回测，返回按指标从高到低排序的结果。
func (o *Optimizer) Run(ctx context.Context) ([]Result, error) {
	combos := o.combinations()
	log.Infof("[OPTIMIZE] %s strategy, %d combinations, %d workers",
		o.strategyName, len(combos), o.workers)

	// 优化期间只保留警告以上的日志，否则逐笔成交会刷屏
	log.SetLevel(log.WarnLevel)
	defer log.SetLevel(log.InfoLevel)

	var (
		mutex    sync.Mutex
		wg       sync.WaitGroup
		results  = make([]Result, 0, len(combos))
		firstErr error
	)

	jobs := make(chan map[string]float64)
	bar := progressbar.Default(int64(len(combos)))

	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				result, err := o.runOne(ctx, params)
				mutex.Lock()
				if err != nil {
					// 单个组合失败只跳过，不中断整个搜索
					log.Warnf("[OPTIMIZE] combination %v failed: %v", params, err)
					if firstErr == nil {
						firstErr = err
					}
				} else {
					results = append(results, result)
				}
				mutex.Unlock()
				_ = bar.Add(1)
			}
		}()
	}

	for _, combo := range combos {
		select {
		case jobs <- combo:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if len(results) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score(o.metric) > results[j].Score(o.metric)
	})

	return results, nil
}

// Report 以表格形式打印排名前 top 的参数组合。
func (o *Optimizer) Report(results []Result, top int) {
	if top > len(results) {
		top = len(results)
	}

	names := make([]string, 0, len(o.params))
	for _, param := range o.params {
		names = append(names, param.Name)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(append(append([]string{"#"}, names...),
		"Trades", "% Win", "SQN", "Profit"))

	for i := 0; i < top; i++ {
		result := results[i]
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%g", result.Params[name]))
		}
		row = append(row,
			strconv.Itoa(result.Trades),
			fmt.Sprintf("%.1f %%", result.WinRate),
			fmt.Sprintf("%.1f", result.SQN),
			fmt.Sprintf("%.2f", result.Profit),
		)
		table.Append(row)
	}
	table.Render()
}
