// Package metrics 提供回测结果的统计分析：自助法置信区间与绩效指标。
package metrics

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// BootstrapInterval 保存自助法估算出的置信区间：
// Mean 为重抽样统计量的均值，StdDev 为其标准偏差，
// Lower/Upper 为给定置信度下真实统计量很可能落入的区间上下界。
// 例如 confidence=0.95 时，可以有 95% 的把握认为真实的平均收益率
// 落在 [Lower, Upper] 之间。
type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap 用自助法（有放回重抽样）估算统计量的置信区间。
// 交易笔数通常很少且收益分布未知，自助法在这种小样本场景下
// 比正态近似更可靠。流程：从 values 中有放回地抽取与原数据等长的样本，
// 重复 sampleSize 次，对每个样本计算 measure 统计量（如均值、盈亏比），
// 再对全部统计量排序取分位数得到区间。
func Bootstrap(values []float64, measure func([]float64) float64, sampleSize int,
	confidence float64) BootstrapInterval {
	var data []float64

	for i := 0; i < sampleSize; i++ {
		samples := make([]float64, len(values))
		for j := 0; j < len(values); j++ {
			samples[j] = lo.Sample(values)
		}
		data = append(data, measure(samples))
	}

	// tail 为落在区间之外的概率，confidence=0.95 时两侧各留 2.5%
	tail := 1 - confidence
	sort.Float64s(data)
	mean, stdDev := stat.MeanStdDev(data, nil)
	upper := stat.Quantile(1-tail/2, stat.LinInterp, data, nil)
	lower := stat.Quantile(tail/2, stat.LinInterp, data, nil)

	return BootstrapInterval{
		Lower:  lower,
		Upper:  upper,
		StdDev: stdDev,
		Mean:   mean,
	}
}

// Mean 返回一组数值的算术平均，常用作 Bootstrap 的统计量。
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// Payoff 返回盈亏比：平均盈利与平均亏损绝对值之比。
// 没有亏损交易时返回 0，避免除零。
func Payoff(values []float64) float64 {
	var wins, losses []float64
	for _, v := range values {
		if v >= 0 {
			wins = append(wins, v)
		} else {
			losses = append(losses, v)
		}
	}

	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return 0
	}

	return stat.Mean(wins, nil) / -avgLoss
}

// ProfitFactor 返回利润因子：总盈利与总亏损绝对值之比。
// 大于 1 说明策略整体盈利；没有亏损交易时返回 0。
func ProfitFactor(values []float64) float64 {
	var grossProfit, grossLoss float64
	for _, v := range values {
		if v >= 0 {
			grossProfit += v
		} else {
			grossLoss += v
		}
	}

	if grossLoss == 0 {
		return 0
	}

	return grossProfit / -grossLoss
}
