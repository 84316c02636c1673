package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear 是年化换算用的交易日数量。
const TradingDaysPerYear = 252

// Performance 汇总一条权益曲线的绩效指标。
// 收益率与波动率均为小数（0.25 表示 25%）。
type Performance struct {
	TotalReturn      float64 // 区间累计收益率
	AnnualReturn     float64 // 年化收益率（复利）
	AnnualVolatility float64 // 年化波动率
	SharpeRatio      float64 // 夏普比率（无风险利率取 0）
	MaxDrawdown      float64 // 最大回撤（负数，如 -0.32 表示回撤 32%）
}

// Returns 将权益曲线转换为逐期简单收益率序列。
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}

	return returns
}

// MaxDrawdown 返回权益曲线的最大回撤：任一时点相对此前峰值的最大跌幅。
// 返回负数；曲线单调不降时返回 0。
func MaxDrawdown(equity []float64) float64 {
	var peak, maxDD float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		if dd := v/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Analyze 基于权益曲线计算绩效汇总。periodsPerYear 是年化系数，
// 日线回测传 TradingDaysPerYear，小时线可传 24*365 等。
// 年化收益按复利几何换算，夏普比率以 0 为无风险利率。
func Analyze(equity []float64, periodsPerYear float64) Performance {
	returns := Returns(equity)
	if len(returns) == 0 {
		return Performance{}
	}

	totalReturn := equity[len(equity)-1]/equity[0] - 1

	years := float64(len(returns)) / periodsPerYear
	var annualReturn float64
	if years > 0 && totalReturn > -1 {
		annualReturn = math.Pow(1+totalReturn, 1/years) - 1
	}

	mean, stdDev := stat.MeanStdDev(returns, nil)
	annualVol := stdDev * math.Sqrt(periodsPerYear)

	var sharpe float64
	if stdDev > 0 {
		sharpe = mean / stdDev * math.Sqrt(periodsPerYear)
	}

	return Performance{
		TotalReturn:      totalReturn,
		AnnualReturn:     annualReturn,
		AnnualVolatility: annualVol,
		SharpeRatio:      sharpe,
		MaxDrawdown:      MaxDrawdown(equity),
	}
}
