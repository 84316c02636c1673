package backtest

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/quantlearn/quantbot/exchange"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/tools/metrics"
)

// Summary 汇总一个交易对的回测结果：全部往返交易、成交额和权益曲线。
type Summary struct {
	Pair           string
	Trades         []model.Trade
	Volume         float64
	InitialCapital float64
	EquityCurve    []float64 // 每根K线收盘后的权益
}

// Win 返回所有盈利交易的盈利金额列表。
func (s Summary) Win() []float64 {
	wins := make([]float64, 0)
	for _, trade := range s.Trades {
		if trade.Profit >= 0 {
			wins = append(wins, trade.Profit)
		}
	}
	return wins
}

// Lose 返回所有亏损交易的亏损金额列表（负数）。
func (s Summary) Lose() []float64 {
	losses := make([]float64, 0)
	for _, trade := range s.Trades {
		if trade.Profit < 0 {
			losses = append(losses, trade.Profit)
		}
	}
	return losses
}

// WinPercent 返回盈利交易的收益率列表（小数形式）。
func (s Summary) WinPercent() []float64 {
	wins := make([]float64, 0)
	for _, trade := range s.Trades {
		if trade.Profit >= 0 {
			wins = append(wins, trade.NetReturn())
		}
	}
	return wins
}

// LosePercent 返回亏损交易的收益率列表（负的小数）。
func (s Summary) LosePercent() []float64 {
	losses := make([]float64, 0)
	for _, trade := range s.Trades {
		if trade.Profit < 0 {
			losses = append(losses, trade.NetReturn())
		}
	}
	return losses
}

// Profit 返回全部交易的盈亏合计（报价资产计）。
func (s Summary) Profit() float64 {
	profit := 0.0
	for _, trade := range s.Trades {
		profit += trade.Profit
	}
	return profit
}

// SQN 计算系统质量数：SQN = √交易数 × 平均利润 / 利润标准差。
// 1.6 以下视为较差，2.0 以上视为良好，交易数不足时返回 0。
func (s Summary) SQN() float64 {
	total := float64(len(s.Trades))
	if total < 2 {
		return 0
	}

	avgProfit := s.Profit() / total

	stdDev := 0.0
	for _, trade := range s.Trades {
		stdDev += math.Pow(trade.Profit-avgProfit, 2)
	}
	stdDev = math.Sqrt(stdDev / total)

	if stdDev == 0 {
		return 0
	}

	return math.Sqrt(total) * (avgProfit / stdDev)
}

// Payoff 返回盈亏比：平均盈利收益率与平均亏损收益率绝对值之比。
func (s Summary) Payoff() float64 {
	avgWin := 0.0
	avgLose := 0.0

	for _, value := range s.WinPercent() {
		avgWin += value
	}
	for _, value := range s.LosePercent() {
		avgLose += value
	}

	wins, loses := len(s.Win()), len(s.Lose())
	if wins == 0 || loses == 0 || avgLose == 0 {
		return 0
	}

	return (avgWin / float64(wins)) / math.Abs(avgLose/float64(loses))
}

// ProfitFactor 返回利润因子：总盈利收益率与总亏损收益率绝对值之比。
func (s Summary) ProfitFactor() float64 {
	if len(s.Lose()) == 0 {
		return 0
	}

	profit := 0.0
	for _, value := range s.WinPercent() {
		profit += value
	}

	loss := 0.0
	for _, value := range s.LosePercent() {
		loss += value
	}

	return profit / math.Abs(loss)
}

// WinPercentage 返回胜率（百分比形式）。
func (s Summary) WinPercentage() float64 {
	if len(s.Trades) == 0 {
		return 0
	}
	return float64(len(s.Win())) / float64(len(s.Trades)) * 100
}

// Performance 基于权益曲线计算绩效指标。periodsPerYear 是年化系数，
// 日线为 252。
func (s Summary) Performance(periodsPerYear float64) metrics.Performance {
	return metrics.Analyze(s.EquityCurve, periodsPerYear)
}

// String 以表格形式返回单个交易对的回测摘要。
func (s Summary) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	_, quote := exchange.SplitAssetQuote(s.Pair)
	data := [][]string{
		{"Coin", s.Pair},
		{"Trades", strconv.Itoa(len(s.Trades))},
		{"Win", strconv.Itoa(len(s.Win()))},
		{"Loss", strconv.Itoa(len(s.Lose()))},
		{"% Win", fmt.Sprintf("%.1f", s.WinPercentage())},
		{"Payoff", fmt.Sprintf("%.3f", s.Payoff())},
		{"Pr.Fact", fmt.Sprintf("%.3f", s.ProfitFactor())},
		{"Profit", fmt.Sprintf("%.4f %s", s.Profit(), quote)},
		{"Volume", fmt.Sprintf("%.4f %s", s.Volume, quote)},
	}
	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
	return tableString.String()
}

// SaveReturns 把每笔交易的收益率逐行保存到文件，便于外部工具分析分布。
func (s Summary) SaveReturns(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, value := range s.WinPercent() {
		if _, err = file.WriteString(fmt.Sprintf("%.4f\n", value)); err != nil {
			return err
		}
	}

	for _, value := range s.LosePercent() {
		if _, err = file.WriteString(fmt.Sprintf("%.4f\n", value)); err != nil {
			return err
		}
	}

	return nil
}
