// Package indicator 封装了策略所需的技术指标计算。
// 大部分指标直接委托给 github.com/markcheno/go-talib（TA-Lib 的 Go 移植版），
// 它提供了 RSI、布林带、MACD 等超过 150 种经典技术指标。
package indicator

import "github.com/markcheno/go-talib"

// MaType 等同于 talib 库中的移动平均线类型。
type MaType = talib.MaType

// 常用移动平均线类型的常量引用。
const (
	// 简单移动平均线：N 个周期收盘价的算术平均。
	TypeSMA = talib.SMA
	// 指数移动平均线：权重 = 2/(period+1)，对最近价格赋予更高权重，
	// 因此比 SMA 更快地反应价格变动。短期 EMA 上穿长期 EMA 俗称"金叉"，
	// 通常被视为买入信号；下穿则称"死叉"。
	TypeEMA = talib.EMA
	// 加权移动平均线：权重随时间线性递增（1,2,3,...），最近的价格权重最大。
	TypeWMA = talib.WMA
)

// RSI 计算相对强弱指数（Relative Strength Index）。
// RSI = 100 - 100/(1+RS)，其中 RS 为 period 周期内平均涨幅与平均跌幅之比，
// 平滑方式采用 Wilder 递推（首值用简单平均，之后 avg = (prev*(period-1)+cur)/period）。
// 返回值在 0~100 之间：低于 30 通常认为超卖（价格可能反弹），
// 高于 70 通常认为超买（价格可能回调）。前 period 个位置为 0（数据不足）。
func RSI(input []float64, period int) []float64 {
	return talib.Rsi(input, period)
}

// SMA 计算简单移动平均线。每个位置的值是此前 period 个价格（含当前）的平均。
func SMA(input []float64, period int) []float64 {
	return talib.Sma(input, period)
}

// EMA 计算指数移动平均线。第一个有效值等于前 period 个价格的简单平均，
// 之后按 EMA = 当日价 × 权重 + 前日EMA × (1-权重) 递推。
func EMA(input []float64, period int) []float64 {
	return talib.Ema(input, period)
}

// WMA 计算加权移动平均线。
func WMA(input []float64, period int) []float64 {
	return talib.Wma(input, period)
}

// MA 按指定类型计算移动平均线，maType 取 TypeSMA / TypeEMA / TypeWMA 等。
func MA(input []float64, period int, maType MaType) []float64 {
	return talib.Ma(input, period, maType)
}

// BB 计算布林带（Bollinger Bands），返回上、中、下三条轨道。
// 中轨为 period 周期的移动平均，上下轨为中轨 ± deviation 倍标准差。
// 价格触及下轨通常被视为超卖（潜在支撑），触及上轨被视为超买（潜在阻力），
// 回归中轨则常用作离场参考。deviation 常用值为 2。
func BB(input []float64, period int, deviation float64, maType MaType) ([]float64, []float64, []float64) {
	return talib.BBands(input, period, deviation, deviation, maType)
}

// MACD 计算指数平滑异同移动平均线，返回 MACD 线、信号线和柱状图三个序列。
// MACD线 = 快速EMA(fastPeriod) - 慢速EMA(slowPeriod)；
// 信号线 = MACD线的 signalPeriod 周期EMA；柱状图 = MACD线 - 信号线。
// MACD 线上穿信号线视为买入信号，下穿视为卖出信号。经典参数为 12/26/9。
func MACD(input []float64, fastPeriod, slowPeriod, signalPeriod int) ([]float64, []float64, []float64) {
	return talib.Macd(input, fastPeriod, slowPeriod, signalPeriod)
}

// MFI 计算资金流量指标（Money Flow Index），可理解为带成交量加权的 RSI。
// 以典型价格（(最高+最低+收盘)/3）乘以成交量作为资金流，按涨跌分类后
// 计算 period 周期内正负资金流之比。返回值在 0~100 之间：
// 低于 20 视为超卖，高于 80 视为超买。
func MFI(high, low, close, volume []float64, period int) []float64 {
	return talib.Mfi(high, low, close, volume, period)
}

// OBV 计算能量潮指标（On Balance Volume）：收盘价上涨时累加当日成交量，
// 下跌时累减。OBV 与价格同向上升确认上涨趋势；价格创新高而 OBV 未跟随
// 则构成背离，可能预示趋势衰竭。
func OBV(input, volume []float64) []float64 {
	return talib.Obv(input, volume)
}

// ATR 计算平均真实波幅（Average True Range），衡量价格波动的幅度。
// 真实波幅取当日高低差、当日高与昨收差、当日低与昨收差三者的最大值，
// 再做 period 周期的 Wilder 平滑。常用于设置止损距离。
func ATR(high, low, close []float64, period int) []float64 {
	return talib.Atr(high, low, close, period)
}

// Stoch 计算随机指标（KD），返回 K 线与 D 线。
// K 值反映收盘价在近期高低区间中的相对位置，D 线为 K 的平滑。
func Stoch(high, low, close []float64, fastK, slowK int, slowKMaType MaType, slowD int, slowDMaType MaType) ([]float64, []float64) {
	return talib.Stoch(high, low, close, fastK, slowK, slowKMaType, slowD, slowDMaType)
}

// CCI 计算顺势指标（Commodity Channel Index），衡量价格偏离统计均值的程度。
// 高于 +100 表示强势（超买区），低于 -100 表示弱势（超卖区）。
func CCI(high, low, close []float64, period int) []float64 {
	return talib.Cci(high, low, close, period)
}

// WillR 计算威廉指标（Williams %R），返回值在 -100~0 之间：
// 高于 -20 视为超买，低于 -80 视为超卖。
func WillR(high, low, close []float64, period int) []float64 {
	return talib.WillR(high, low, close, period)
}
