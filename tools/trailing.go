// Package tools 提供策略层可复用的小工具。
package tools

// TrailingStop 实现动态追踪止损：价格上涨时止损价同步上移，
// 锁定已实现的浮盈；价格回落触及止损价时发出平仓信号。
type TrailingStop struct {
	current float64 // 最近一次更新的价格
	stop    float64 // 当前止损价
	active  bool
}

// NewTrailingStop 创建一个未激活的追踪止损。
func NewTrailingStop() *TrailingStop {
	return &TrailingStop{}
}

// Start 在开仓时激活追踪止损，记录开仓价与初始止损价。
func (t *TrailingStop) Start(current, stop float64) {
	t.current = current
	t.stop = stop
	t.active = true
}

// Stop 在平仓后停用追踪止损。
func (t *TrailingStop) Stop() {
	t.active = false
}

// Active 返回追踪止损是否处于激活状态。
func (t TrailingStop) Active() bool {
	return t.active
}

// Update 用最新价格刷新状态，返回是否触发止损。
// 价格创新高时，止损价按同样的涨幅上移；价格回落时止损价保持不动，
// 一旦价格跌到止损价或以下即返回 true。
func (t *TrailingStop) Update(current float64) bool {
	if !t.active {
		return false
	}

	if current > t.current {
		t.stop += current - t.current
		t.current = current
		return false
	}

	t.current = current
	return current <= t.stop
}
