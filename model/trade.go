package model

import (
	"fmt"
	"time"
)

// SideType 定义交易方向：买入或卖出。
type SideType string

var (
	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"
)

// Trade 定义了一笔完整的往返交易（开仓到平仓）。
// 模拟经纪商以收盘价即时成交市价单，因此持久化的单位是往返交易而非订单。
type Trade struct {
	ID   int64  `db:"id" json:"id" gorm:"primaryKey,autoIncrement"`
	Pair string `db:"pair" json:"pair"`

	EntryTime  time.Time `db:"entry_time" json:"entry_time"`   // 开仓时间
	ExitTime   time.Time `db:"exit_time" json:"exit_time"`     // 平仓时间
	EntryPrice float64   `db:"entry_price" json:"entry_price"` // 开仓成交价
	ExitPrice  float64   `db:"exit_price" json:"exit_price"`   // 平仓成交价
	Quantity   float64   `db:"quantity" json:"quantity"`       // 成交数量（基础资产计）

	Fee    float64 `db:"fee" json:"fee"`       // 双边手续费合计（报价资产计）
	Profit float64 `db:"profit" json:"profit"` // 扣费后盈亏（报价资产计）

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NetReturn 返回这笔交易扣费后的收益率（相对开仓成本）。
func (t Trade) NetReturn() float64 {
	cost := t.EntryPrice * t.Quantity
	if cost == 0 {
		return 0
	}
	return t.Profit / cost
}

// Volume 返回这笔交易的成交额（开仓腿，报价资产计）。
func (t Trade) Volume() float64 {
	return t.EntryPrice * t.Quantity
}

// String 返回交易的可读描述，便于日志输出。
func (t Trade) String() string {
	return fmt.Sprintf("[TRADE] %s | entry %.2f @ %s | exit %.2f @ %s | profit %.2f",
		t.Pair,
		t.EntryPrice, t.EntryTime.Format("2006-01-02 15:04"),
		t.ExitPrice, t.ExitTime.Format("2006-01-02 15:04"),
		t.Profit,
	)
}
