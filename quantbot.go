// Package quantbot 是一个面向学习的量化回测工具库：
// 从交易所下载历史K线，在本地CSV上回放经典技术指标策略，
// 输出交易统计、收益分布与绩效报告，并支持参数网格搜索。
package quantbot

import (
	"github.com/quantlearn/quantbot/tools/log"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	})
}
