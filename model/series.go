package model

import (
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Series 是时间序列数据的泛型切片，元素类型需可比较大小。
type Series[T constraints.Ordered] []T

// Values 返回序列中的所有值。
func (s Series[T]) Values() []T {
	return s
}

// Length 返回序列中值的数量。
func (s Series[T]) Length() int {
	return len(s)
}

// Last 返回距末尾 position 个位置的值，Last(0) 即最新值。
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues 返回序列末尾的 size 个值；序列不足 size 时返回整个序列。
func (s Series[T]) LastValues(size int) []T {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Crossover 判断序列是否在最新一格上穿参考序列：
// 最新值大于参考序列最新值，且前一格不大于参考序列前一格。
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder 判断序列是否在最新一格下穿参考序列。
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.Last(0) <= ref.Last(0) && s.Last(1) > ref.Last(1)
}

// Cross 判断序列与参考序列在最新一格是否存在任一方向的交叉。
func (s Series[T]) Cross(ref Series[T]) bool {
	return s.Crossover(ref) || s.Crossunder(ref)
}

// NumDecPlaces 返回一个 float64 值的小数位数。
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}
