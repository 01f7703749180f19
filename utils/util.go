package utils

import "golang.org/x/exp/constraints"

// 将v限制在[low, high]范围内。
func Clamp[T constraints.Ordered](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// 返回不小于0的值，低于0则截断为0。
func NonNegative[T constraints.Integer | constraints.Float](v T) T {
	if v < 0 {
		return 0
	}
	return v
}
