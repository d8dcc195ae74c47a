// Package stress 组分应变能导出的标量应力响应。
package stress

import "math"

// Law 组分材料律 σ̂(λ) = 4·c·λ²·(λ²-1)·exp(α·(λ²-1)²)
type Law struct {
	C     float64 // 刚度模量 [kPa]
	Alpha float64 // 非线性系数，弹性蛋白与基质为 0
}

// Stress 在自然拉伸 λ 下的应力
func (l Law) Stress(lambda float64) float64 {
	l2 := lambda * lambda
	e := l2 - 1
	s := 4 * l.C * l2 * e
	if l.Alpha == 0 {
		return s
	}
	return s * math.Exp(l.Alpha*e*e)
}
