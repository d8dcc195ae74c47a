package maths

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"cmm/types"
)

// ErrSubdivisionLimit 子区间数量达到上限仍未满足容差
var ErrSubdivisionLimit = errors.New("subdivision limit reached")

// QuadOptions 自适应积分配置
type QuadOptions struct {
	AbsTol float64 // 绝对容差
	RelTol float64 // 相对容差
	Limit  int     // 最大子区间数
}

// DefaultQuadOptions 默认积分配置
func DefaultQuadOptions(limit int) QuadOptions {
	return QuadOptions{AbsTol: types.QuadAbsTolerance, RelTol: types.QuadRelTolerance, Limit: limit}
}

// 标准区间 [-1,1] 上的 Gauss-Legendre 节点与权重
var legendreX, legendreW = legendreRule(types.QuadOrder)

func legendreRule(n int) (x, w []float64) {
	x, w = make([]float64, n), make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	return x, w
}

// gaussLegendre 单个子区间上的定阶积分
func gaussLegendre(f func(float64) float64, a, b float64) float64 {
	h, m := (b-a)/2, (a+b)/2
	var s float64
	for i, x := range legendreX {
		s += legendreW[i] * f(m+h*x)
	}
	return s * h
}

// panel 子区间及其误差估计
type panel struct {
	a, b  float64
	value float64
	err   float64
}

func newPanel(f func(float64) float64, a, b float64) panel {
	m := (a + b) / 2
	whole := gaussLegendre(f, a, b)
	halves := gaussLegendre(f, a, m) + gaussLegendre(f, m, b)
	return panel{a: a, b: b, value: halves, err: math.Abs(whole - halves)}
}

// Adaptive 全局自适应积分 ∫_a^b f(x)dx
// 每次细分误差最大的子区间，直到总误差满足容差或子区间数量达到 Limit
func Adaptive(f func(float64) float64, a, b float64, opt QuadOptions) (float64, error) {
	if a == b {
		return 0, nil
	}
	if opt.Limit < 1 {
		opt.Limit = 1
	}
	panels := []panel{newPanel(f, a, b)}
	for {
		var value, errSum, mag float64
		worst := 0
		for i, p := range panels {
			value += p.value
			errSum += p.err
			mag += math.Abs(p.value)
			if p.err > panels[worst].err {
				worst = i
			}
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return value, fmt.Errorf("non-finite integrand on [%g, %g]", a, b)
		}
		if errSum <= math.Max(opt.AbsTol, opt.RelTol*math.Abs(value)) || errSum <= types.QuadRoundoff*mag {
			return value, nil
		}
		if len(panels) >= opt.Limit {
			return value, fmt.Errorf("%w: %d panels, error estimate %.3g", ErrSubdivisionLimit, len(panels), errSum)
		}
		// 二分误差最大的子区间
		p := panels[worst]
		m := (p.a + p.b) / 2
		panels[worst] = newPanel(f, p.a, m)
		panels = append(panels, newPanel(f, m, p.b))
	}
}
