package maths

import "gonum.org/v1/gonum/floats"

// Grid 从 0 到 end 的等间距时间网格，包含两个端点，n >= 2
func Grid(end float64, n int) []float64 {
	return floats.Span(make([]float64, n), 0, end)
}
