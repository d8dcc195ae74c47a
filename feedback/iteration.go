package feedback

import "errors"

// Iteration 单个时间步的不动点迭代控制
type Iteration struct {
	maxIter    int     // 最大迭代次数
	tol        float64 // 收敛容差
	curr       int     // 当前迭代计数
	converged  bool    // 收敛标记
	deltaSigma float64 // 最近一次应力变化量
	deltaJ     float64 // 最近一次体积分数变化量
}

// NewIteration 创建迭代控制
func NewIteration(maxIter int, tol float64) (*Iteration, error) {
	if maxIter < 1 {
		return nil, errors.New("max iterations must be >= 1")
	}
	if tol <= 0 {
		return nil, errors.New("tolerance must be > 0")
	}
	return &Iteration{maxIter: maxIter, tol: tol}, nil
}

// Reset 开始新的时间步
func (it *Iteration) Reset() {
	it.curr = 0
	it.converged = false
	it.deltaSigma, it.deltaJ = 0, 0
}

// Next 进入下一次迭代，超过最大次数返回假
func (it *Iteration) Next() bool {
	if it.converged || it.curr >= it.maxIter {
		return false
	}
	it.curr++
	return true
}

// Check 记录变化量并判断两者是否均小于容差
func (it *Iteration) Check(deltaSigma, deltaJ float64) bool {
	it.deltaSigma, it.deltaJ = deltaSigma, deltaJ
	it.converged = deltaSigma < it.tol && deltaJ < it.tol
	return it.converged
}

// IsConverged 是否收敛
func (it *Iteration) IsConverged() bool { return it.converged }

// Count 已执行迭代次数
func (it *Iteration) Count() int { return it.curr }

// MaxIter 最大迭代次数
func (it *Iteration) MaxIter() int { return it.maxIter }

// Deltas 最近一次变化量
func (it *Iteration) Deltas() (deltaSigma, deltaJ float64) { return it.deltaSigma, it.deltaJ }
