// Package feedback 力学反馈：胶原合成速率随应力比 σ/σ0 变化。
//
// 求解按时间索引顺序进行，索引 i 的不动点依赖于已提交的 0..i-1 全部历史，
// 无法并行。每次迭代都在离散网格上重新计算 O(i) 的梯形和，总代价为
// O(N²·迭代次数)，是整个仿真的主要耗时。
package feedback

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"

	"cmm/history"
	"cmm/params"
	"cmm/types"
)

// Solver 力学反馈求解器
type Solver struct {
	in       *history.Integrator
	params   params.Resolved
	observer types.Observer
}

// New 创建反馈求解器
func New(in *history.Integrator, p params.Resolved, observer types.Observer) *Solver {
	if observer == nil {
		observer = types.NopObserver{}
	}
	return &Solver{in: in, params: p, observer: observer}
}

// Validate 检查反馈所需的参数，稳态应力为 0 时反馈因子无定义
func Validate(p params.Resolved) error {
	if p.Sigma0C == 0 {
		return types.NewValidationError("sigma0_c", "must not be 0 when feedback is enabled (lambda0_c=%g)", p.Lambda0C)
	}
	return nil
}

// factor 反馈因子 1 + K·(σ/σ0 - 1)
func (s *Solver) factor(sigma float64) float64 {
	return 1 + s.params.KFeedback*(sigma/s.params.Sigma0C-1)
}

// Apply 以基准结果为初值求解反馈后的胶原应力与体积分数
// 返回新的结果，弹性蛋白与基质列沿用基准结果
func (s *Solver) Apply(base *types.Result) (*types.Result, error) {
	if base == nil || base.Len() == 0 {
		return nil, errors.New("feedback: empty base result")
	}
	if err := Validate(s.params); err != nil {
		return nil, err
	}
	it, err := NewIteration(s.params.MaxIter, s.params.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}
	c := s.in.Collagen()
	time := base.Time
	n := len(time)

	sigma := make([]float64, n)  // 已提交的胶原应力
	volume := make([]float64, n) // 已提交的胶原体积分数
	sigma[0] = base.SigmaC[0]
	volume[0] = c.J0

	// 每个时间步复用的积分节点缓冲
	weightSigma := make([]float64, n)
	weightJ := make([]float64, n)

	out := *base
	out.Feedback = true
	out.Warnings = nil

	for i := 1; i < n; i++ {
		ti := time[i]
		survival0 := c.Kinetics.Survival(0, ti)
		initialSigma := s.in.Initial(c, ti)
		initialJ := c.J0 * survival0

		sigmaGuess, jGuess := base.SigmaC[i], base.JC[i]
		it.Reset()
		for it.Next() {
			// 当前估计值决定的反馈因子作用于整段沉积历史
			f := s.factor(sigmaGuess)
			for j := 0; j <= i; j++ {
				w := c.JPlus * f * c.Kinetics.Survival(time[j], ti)
				weightJ[j] = w
				weightSigma[j] = w * c.Law.Stress(s.in.EffectiveStretch(c, time[j], ti))
			}
			integralSigma := integrate.Trapezoidal(time[:i+1], weightSigma[:i+1])
			integralJ := integrate.Trapezoidal(time[:i+1], weightJ[:i+1])

			jNew := initialJ + integralJ
			jTotal := jNew + base.JE[i] + s.params.JG0
			sigmaNew := initialSigma + integralSigma/jTotal
			if math.IsNaN(sigmaNew) || math.IsInf(sigmaNew, 0) || math.IsNaN(jNew) {
				return nil, &types.IntegrationError{
					Protocol: base.Protocol, Index: i, Time: ti,
					Err: errors.New("feedback estimate is not finite"),
				}
			}

			converged := it.Check(math.Abs(sigmaNew-sigmaGuess), math.Abs(jNew-jGuess))
			sigmaGuess, jGuess = sigmaNew, jNew
			if converged {
				break
			}
		}
		if !it.IsConverged() {
			dSigma, dJ := it.Deltas()
			w := types.ConvergenceWarning{
				Protocol:   base.Protocol,
				Index:      i,
				Time:       ti,
				Iterations: it.Count(),
				DeltaSigma: dSigma,
				DeltaJ:     dJ,
			}
			out.Warnings = append(out.Warnings, w)
			s.observer.NotConverged(w)
		}
		// 提交后才进入下一个时间步
		sigma[i], volume[i] = sigmaGuess, jGuess
	}

	out.SigmaC = sigma
	out.JC = volume
	return &out, nil
}
