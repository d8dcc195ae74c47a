// Package history 组分沉积历史的 Boltzmann 叠加积分。
//
// 对每个输出时刻 t，组分应力由两部分组成：t=0 时已存在质量的剩余贡献，
// 以及 [0,t] 内连续沉积的质量，每一份按其沉积时的拉伸状态计算应力：
//
//	σ(t) = (J0/Jref)·σ̂(λ_eff(0,t))·q(0,t) + (j+/J_total(t))·∫₀ᵗ q(τ,t)·σ̂(λ_eff(τ,t)) dτ
//
// 各时刻之间相互独立，按时间索引并发计算。
package history

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cmm/maths"
	"cmm/params"
	"cmm/protocol"
	"cmm/types"
)

// Integrator 历史积分器
type Integrator struct {
	params   params.Resolved
	protocol protocol.Evaluator
	collagen Constituent
	elastin  Constituent
	exponent float64           // 生长修正比的指数 1/(1+2γ)²
	quad     maths.QuadOptions // 积分配置
}

// New 创建历史积分器
func New(p params.Resolved, e protocol.Evaluator) *Integrator {
	limit := p.QuadLimit
	if e.Remodels() && limit < types.MinCyclicQuadLimit {
		// 积分区间可能跨越多个周期
		limit = types.MinCyclicQuadLimit
	}
	return &Integrator{
		params:   p,
		protocol: e,
		collagen: Collagen(p),
		elastin:  Elastin(p),
		exponent: p.GrowthExponent() * p.GrowthExponent(),
		quad:     maths.DefaultQuadOptions(limit),
	}
}

// Protocol 加载协议
func (in *Integrator) Protocol() protocol.Evaluator { return in.protocol }

// Collagen 胶原组分
func (in *Integrator) Collagen() Constituent { return in.collagen }

// Elastin 弹性蛋白组分
func (in *Integrator) Elastin() Constituent { return in.elastin }

// EffectiveStretch 时刻 tau 沉积的组分在 t 时承受的拉伸
func (in *Integrator) EffectiveStretch(c Constituent, tau, t float64) float64 {
	if !in.protocol.Remodels() {
		return in.protocol.Stretch(tau)
	}
	// 生长修正 G = J^(1/(1+2γ))，修正比 G(τ)/G(t) 再取 1/(1+2γ) 次幂，J0 相消
	growth := math.Pow(c.Kinetics.Mass(tau)/c.Kinetics.Mass(t), in.exponent)
	return c.Lambda0 * (in.protocol.Stretch(t) / in.protocol.Stretch(tau)) * growth
}

// Initial t=0 时已存在质量在 t 时的应力贡献
func (in *Integrator) Initial(c Constituent, t float64) float64 {
	return (c.J0 / in.params.JRef) * c.Law.Stress(in.EffectiveStretch(c, 0, t)) * c.Kinetics.Survival(0, t)
}

// Stress 组分在 t 时的应力，jTotal 为当前总体积分数
func (in *Integrator) Stress(c Constituent, t, jTotal float64) (float64, error) {
	integrand := func(tau float64) float64 {
		return c.Kinetics.Survival(tau, t) * c.Law.Stress(in.EffectiveStretch(c, tau, t))
	}
	integral, err := maths.Adaptive(integrand, 0, t, in.quad)
	if err != nil {
		return 0, fmt.Errorf("%s integral: %w", c.Name, err)
	}
	s := in.Initial(c, t) + (c.JPlus/jTotal)*integral
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("%s stress is not finite", c.Name)
	}
	return s, nil
}

// MatrixStress 基质应力，无更新，直接跟随宏观拉伸
func (in *Integrator) MatrixStress(lambda float64) float64 {
	return (in.params.JG0 / in.params.JRef) * in.params.MatrixLaw().Stress(lambda)
}

// Run 在整个时间网格上计算基准结果（不含反馈，不含汇总列）
func (in *Integrator) Run(ctx context.Context) (*types.Result, error) {
	res := types.NewResult(in.protocol.ID(), in.params.Time)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range res.Time {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := in.step(res, i, t); err != nil {
				return &types.IntegrationError{Protocol: in.protocol.ID(), Index: i, Time: t, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// step 计算单个时间索引，只写入索引 i 的位置
func (in *Integrator) step(res *types.Result, i int, t float64) (err error) {
	lambda := in.protocol.Stretch(t)
	jc := in.collagen.Volume(t)
	je := in.elastin.Volume(t)
	jTotal := jc + je + in.params.JG0

	res.Stretch[i] = lambda
	res.JC[i] = jc
	res.JE[i] = je
	if res.SigmaC[i], err = in.Stress(in.collagen, t, jTotal); err != nil {
		return err
	}
	if res.SigmaE[i], err = in.Stress(in.elastin, t, jTotal); err != nil {
		return err
	}
	res.SigmaG[i] = in.MatrixStress(lambda)
	return nil
}
