package params

import (
	"math"

	"cmm/maths"
	"cmm/stress"
	"cmm/types"
)

// Resolved 完整参数记录，解析后只读
type Resolved struct {
	Params

	JRef    float64 // 参考体积
	JC0     float64 // 胶原参考体积
	JE0     float64 // 弹性蛋白参考体积
	JG0     float64 // 基质参考体积
	JPlusC  float64 // 胶原基准沉积通量 k_c+·Jc0
	JPlusE  float64 // 弹性蛋白基准沉积通量 k_e+·Je0
	Sigma0C float64 // 稳态应力

	// Time 时间网格，所有下游计算共享，不得修改
	Time []float64
}

// Resolve 校验并补全参数，返回新的记录，不修改输入
func Resolve(p Params) (Resolved, error) {
	if err := validate(p); err != nil {
		return Resolved{}, err
	}
	r := Resolved{Params: p, JRef: types.ReferenceVolume}
	r.JC0 = p.Fi0C
	r.JE0 = p.Fi0E
	if p.Fi0G != nil {
		r.JG0 = *p.Fi0G
	} else {
		r.JG0 = 1 - p.Fi0C - p.Fi0E
	}
	// 只读副本，避免与调用方共享指针
	r.Params.Fi0G = Float(r.JG0)

	r.JPlusC = p.KCPlus * r.JC0
	r.JPlusE = p.KEPlus * r.JE0

	if p.Sigma0C != nil {
		r.Sigma0C = *p.Sigma0C
	} else {
		r.Sigma0C = (r.JC0 / r.JRef) * r.CollagenLaw().Stress(p.Lambda0C)
	}
	r.Params.Sigma0C = Float(r.Sigma0C)

	r.Time = maths.Grid(p.TEnd, p.NPoints)
	return r, nil
}

// validate 拒绝不一致的参数组合
func validate(p Params) error {
	if err := finite(p); err != nil {
		return err
	}
	switch {
	case p.KCMinus == 0 && p.KCPlus != 0:
		return types.NewValidationError("k_cminus", "cannot be 0 when k_cplus != 0")
	case p.A <= 0:
		return types.NewValidationError("a", "must be > 0, got %g", p.A)
	case p.NPoints < 2:
		return types.NewValidationError("n_points", "must be >= 2, got %d", p.NPoints)
	case p.TEnd <= 0:
		return types.NewValidationError("t_end", "must be > 0, got %g", p.TEnd)
	case p.Epsilon <= 0:
		return types.NewValidationError("epsilon", "must be > 0, got %g", p.Epsilon)
	case p.MaxIter < 1:
		return types.NewValidationError("max_iter", "must be >= 1, got %d", p.MaxIter)
	case p.QuadLimit < 1:
		return types.NewValidationError("quad_limit", "must be >= 1, got %d", p.QuadLimit)
	case p.Fi0C <= 0:
		return types.NewValidationError("fi0_c", "must be > 0, got %g", p.Fi0C)
	case p.Fi0E <= 0:
		return types.NewValidationError("fi0_e", "must be > 0, got %g", p.Fi0E)
	case p.Fi0C+p.Fi0E > 1:
		return types.NewValidationError("fi0_c", "fi0_c + fi0_e must not exceed 1, got %g", p.Fi0C+p.Fi0E)
	case p.Fi0G != nil && *p.Fi0G < 0:
		return types.NewValidationError("fi0_g", "must be >= 0, got %g", *p.Fi0G)
	case p.LambdaRoof <= 0:
		return types.NewValidationError("lambda_roof", "must be > 0, got %g", p.LambdaRoof)
	case p.Gamma <= -0.5:
		return types.NewValidationError("gamma", "must be > -0.5, got %g", p.Gamma)
	}
	return nil
}

// finite 拒绝 NaN 与无穷大，比较运算无法识别 NaN
func finite(p Params) error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"c_c", &p.CC}, {"c_e", &p.CE}, {"c_g", &p.CG},
		{"fi0_c", &p.Fi0C}, {"fi0_e", &p.Fi0E}, {"fi0_g", p.Fi0G},
		{"k_cplus", &p.KCPlus}, {"k_cminus", &p.KCMinus},
		{"k_eplus", &p.KEPlus}, {"k_eminus", &p.KEMinus},
		{"lambda0_c", &p.Lambda0C}, {"lambda0_e", &p.Lambda0E},
		{"lambda_roof", &p.LambdaRoof}, {"a", &p.A}, {"omega", &p.Omega},
		{"K_cplus", &p.KFeedback}, {"sigma0_c", p.Sigma0C},
		{"alpha_c", &p.AlphaC}, {"gamma", &p.Gamma},
		{"t_end", &p.TEnd}, {"epsilon", &p.Epsilon},
	}
	for _, f := range fields {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return types.NewValidationError(f.name, "must be finite, got %g", *f.value)
		}
	}
	return nil
}

// CollagenLaw 胶原应力响应
func (r Resolved) CollagenLaw() stress.Law { return stress.Law{C: r.CC, Alpha: r.AlphaC} }

// ElastinLaw 弹性蛋白应力响应（线性指数项为零）
func (r Resolved) ElastinLaw() stress.Law { return stress.Law{C: r.CE} }

// MatrixLaw 基质应力响应
func (r Resolved) MatrixLaw() stress.Law { return stress.Law{C: r.CG} }

// GrowthExponent 体积生长修正指数 1/(1+2γ)
func (r Resolved) GrowthExponent() float64 { return 1 / (1 + 2*r.Gamma) }
