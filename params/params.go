// Package params 参数记录与参数解析。
package params

import (
	"cmm/types"
)

// Params 部分参数记录，文件与环境变量可覆盖默认值
type Params struct {
	// 力学性质
	CC float64 `yaml:"c_c" env:"C_C"` // 胶原刚度 [kPa]
	CE float64 `yaml:"c_e" env:"C_E"` // 弹性蛋白刚度 [kPa]
	CG float64 `yaml:"c_g" env:"C_G"` // 蛋白多糖基质刚度 [kPa]

	// 初始体积分数
	Fi0C float64  `yaml:"fi0_c" env:"FI0_C"`           // 胶原
	Fi0E float64  `yaml:"fi0_e" env:"FI0_E"`           // 弹性蛋白
	Fi0G *float64 `yaml:"fi0_g,omitempty" env:"FI0_G"` // 基质，未设置时取 1-fi0_c-fi0_e

	// 合成/降解动力学 [1/天]
	KCPlus  float64 `yaml:"k_cplus" env:"K_CPLUS"`
	KCMinus float64 `yaml:"k_cminus" env:"K_CMINUS"`
	KEPlus  float64 `yaml:"k_eplus" env:"K_EPLUS"`
	KEMinus float64 `yaml:"k_eminus" env:"K_EMINUS"`

	// 拉伸参数
	Lambda0C   float64 `yaml:"lambda0_c" env:"LAMBDA0_C"`     // 胶原初始自然拉伸
	Lambda0E   float64 `yaml:"lambda0_e" env:"LAMBDA0_E"`     // 弹性蛋白初始自然拉伸
	LambdaRoof float64 `yaml:"lambda_roof" env:"LAMBDA_ROOF"` // 组织基础拉伸
	A          float64 `yaml:"a" env:"A"`                     // 拉伸增长系数
	Omega      float64 `yaml:"omega" env:"OMEGA"`             // 循环拉伸角频率

	// 力学反馈
	KFeedback float64  `yaml:"K_cplus" env:"K_FEEDBACK"`         // 反馈增益
	Sigma0C   *float64 `yaml:"sigma0_c,omitempty" env:"SIGMA0_C"` // 稳态应力，未设置时自动计算

	// 数值参数
	AlphaC    float64 `yaml:"alpha_c" env:"ALPHA_C"`       // 胶原非线性系数
	Gamma     float64 `yaml:"gamma" env:"GAMMA"`           // 各向异性参数
	TEnd      float64 `yaml:"t_end" env:"T_END"`           // 仿真时长 [天]
	NPoints   int     `yaml:"n_points" env:"N_POINTS"`     // 采样点数
	Epsilon   float64 `yaml:"epsilon" env:"EPSILON"`       // 迭代收敛判据
	MaxIter   int     `yaml:"max_iter" env:"MAX_ITER"`     // 反馈单步最大迭代次数
	QuadLimit int     `yaml:"quad_limit" env:"QUAD_LIMIT"` // 自适应积分最大子区间数
}

// Default 默认参数
func Default() Params {
	return Params{
		CC: 1.0, CE: 50.0, CG: 10.0,
		Fi0C: 0.75, Fi0E: 0.05, Fi0G: Float(0.20),
		KCPlus: 1.0, KCMinus: 1.0, KEPlus: 1.0, KEMinus: 1.0,
		Lambda0C: 1.05, Lambda0E: 1.10, LambdaRoof: 1.1, A: 0.1,
		Omega:     types.DefaultOmega,
		KFeedback: 0.04,
		AlphaC:    0.01,
		Gamma:     1.0,
		TEnd:      types.DefaultTimeEnd,
		NPoints:   types.DefaultPoints,
		Epsilon:   types.Tolerance,
		MaxIter:   types.MaxIterations,
		QuadLimit: types.QuadLimit,
	}
}

// Float 返回浮点数指针，用于可选字段
func Float(v float64) *float64 { return &v }

// Clone 复制参数，可选字段不共享指针
func (p Params) Clone() Params {
	if p.Fi0G != nil {
		p.Fi0G = Float(*p.Fi0G)
	}
	if p.Sigma0C != nil {
		p.Sigma0C = Float(*p.Sigma0C)
	}
	return p
}
