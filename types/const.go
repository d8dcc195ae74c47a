package types

import "math"

// 参考构型常量定义
const (
	ReferenceVolume = 1.0 // 参考体积 J0（比例系数 1.0 定义参考构型）
	QuadOrder       = 15  // 单个子区间 Gauss-Legendre 节点数
)

// 默认参数常量定义
var (
	Tolerance          = 1e-4    // 反馈迭代收敛容差
	MaxIterations      = 20      // 反馈单步最大迭代次数
	QuadLimit          = 200     // 自适应积分最大子区间数
	MinCyclicQuadLimit = 100     // 循环协议积分子区间数下限
	QuadAbsTolerance   = 1.49e-8 // 自适应积分绝对容差
	QuadRelTolerance   = 1.49e-8 // 自适应积分相对容差
	QuadRoundoff       = 1e-14   // 舍入误差下限（相对值）
	DefaultTimeEnd     = 10.0    // 默认仿真时长 [天]
	DefaultPoints      = 1000    // 默认采样点数
	DefaultOmega       = math.Pi // 默认循环拉伸角频率
)
