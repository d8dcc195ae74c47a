// Package kinetics 一阶更新动力学：存活函数与总质量函数。
package kinetics

import (
	"fmt"
	"math"

	"cmm/types"
)

// Guard 零速率保护方式
type Guard int

const (
	// GuardBoth 仅当合成与降解速率均为 0 时 Q(t)≡1（胶原）
	GuardBoth Guard = iota
	// GuardDegradation 降解速率为 0 时 Q(t)≡1（弹性蛋白）
	GuardDegradation
)

// Turnover 组分合成/降解动力学
type Turnover struct {
	Plus  float64 // 合成速率 k+
	Minus float64 // 降解速率 k-
	Guard Guard
}

// Collagen 胶原动力学
func Collagen(plus, minus float64) Turnover {
	return Turnover{Plus: plus, Minus: minus, Guard: GuardBoth}
}

// Elastin 弹性蛋白动力学
func Elastin(plus, minus float64) Turnover {
	return Turnover{Plus: plus, Minus: minus, Guard: GuardDegradation}
}

// Survival 时刻 tau 沉积的质量在 t 时的剩余比例 q(tau,t)
func (k Turnover) Survival(tau, t float64) float64 {
	return math.Exp(-k.Minus * (t - tau))
}

// Mass 归一化总质量 Q(t)，满足 dQ/dt = k+ - k-·Q，Q(0)=1
func (k Turnover) Mass(t float64) float64 {
	switch k.Guard {
	case GuardBoth:
		if k.Plus == 0 && k.Minus == 0 {
			return 1
		}
	case GuardDegradation:
		if k.Minus == 0 {
			return 1
		}
	}
	if k.Minus == 0 {
		panic(&types.InvariantError{What: fmt.Sprintf("turnover k-=0 with k+=%g", k.Plus)})
	}
	e := math.Exp(-k.Minus * t)
	return e + (k.Plus/k.Minus)*(1-e)
}
