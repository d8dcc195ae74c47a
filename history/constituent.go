package history

import (
	"cmm/kinetics"
	"cmm/params"
	"cmm/stress"
)

// Constituent 承载组分（胶原或弹性蛋白）
type Constituent struct {
	Name     string
	Law      stress.Law        // 材料律
	Kinetics kinetics.Turnover // 更新动力学
	J0       float64           // 参考体积分数
	JPlus    float64           // 基准沉积通量 j+
	Lambda0  float64           // 初始自然拉伸
}

// Collagen 胶原组分
func Collagen(p params.Resolved) Constituent {
	return Constituent{
		Name:     "collagen",
		Law:      p.CollagenLaw(),
		Kinetics: kinetics.Collagen(p.KCPlus, p.KCMinus),
		J0:       p.JC0,
		JPlus:    p.JPlusC,
		Lambda0:  p.Lambda0C,
	}
}

// Elastin 弹性蛋白组分
func Elastin(p params.Resolved) Constituent {
	return Constituent{
		Name:     "elastin",
		Law:      p.ElastinLaw(),
		Kinetics: kinetics.Elastin(p.KEPlus, p.KEMinus),
		J0:       p.JE0,
		JPlus:    p.JPlusE,
		Lambda0:  p.Lambda0E,
	}
}

// Volume 时刻 t 的体积分数 J(t) = J0·Q(t)
func (c Constituent) Volume(t float64) float64 {
	return c.J0 * c.Kinetics.Mass(t)
}
