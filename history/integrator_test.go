package history

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate/quad"

	"cmm/params"
	"cmm/protocol"
	"cmm/types"
)

func newIntegrator(t *testing.T, id types.ProtocolID, edit func(*params.Params)) *Integrator {
	t.Helper()
	p := params.Default()
	p.NPoints = 101
	if edit != nil {
		edit(&p)
	}
	r, err := params.Resolve(p)
	if err != nil {
		t.Fatalf("参数解析失败: %v", err)
	}
	e, err := protocol.New(id, r)
	if err != nil {
		t.Fatalf("创建协议失败: %v", err)
	}
	return New(r, e)
}

func run(t *testing.T, in *Integrator) *types.Result {
	t.Helper()
	res, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("积分失败: %v", err)
	}
	if err := res.Check(); err != nil {
		t.Fatal(err)
	}
	return res
}

// TestInitialState t=0 时只有初始质量贡献应力
func TestInitialState(t *testing.T) {
	for _, id := range types.Protocols {
		in := newIntegrator(t, id, nil)
		res := run(t, in)
		c, e := in.Collagen(), in.Elastin()

		lc, le := 1.1, 1.1
		if id == types.ProtocolCyclic {
			lc, le = c.Lambda0, e.Lambda0
		}
		want := []struct {
			name      string
			got, want float64
		}{
			{"J_c", res.JC[0], 0.75},
			{"J_e", res.JE[0], 0.05},
			{"λ", res.Stretch[0], 1.1},
			{"σ_c", res.SigmaC[0], 0.75 * c.Law.Stress(lc)},
			{"σ_e", res.SigmaE[0], 0.05 * e.Law.Stress(le)},
			{"σ_g", res.SigmaG[0], 0.20 * 4 * 10 * 1.21 * 0.21},
		}
		for _, w := range want {
			if math.Abs(w.got-w.want) > 1e-12 {
				t.Errorf("%s %s(0): 期望 %v, 实际 %v", id, w.name, w.want, w.got)
			}
		}
	}
}

// TestCyclicHomeostatic 循环协议 t=0 时胶原应力等于稳态应力
func TestCyclicHomeostatic(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, nil)
	res := run(t, in)
	if d := math.Abs(res.SigmaC[0] - in.params.Sigma0C); d > 1e-12 {
		t.Errorf("σ_c(0) 与 σ0 偏差 %v", d)
	}
}

// TestConstantSteadyState k+=k- 且 J_total=1 时恒定协议应力保持不变
func TestConstantSteadyState(t *testing.T) {
	in := newIntegrator(t, types.ProtocolConstant, nil)
	res := run(t, in)
	want := 0.75 * in.Collagen().Law.Stress(1.1)
	for i, s := range res.SigmaC {
		if math.Abs(s-want) > 1e-8 {
			t.Fatalf("σ_c[%d]: 期望 %v, 实际 %v", i, want, s)
		}
		if math.Abs(res.JC[i]-0.75) > 1e-12 {
			t.Fatalf("J_c[%d]: 期望 0.75, 实际 %v", i, res.JC[i])
		}
	}
}

// TestZeroRates 无更新时体积分数与恒定协议应力不随时间变化
func TestZeroRates(t *testing.T) {
	in := newIntegrator(t, types.ProtocolConstant, func(p *params.Params) {
		p.KCPlus, p.KCMinus, p.KEPlus, p.KEMinus = 0, 0, 0, 0
	})
	res := run(t, in)
	for i := range res.Time {
		if res.JC[i] != 0.75 || res.JE[i] != 0.05 {
			t.Fatalf("t=%v: 体积分数变化 J_c=%v J_e=%v", res.Time[i], res.JC[i], res.JE[i])
		}
		if math.Abs(res.SigmaC[i]-res.SigmaC[0]) > 1e-12 {
			t.Fatalf("t=%v: σ_c 变化 %v", res.Time[i], res.SigmaC[i]-res.SigmaC[0])
		}
	}
}

func TestEffectiveStretch(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, nil)
	c := in.Collagen()
	if got := in.EffectiveStretch(c, 0.7, 0.7); math.Abs(got-c.Lambda0) > 1e-15 {
		t.Errorf("λ_eff(t,t): 期望 %v, 实际 %v", c.Lambda0, got)
	}
	// k+=k- 时 Q≡1，生长修正为 1
	want := c.Lambda0 * in.Protocol().Stretch(0.5) / in.Protocol().Stretch(0.25)
	if got := in.EffectiveStretch(c, 0.25, 0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("λ_eff: 期望 %v, 实际 %v", want, got)
	}

	lin := newIntegrator(t, types.ProtocolLinear, nil)
	if got, want := lin.EffectiveStretch(lin.Collagen(), 2, 5), 1.1*1.2; math.Abs(got-want) > 1e-12 {
		t.Errorf("线性协议 λ_eff: 期望 %v, 实际 %v", want, got)
	}
}

func TestQuadLimitFloor(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, func(p *params.Params) { p.QuadLimit = 5 })
	if in.quad.Limit != types.MinCyclicQuadLimit {
		t.Errorf("循环协议子区间上限: 期望 %d, 实际 %d", types.MinCyclicQuadLimit, in.quad.Limit)
	}
	in = newIntegrator(t, types.ProtocolLinear, func(p *params.Params) { p.QuadLimit = 5 })
	if in.quad.Limit != 5 {
		t.Errorf("线性协议子区间上限: 期望 5, 实际 %d", in.quad.Limit)
	}
}

func TestRunCanceled(t *testing.T) {
	in := newIntegrator(t, types.ProtocolLinear, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := in.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled, 实际 %v", err)
	}
}

func TestRunIntegrationError(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, func(p *params.Params) { p.Omega = 400 })
	in.quad.Limit = 1
	_, err := in.Run(context.Background())
	if !errors.Is(err, types.ErrIntegration) {
		t.Fatalf("期望 ErrIntegration, 实际 %v", err)
	}
	var ie *types.IntegrationError
	if !errors.As(err, &ie) || ie.Protocol != types.ProtocolCyclic || ie.Index == 0 {
		t.Fatalf("错误未标记协议与时间索引: %v", err)
	}
}

// turnoverRates 合成与降解速率不等，Q(t) 随时间变化
func turnoverRates(p *params.Params) {
	p.KCPlus, p.KCMinus = 2, 0.5
	p.KEPlus, p.KEMinus = 0.3, 0.8
}

// sigmaHat 独立实现的组分应力
func sigmaHat(c, alpha, lambda float64) float64 {
	e := lambda*lambda - 1
	return 4 * c * lambda * lambda * e * math.Exp(alpha*e*e)
}

// mass 独立实现的归一化总质量
func mass(plus, minus, t float64) float64 {
	e := math.Exp(-minus * t)
	return e + plus/minus*(1-e)
}

// TestGrowthCorrection 循环协议的生长修正比取两次 1/(1+2γ) 次幂
func TestGrowthCorrection(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, turnoverRates)
	p := in.params
	g := 1 / (1 + 2*p.Gamma)
	lambda := func(x float64) float64 { s := math.Sin(p.Omega * x); return p.LambdaRoof * (1 + p.A*s*s) }

	tau, tt := 0.4, 2.5
	ratio := mass(p.KCPlus, p.KCMinus, tau) / mass(p.KCPlus, p.KCMinus, tt)
	want := p.Lambda0C * lambda(tt) / lambda(tau) * math.Pow(math.Pow(ratio, g), g)
	got := in.EffectiveStretch(in.Collagen(), tau, tt)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("胶原 λ_eff: 期望 %v, 实际 %v", want, got)
	}
	if once := p.Lambda0C * lambda(tt) / lambda(tau) * math.Pow(ratio, g); math.Abs(got-once) < 1e-3 {
		t.Fatalf("生长修正比与单次幂无法区分: %v vs %v", got, once)
	}

	ratio = mass(p.KEPlus, p.KEMinus, tau) / mass(p.KEPlus, p.KEMinus, tt)
	want = p.Lambda0E * lambda(tt) / lambda(tau) * math.Pow(ratio, g*g)
	if got := in.EffectiveStretch(in.Elastin(), tau, tt); math.Abs(got-want) > 1e-12 {
		t.Errorf("弹性蛋白 λ_eff: 期望 %v, 实际 %v", want, got)
	}
}

// reference 以定阶 Gauss-Legendre 独立计算组分应力
type reference struct {
	c, alpha    float64
	j0          float64
	plus, minus float64
	stretch     func(tau, t float64) float64 // λ_eff(τ, t)
}

func (r reference) stress(t, jTotal float64) float64 {
	integrand := func(tau float64) float64 {
		return math.Exp(-r.minus*(t-tau)) * sigmaHat(r.c, r.alpha, r.stretch(tau, t))
	}
	integral := quad.Fixed(integrand, 0, t, 200, quad.Legendre{}, 0)
	initial := r.j0 * sigmaHat(r.c, r.alpha, r.stretch(0, t)) * math.Exp(-r.minus*t)
	return initial + r.plus*r.j0/jTotal*integral
}

func TestLinearReference(t *testing.T) {
	in := newIntegrator(t, types.ProtocolLinear, turnoverRates)
	res := run(t, in)
	p := in.params
	last := res.Len() - 1
	tt := res.Time[last]

	stretch := func(tau, _ float64) float64 { return p.LambdaRoof * (1 + p.A*tau) }
	jc := p.Fi0C * mass(p.KCPlus, p.KCMinus, tt)
	je := p.Fi0E * mass(p.KEPlus, p.KEMinus, tt)
	jTotal := jc + je + *p.Fi0G

	collagen := reference{p.CC, p.AlphaC, p.Fi0C, p.KCPlus, p.KCMinus, stretch}
	elastin := reference{p.CE, 0, p.Fi0E, p.KEPlus, p.KEMinus, stretch}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"J_c", res.JC[last], jc},
		{"J_e", res.JE[last], je},
		{"σ_c", res.SigmaC[last], collagen.stress(tt, jTotal)},
		{"σ_e", res.SigmaE[last], elastin.stress(tt, jTotal)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-7*math.Abs(c.want) {
			t.Errorf("%s(t=%v): 期望 %v, 实际 %v", c.name, tt, c.want, c.got)
		}
	}
}

func TestCyclicReference(t *testing.T) {
	in := newIntegrator(t, types.ProtocolCyclic, turnoverRates)
	p := in.params
	g := 1 / (1 + 2*p.Gamma)
	lambda := func(x float64) float64 { s := math.Sin(p.Omega * x); return p.LambdaRoof * (1 + p.A*s*s) }
	growth := func(lambda0, plus, minus float64) func(tau, t float64) float64 {
		return func(tau, t float64) float64 {
			return lambda0 * lambda(t) / lambda(tau) * math.Pow(mass(plus, minus, tau)/mass(plus, minus, t), g*g)
		}
	}

	const tt = 2.5
	jc := p.Fi0C * mass(p.KCPlus, p.KCMinus, tt)
	je := p.Fi0E * mass(p.KEPlus, p.KEMinus, tt)
	jTotal := jc + je + *p.Fi0G

	collagen := reference{p.CC, p.AlphaC, p.Fi0C, p.KCPlus, p.KCMinus, growth(p.Lambda0C, p.KCPlus, p.KCMinus)}
	elastin := reference{p.CE, 0, p.Fi0E, p.KEPlus, p.KEMinus, growth(p.Lambda0E, p.KEPlus, p.KEMinus)}
	for _, c := range []struct {
		name string
		c    Constituent
		ref  reference
		j    float64
	}{
		{"collagen", in.Collagen(), collagen, jc},
		{"elastin", in.Elastin(), elastin, je},
	} {
		if v := c.c.Volume(tt); math.Abs(v-c.j) > 1e-12 {
			t.Errorf("%s J(t=%v): 期望 %v, 实际 %v", c.name, tt, c.j, v)
		}
		got, err := in.Stress(c.c, tt, jTotal)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if want := c.ref.stress(tt, jTotal); math.Abs(got-want) > 1e-7*math.Abs(want) {
			t.Errorf("%s σ(t=%v): 期望 %v, 实际 %v", c.name, tt, want, got)
		}
	}
}
