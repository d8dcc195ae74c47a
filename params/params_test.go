package params

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmm/types"
)

func TestResolveDefaults(t *testing.T) {
	r, err := Resolve(Default())
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.JRef)
	assert.InDelta(t, 0.75, r.JC0, 1e-15)
	assert.InDelta(t, 0.05, r.JE0, 1e-15)
	assert.InDelta(t, 0.20, r.JG0, 1e-15)
	assert.InDelta(t, 0.75, r.JPlusC, 1e-15)
	assert.InDelta(t, 0.05, r.JPlusE, 1e-15)
	assert.InDelta(t, 0.75*r.CollagenLaw().Stress(1.05), r.Sigma0C, 1e-15)
	assert.InDelta(t, 1.0/3, r.GrowthExponent(), 1e-15)

	require.Len(t, r.Time, types.DefaultPoints)
	assert.Equal(t, 0.0, r.Time[0])
	assert.Equal(t, types.DefaultTimeEnd, r.Time[len(r.Time)-1])

	require.NotNil(t, r.Params.Sigma0C)
	assert.Equal(t, r.Sigma0C, *r.Params.Sigma0C)
}

func TestResolveMatrixFraction(t *testing.T) {
	p := Default()
	p.Fi0G = nil
	p.Fi0C, p.Fi0E = 0.6, 0.1
	r, err := Resolve(p)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, r.JG0, 1e-15)
	assert.Nil(t, p.Fi0G, "Resolve 不得修改输入")

	p.Sigma0C = Float(12.5)
	r, err = Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, 12.5, r.Sigma0C)
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		field string
		edit  func(*Params)
	}{
		{"k_cminus", func(p *Params) { p.KCMinus = 0 }},
		{"a", func(p *Params) { p.A = 0 }},
		{"n_points", func(p *Params) { p.NPoints = 1 }},
		{"t_end", func(p *Params) { p.TEnd = -1 }},
		{"epsilon", func(p *Params) { p.Epsilon = 0 }},
		{"max_iter", func(p *Params) { p.MaxIter = 0 }},
		{"quad_limit", func(p *Params) { p.QuadLimit = 0 }},
		{"fi0_c", func(p *Params) { p.Fi0C = 0.99 }},
		{"fi0_g", func(p *Params) { p.Fi0G = Float(-0.1) }},
		{"lambda_roof", func(p *Params) { p.LambdaRoof = 0 }},
		{"gamma", func(p *Params) { p.Gamma = -0.5 }},
		{"a", func(p *Params) { p.A = math.NaN() }},
		{"t_end", func(p *Params) { p.TEnd = math.Inf(1) }},
		{"gamma", func(p *Params) { p.Gamma = math.NaN() }},
		{"fi0_g", func(p *Params) { p.Fi0G = Float(math.NaN()) }},
		{"sigma0_c", func(p *Params) { p.Sigma0C = Float(math.Inf(-1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p := Default()
			tt.edit(&p)
			_, err := Resolve(p)
			require.ErrorIs(t, err, types.ErrInvalidParameter)
			var ve *types.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// TestResolveZeroHomeostatic 稳态应力为 0 只影响反馈，解析本身不报错
func TestResolveZeroHomeostatic(t *testing.T) {
	p := Default()
	p.Lambda0C = 1
	r, err := Resolve(p)
	require.NoError(t, err)
	assert.Zero(t, r.Sigma0C)

	p = Default()
	p.Sigma0C = Float(0)
	r, err = Resolve(p)
	require.NoError(t, err)
	assert.Zero(t, r.Sigma0C)
}

func TestResolveZeroRates(t *testing.T) {
	p := Default()
	p.KCPlus, p.KCMinus, p.KEPlus, p.KEMinus = 0, 0, 0, 0
	_, err := Resolve(p)
	assert.NoError(t, err)
}

func TestDecode(t *testing.T) {
	base := Default()
	p, err := Decode(strings.NewReader("lambda_roof: 1.25\nK_cplus: 0.1\nfi0_g: 0.15\n"), base)
	require.NoError(t, err)
	assert.Equal(t, 1.25, p.LambdaRoof)
	assert.Equal(t, 0.1, p.KFeedback)
	assert.Equal(t, 0.15, *p.Fi0G)
	assert.Equal(t, 0.20, *base.Fi0G, "Decode 不得修改 base")

	p, err = Decode(strings.NewReader(""), base)
	require.NoError(t, err)
	assert.Equal(t, base.LambdaRoof, p.LambdaRoof)

	_, err = Decode(strings.NewReader("lambda_rof: 1.2\n"), base)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestSaveLoad(t *testing.T) {
	p := Default()
	p.Omega = 2
	p.Sigma0C = Float(3.5)
	file := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, Save(file, p))

	got, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, os.WriteFile(file, []byte("unknown: 1\n"), 0o644))
	_, err = Load(file)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestSet(t *testing.T) {
	p, err := Set(Default(), "lambda_roof = 1.2")
	require.NoError(t, err)
	assert.Equal(t, 1.2, p.LambdaRoof)

	p, err = Set(p, "n_points=50")
	require.NoError(t, err)
	assert.Equal(t, 50, p.NPoints)

	for _, bad := range []string{"lambda_roof", "=1", "nope=1", "n_points=abc"} {
		_, err := Set(p, bad)
		assert.ErrorIs(t, err, types.ErrInvalidParameter, bad)
	}
}

func TestApplyEnv(t *testing.T) {
	base := Default()
	p, err := applyEnv(base, env.Options{
		Prefix: EnvPrefix,
		Environment: map[string]string{
			"CMM_LAMBDA_ROOF": "1.3",
			"CMM_K_FEEDBACK":  "0.2",
			"CMM_MAX_ITER":    "7",
			"CMM_SIGMA0_C":    "4.5",
			"OTHER_A":         "9",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.3, p.LambdaRoof)
	assert.Equal(t, 0.2, p.KFeedback)
	assert.Equal(t, 7, p.MaxIter)
	require.NotNil(t, p.Sigma0C)
	assert.Equal(t, 4.5, *p.Sigma0C)
	assert.Equal(t, base.A, p.A)
	assert.Nil(t, base.Sigma0C)

	_, err = applyEnv(base, env.Options{Prefix: EnvPrefix, Environment: map[string]string{"CMM_T_END": "x"}})
	assert.Error(t, err)
}
