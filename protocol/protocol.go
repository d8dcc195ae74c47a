// Package protocol 宏观组织拉伸的加载协议。
package protocol

import (
	"fmt"
	"math"
	"strings"

	"cmm/params"
	"cmm/types"
)

// Evaluator 加载协议，给出宏观拉伸 λ(t)
type Evaluator interface {
	ID() types.ProtocolID      // 协议标识
	Stretch(t float64) float64 // 宏观拉伸
	Remodels() bool            // 沉积物是否按生长重新分配自然拉伸
}

// allocators 协议构造注册表
var allocators = map[types.ProtocolID]func(p params.Resolved) Evaluator{}

// Register 注册协议
func Register(id types.ProtocolID, alloc func(p params.Resolved) Evaluator) {
	if _, ok := allocators[id]; ok {
		panic(fmt.Errorf("protocol already registered: %s", id))
	}
	allocators[id] = alloc
}

func init() {
	Register(types.ProtocolConstant, func(p params.Resolved) Evaluator { return Constant{Roof: p.LambdaRoof} })
	Register(types.ProtocolLinear, func(p params.Resolved) Evaluator { return Linear{Roof: p.LambdaRoof, A: p.A} })
	Register(types.ProtocolCyclic, func(p params.Resolved) Evaluator {
		return Cyclic{Roof: p.LambdaRoof, A: p.A, Omega: p.Omega}
	})
}

// Parse 解析协议名称
func Parse(name string) (types.ProtocolID, error) {
	id := types.ProtocolID(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := allocators[id]; !ok {
		return "", &types.ValidationError{Field: "protocol", Reason: fmt.Sprintf("%q", name), Kind: types.ErrUnknownProtocol}
	}
	return id, nil
}

// New 根据协议标识创建协议
func New(id types.ProtocolID, p params.Resolved) (Evaluator, error) {
	alloc, ok := allocators[id]
	if !ok {
		return nil, &types.ValidationError{Field: "protocol", Reason: fmt.Sprintf("%q", id), Kind: types.ErrUnknownProtocol}
	}
	return alloc(p), nil
}

// Series 在时间网格上求拉伸序列
func Series(e Evaluator, time []float64) []float64 {
	out := make([]float64, len(time))
	for i, t := range time {
		out[i] = e.Stretch(t)
	}
	return out
}

// Constant 恒定拉伸 λ(t) = λ_roof
type Constant struct {
	Roof float64
}

func (Constant) ID() types.ProtocolID { return types.ProtocolConstant }
func (c Constant) Stretch(float64) float64 { return c.Roof }
func (Constant) Remodels() bool { return false }

// Linear 单调线性拉伸 λ(t) = λ_roof·(1 + a·t)
type Linear struct {
	Roof float64
	A    float64
}

func (Linear) ID() types.ProtocolID { return types.ProtocolLinear }
func (l Linear) Stretch(t float64) float64 { return l.Roof * (1 + l.A*t) }
func (Linear) Remodels() bool { return false }

// Cyclic 循环拉伸 λ(t) = λ_roof·(1 + a·sin²(ω·t))，周期 π/ω
type Cyclic struct {
	Roof  float64
	A     float64
	Omega float64
}

func (Cyclic) ID() types.ProtocolID { return types.ProtocolCyclic }

func (c Cyclic) Stretch(t float64) float64 {
	s := math.Sin(c.Omega * t)
	return c.Roof * (1 + c.A*s*s)
}

func (Cyclic) Remodels() bool { return true }
