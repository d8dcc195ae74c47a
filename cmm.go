// Package cmm 约束混合物模型：软组织在给定拉伸历史下的重塑仿真。
//
// 组织由承载组分（胶原、弹性蛋白）与被动基质（蛋白多糖）组成，
// 各组分持续合成与降解，并可选地通过力学反馈调节胶原合成速率。
//
//	model, err := cmm.New(params.Default())
//	res, err := model.RunProtocol(ctx, types.ProtocolCyclic, true)
package cmm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"cmm/feedback"
	"cmm/history"
	"cmm/params"
	"cmm/protocol"
	"cmm/types"
)

// Model 约束混合物仿真引擎，参数解析后只读，可并发调用
type Model struct {
	params   params.Resolved
	log      *slog.Logger
	observer types.Observers
}

// New 解析参数并创建引擎，参数不一致时返回校验错误
func New(p params.Params, opts ...Option) (*Model, error) {
	r, err := params.Resolve(p)
	if err != nil {
		return nil, err
	}
	m := &Model{params: r, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.observer = append(types.Observers{logObserver{log: m.log}}, m.observer...)
	return m, nil
}

// Params 解析后的参数
func (m *Model) Params() params.Resolved { return m.params }

// RunProtocol 运行单个协议
func (m *Model) RunProtocol(ctx context.Context, id types.ProtocolID, withFeedback bool) (res *types.Result, err error) {
	e, err := protocol.New(id, m.params)
	if err != nil {
		return nil, err
	}
	if withFeedback {
		if err := feedback.Validate(m.params); err != nil {
			return nil, err
		}
	}
	m.observer.RunStarted(id, withFeedback)
	start := time.Now()
	defer func() {
		m.observer.RunFinished(id, withFeedback, time.Since(start), err)
	}()

	in := history.New(m.params, e)
	base, err := in.Run(ctx)
	if err != nil {
		return nil, err
	}
	res = base
	if withFeedback {
		if res, err = feedback.New(in, m.params, m.observer).Apply(base); err != nil {
			return nil, err
		}
	}
	Aggregate(res, m.params.JG0)
	return res, nil
}

// RunAllProtocols 并发运行全部协议，任一失败时不返回结果集
func (m *Model) RunAllProtocols(ctx context.Context, withFeedback bool) (types.ResultSet, error) {
	set := make(types.ResultSet, len(types.Protocols))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range types.Protocols {
		g.Go(func() error {
			res, err := m.RunProtocol(ctx, id, withFeedback)
			if err != nil {
				return err
			}
			mu.Lock()
			set[id] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// Aggregate 汇总列：J_total = J_c + J_e + J_g0，σ_total = σ_c + σ_e + σ_g
func Aggregate(res *types.Result, jg0 float64) {
	n := res.Len()
	res.JTotal = floats.AddTo(make([]float64, n), res.JC, res.JE)
	floats.AddConst(jg0, res.JTotal)
	res.SigmaTotal = floats.AddTo(make([]float64, n), res.SigmaC, res.SigmaE)
	floats.Add(res.SigmaTotal, res.SigmaG)
}

// logObserver 将运行事件写入日志
type logObserver struct {
	log *slog.Logger
}

func (o logObserver) RunStarted(protocol types.ProtocolID, feedback bool) {
	o.log.Debug("run started", "protocol", protocol, "feedback", feedback)
}

func (o logObserver) RunFinished(protocol types.ProtocolID, feedback bool, elapsed time.Duration, err error) {
	if err != nil {
		o.log.Error("run failed", "protocol", protocol, "feedback", feedback, "elapsed", elapsed, "err", err)
		return
	}
	o.log.Debug("run finished", "protocol", protocol, "feedback", feedback, "elapsed", elapsed)
}

func (o logObserver) NotConverged(w types.ConvergenceWarning) {
	o.log.Warn("feedback not converged",
		"protocol", w.Protocol, "step", w.Index, "t", w.Time,
		"iterations", w.Iterations, "dsigma", w.DeltaSigma, "dJ", w.DeltaJ)
}
