package types

import "time"

// ConvergenceWarning 力学反馈在某一时间步未收敛，保留最后估计值
type ConvergenceWarning struct {
	Protocol   ProtocolID // 协议
	Index      int        // 时间索引
	Time       float64    // 时间点
	Iterations int        // 已执行迭代次数
	DeltaSigma float64    // 最后一次应力变化量
	DeltaJ     float64    // 最后一次体积分数变化量
}

// Observer 仿真事件监听接口，实现必须支持并发调用
type Observer interface {
	RunStarted(protocol ProtocolID, feedback bool)
	RunFinished(protocol ProtocolID, feedback bool, elapsed time.Duration, err error)
	NotConverged(w ConvergenceWarning)
}

// NopObserver 空监听
type NopObserver struct{}

func (NopObserver) RunStarted(ProtocolID, bool) {}
func (NopObserver) RunFinished(ProtocolID, bool, time.Duration, error) {}
func (NopObserver) NotConverged(ConvergenceWarning) {}

// Observers 组合多个监听
type Observers []Observer

func (obs Observers) RunStarted(protocol ProtocolID, feedback bool) {
	for _, o := range obs {
		o.RunStarted(protocol, feedback)
	}
}

func (obs Observers) RunFinished(protocol ProtocolID, feedback bool, elapsed time.Duration, err error) {
	for _, o := range obs {
		o.RunFinished(protocol, feedback, elapsed, err)
	}
}

func (obs Observers) NotConverged(w ConvergenceWarning) {
	for _, o := range obs {
		o.NotConverged(w)
	}
}
