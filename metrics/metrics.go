// Package metrics 仿真运行的 Prometheus 指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cmm/types"
)

// Collector 运行指标，实现 types.Observer
type Collector struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	nonConverged *prometheus.CounterVec
	lastStep     *prometheus.GaugeVec
}

var _ types.Observer = (*Collector)(nil)

// NewCollector 创建指标并注册到独立的 Registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmm",
			Name:      "runs_total",
			Help:      "Simulation runs by protocol, feedback flag and status.",
		}, []string{"protocol", "feedback", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cmm",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single protocol run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"protocol"}),
		nonConverged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cmm",
			Name:      "feedback_nonconverged_total",
			Help:      "Feedback time steps that hit the iteration cap.",
		}, []string{"protocol"}),
		lastStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cmm",
			Name:      "feedback_nonconverged_last_step",
			Help:      "Time index of the latest non-converged feedback step.",
		}, []string{"protocol"}),
	}
	c.registry.MustRegister(c.runs, c.duration, c.nonConverged, c.lastStep)
	return c
}

// Registry 指标注册表
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) RunStarted(types.ProtocolID, bool) {}

func (c *Collector) RunFinished(protocol types.ProtocolID, feedback bool, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.runs.WithLabelValues(protocol.String(), strconv.FormatBool(feedback), status).Inc()
	c.duration.WithLabelValues(protocol.String()).Observe(elapsed.Seconds())
}

func (c *Collector) NotConverged(w types.ConvergenceWarning) {
	c.nonConverged.WithLabelValues(w.Protocol.String()).Inc()
	c.lastStep.WithLabelValues(w.Protocol.String()).Set(float64(w.Index))
}

// WriteTextfile 以 node_exporter 文本格式写出指标
func (c *Collector) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, c.registry)
}
