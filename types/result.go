package types

import "fmt"

// Result 单个协议的仿真结果，各数组与时间网格等长
type Result struct {
	Protocol   ProtocolID           // 加载协议
	Feedback   bool                 // 是否启用力学反馈
	Time       []float64            // 时间列
	Stretch    []float64            // 宏观拉伸 λ(t)
	SigmaC     []float64            // 胶原应力
	SigmaE     []float64            // 弹性蛋白应力
	SigmaG     []float64            // 基质应力
	JC         []float64            // 胶原体积分数
	JE         []float64            // 弹性蛋白体积分数
	JTotal     []float64            // 总体积分数
	SigmaTotal []float64            // 总应力
	Warnings   []ConvergenceWarning // 反馈未收敛记录
}

// NewResult 按时间网格分配结果
func NewResult(protocol ProtocolID, time []float64) *Result {
	n := len(time)
	r := &Result{
		Protocol:   protocol,
		Time:       append([]float64(nil), time...),
		Stretch:    make([]float64, n),
		SigmaC:     make([]float64, n),
		SigmaE:     make([]float64, n),
		SigmaG:     make([]float64, n),
		JC:         make([]float64, n),
		JE:         make([]float64, n),
		JTotal:     make([]float64, n),
		SigmaTotal: make([]float64, n),
	}
	return r
}

// Len 采样点数
func (r *Result) Len() int { return len(r.Time) }

// Column 命名数据列
type Column struct {
	Name   string
	Values []float64
}

// Columns 按固定顺序导出数据列
func (r *Result) Columns() []Column {
	return []Column{
		{"time", r.Time},
		{"lambda", r.Stretch},
		{"sigma_c", r.SigmaC},
		{"sigma_e", r.SigmaE},
		{"sigma_g", r.SigmaG},
		{"J_c", r.JC},
		{"J_e", r.JE},
		{"J_total", r.JTotal},
		{"sigma_total", r.SigmaTotal},
	}
}

// ColumnNames 数据列名称
func ColumnNames() []string {
	cols := (&Result{}).Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Check 校验所有数据列长度一致
func (r *Result) Check() error {
	n := r.Len()
	for _, c := range r.Columns() {
		if len(c.Values) != n {
			return fmt.Errorf("column %s has %d samples, want %d", c.Name, len(c.Values), n)
		}
	}
	return nil
}

// Converged 反馈是否在所有时间步收敛
func (r *Result) Converged() bool { return len(r.Warnings) == 0 }

// Final 最后一个采样点的值
func Final(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

// ResultSet 多协议结果集
type ResultSet map[ProtocolID]*Result

// Protocols 按规范顺序返回结果集中的协议
func (set ResultSet) Protocols() []ProtocolID {
	ids := make([]ProtocolID, 0, len(set))
	for _, id := range Protocols {
		if _, ok := set[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
