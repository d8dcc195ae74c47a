package record

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	cmmtypes "cmm/types"
)

// Charts 曲线绘制
type Charts struct {
	*Record
}

// NewCharts 创建 HTML 曲线页面
func NewCharts(r *Record) *Charts { return &Charts{Record: r} }

// newLine 统一的曲线样式
func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "t [day]",
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  yName,
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	)
	return line
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i].Value = v
	}
	return items
}

func axis(time []float64) []string {
	x := make([]string, len(time))
	for i, t := range time {
		x[i] = fmt.Sprintf("%.4g", t)
	}
	return x
}

// resultCharts 单个协议的曲线
func resultCharts(res *cmmtypes.Result) []components.Charter {
	name := res.Protocol.String()
	if res.Feedback {
		name += " (feedback)"
	}
	x := axis(res.Time)

	sigma := newLine("Stress: "+name, "constituent stress", "σ [kPa]")
	sigma.SetXAxis(x).
		AddSeries("collagen", lineData(res.SigmaC)).
		AddSeries("elastin", lineData(res.SigmaE)).
		AddSeries("matrix", lineData(res.SigmaG)).
		AddSeries("total", lineData(res.SigmaTotal))

	volume := newLine("Volume fraction: "+name, "referential volume fraction", "J")
	volume.SetXAxis(x).
		AddSeries("collagen", lineData(res.JC)).
		AddSeries("elastin", lineData(res.JE)).
		AddSeries("total", lineData(res.JTotal))

	stretch := newLine("Stretch: "+name, "macroscopic tissue stretch", "λ")
	stretch.SetXAxis(x).AddSeries("λ", lineData(res.Stretch))

	return []components.Charter{sigma, volume, stretch}
}

// comparison 各协议总应力对比
func (c *Charts) comparison() *charts.Line {
	line := newLine("Protocol comparison", "total stress", "σ [kPa]")
	for i, id := range c.Protocols() {
		res := c.Results[id]
		if i == 0 {
			line.SetXAxis(axis(res.Time))
		}
		line.AddSeries(id.String(), lineData(res.SigmaTotal))
	}
	return line
}

// Render 输出 HTML 页面
func (c *Charts) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = c.Title
	if !c.IsSingle() {
		page.AddCharts(c.comparison())
	}
	for _, id := range c.Protocols() {
		page.AddCharts(resultCharts(c.Results[id])...)
	}
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
