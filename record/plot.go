package record

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// 图像尺寸
var (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

type series struct {
	name   string
	values []float64
}

// newPlot 时间-应力坐标图
func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (days)"
	p.Y.Label.Text = "Stress (kPa)"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addLines(p *plot.Plot, time []float64, list []series) error {
	for i, s := range list {
		xy := make(plotter.XYs, len(time))
		for j := range time {
			xy[j].X, xy[j].Y = time[j], s.values[j]
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return nil
}

// Plot 构建图像：单协议绘制各组分应力，多协议绘制总应力对比
func (r *Record) Plot() (*plot.Plot, error) {
	if r.IsSingle() {
		res := r.Results[r.Protocols()[0]]
		p := newPlot("Protocol: " + res.Protocol.String())
		err := addLines(p, res.Time, []series{
			{"Collagen", res.SigmaC},
			{"Elastin", res.SigmaE},
			{"Matrix", res.SigmaG},
			{"Total stress", res.SigmaTotal},
		})
		return p, err
	}
	p := newPlot("Comparison of protocols")
	var list []series
	var time []float64
	for _, id := range r.Protocols() {
		res := r.Results[id]
		time = res.Time
		list = append(list, series{id.String(), res.SigmaTotal})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no results to plot")
	}
	return p, addLines(p, time, list)
}

// WritePNG 写出 PNG 图像
func (r *Record) WritePNG(w io.Writer) error {
	p, err := r.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG 保存 PNG 图像到文件
func (r *Record) SavePNG(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := r.WritePNG(file); err != nil {
		return err
	}
	return file.Close()
}
