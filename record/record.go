// Package record 导出仿真结果到表格与图像。
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cmm/types"
)

// Record 记录一次或多次协议运行的结果
type Record struct {
	Title   string          // 标题
	Results types.ResultSet // 结果集
}

// New 由结果集创建记录
func New(title string, set types.ResultSet) *Record {
	return &Record{Title: title, Results: set}
}

// Single 由单个结果创建记录
func Single(title string, res *types.Result) *Record {
	return New(title, types.ResultSet{res.Protocol: res})
}

// Protocols 按规范顺序返回协议
func (r *Record) Protocols() []types.ProtocolID { return r.Results.Protocols() }

// IsSingle 是否只包含一个协议
func (r *Record) IsSingle() bool { return len(r.Results) == 1 }

// WriteCSV 写出单个结果的全部数据列，首行为列名
func WriteCSV(w io.Writer, res *types.Result) error {
	if err := res.Check(); err != nil {
		return err
	}
	cols := res.Columns()
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := 0; i < res.Len(); i++ {
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c.Values[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV 读取 WriteCSV 写出的表格
func ReadCSV(r io.Reader, protocol types.ProtocolID) (*types.Result, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	names := types.ColumnNames()
	if len(rows[0]) != len(names) {
		return nil, fmt.Errorf("table has %d columns, want %d", len(rows[0]), len(names))
	}
	for i, name := range names {
		if rows[0][i] != name {
			return nil, fmt.Errorf("column %d is %q, want %q", i, rows[0][i], name)
		}
	}
	res := types.NewResult(protocol, make([]float64, len(rows)-1))
	cols := res.Columns()
	for i, row := range rows[1:] {
		for j, c := range cols {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, c.Name, err)
			}
			c.Values[i] = v
		}
	}
	return res, nil
}
