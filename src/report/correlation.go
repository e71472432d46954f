package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

const (
	CorrelationXLSX  = "correlation_matrix.xlsx"
	CorrelationCSV   = "correlation_matrix.csv"
	correlationSheet = "Correlation"
)

// Correlation 数值列的相关系数矩阵, Matrix[i][j] 对应 Names[i] 与 Names[j]
type Correlation struct {
	Names  []string
	Matrix [][]float64
}

// numericColumns 找出全部非空值都能解析为数字的列
func numericColumns(df dataframe.DataFrame) (names []string, values [][]float64, valid [][]bool) {
	for _, name := range df.Names() {
		col := df.Col(name)
		vals := make([]float64, col.Len())
		ok := make([]bool, col.Len())
		numeric, seen := true, false
		for i := 0; i < col.Len(); i++ {
			e := col.Elem(i)
			if utils.IsMissing(e) {
				continue
			}
			v, parsed := utils.ParseFloat(e)
			if !parsed {
				numeric = false
				break
			}
			vals[i], ok[i], seen = v, true, true
		}
		if numeric && seen {
			names = append(names, name)
			values = append(values, vals)
			valid = append(valid, ok)
		}
	}
	return names, values, valid
}

// CorrelationMatrix 逐对计算Pearson相关系数, 只使用两列都有值的行
// 有效行少于两行或某列方差为零时结果为NaN
func CorrelationMatrix(df dataframe.DataFrame) Correlation {
	names, values, valid := numericColumns(df)
	m := make([][]float64, len(names))
	for i := range m {
		m[i] = make([]float64, len(names))
	}

	for i := range names {
		for j := i; j < len(names); j++ {
			var x, y []float64
			for k := range values[i] {
				if valid[i][k] && valid[j][k] {
					x = append(x, values[i][k])
					y = append(y, values[j][k])
				}
			}
			r := math.NaN()
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			m[i][j], m[j][i] = r, r
		}
	}
	return Correlation{Names: names, Matrix: m}
}

// Frame 以DataFrame形式返回矩阵, 首列 Variable 为变量名
func (c Correlation) Frame() dataframe.DataFrame {
	cols := []series.Series{series.New(c.Names, series.String, "Variable")}
	for j, name := range c.Names {
		vals := make([]float64, len(c.Names))
		for i := range c.Names {
			vals[i] = c.Matrix[i][j]
		}
		cols = append(cols, series.New(vals, series.Float, name))
	}
	return dataframe.New(cols...)
}

// WriteCorrelation 写出 correlation_matrix.xlsx (带色阶) 和 correlation_matrix.csv
func WriteCorrelation(c Correlation, dir string) ([]string, error) {
	if len(c.Names) == 0 {
		return nil, fmt.Errorf("没有可计算相关系数的数值列")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	csvPath := filepath.Join(dir, CorrelationCSV)
	out, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("创建 %s 失败: %w", csvPath, err)
	}
	if err := c.Frame().WriteCSV(out); err != nil {
		out.Close()
		return nil, fmt.Errorf("写入 %s 失败: %w", csvPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	xlsxPath := filepath.Join(dir, CorrelationXLSX)
	if err := c.saveWorkbook(xlsxPath); err != nil {
		return []string{csvPath}, err
	}
	return []string{xlsxPath, csvPath}, nil
}

func (c Correlation) saveWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", correlationSheet); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}

	n := len(c.Names)
	for i, name := range c.Names {
		top, _ := excelize.CoordinatesToCellName(i+2, 1)
		left, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetCellValue(correlationSheet, top, name)
		f.SetCellValue(correlationSheet, left, name)
		for j := range c.Names {
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if v := c.Matrix[i][j]; !math.IsNaN(v) {
				f.SetCellValue(correlationSheet, cell, v)
			}
		}
	}

	first, _ := excelize.CoordinatesToCellName(2, 2)
	last, _ := excelize.CoordinatesToCellName(n+1, n+1)
	area := first + ":" + last

	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("创建单元格样式失败: %w", err)
	}
	if err := f.SetCellStyle(correlationSheet, first, last, style); err != nil {
		return fmt.Errorf("设置单元格样式失败: %w", err)
	}

	// -1 蓝, 0 白, 1 红
	err = f.SetConditionalFormat(correlationSheet, area, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "num",
		MidType:  "num",
		MaxType:  "num",
		MinValue: "-1",
		MidValue: "0",
		MaxValue: "1",
		MinColor: "#3B4CC0",
		MidColor: "#F7F7F7",
		MaxColor: "#B40426",
	}})
	if err != nil {
		return fmt.Errorf("设置色阶失败: %w", err)
	}
	f.SetColWidth(correlationSheet, "A", "A", 26)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}
