package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NaN 是gota识别为缺失值的字符串
const NaN = "NaN"

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// EnsureColumns 缺失的可选列补充为全空的字符串列
// 返回值为补齐后的DataFrame和实际存在的列集合
func EnsureColumns(df dataframe.DataFrame, names ...string) (dataframe.DataFrame, map[string]bool) {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		if HasColumn(df, name) {
			present[name] = true
			continue
		}
		empty := make([]string, df.Nrow())
		for i := range empty {
			empty[i] = NaN
		}
		df = df.Mutate(series.New(empty, series.String, name))
		present[name] = false
	}
	return df, present
}

// IsMissing 判断单元格是否为空值
func IsMissing(e series.Element) bool {
	if e.IsNA() {
		return true
	}
	s := strings.TrimSpace(e.String())
	return s == "" || s == NaN || s == "NA" || s == "<nil>"
}

// ParseFloat 解析数值单元格, 缺失或非法返回 false
func ParseFloat(e series.Element) (float64, bool) {
	if IsMissing(e) {
		return 0, false
	}
	v := e.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01-02-2006 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC3339,
}

// ParseDate 尝试多种时间格式
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("空的日期")
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %q", s)
}

// SaveToExcel 将DataFrame写入xlsx文件
func SaveToExcel(df dataframe.DataFrame, filePath, sheetName string) error {
	f, err := DataFrameToExcel(df, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// DataFrameToExcel 将DataFrame写入新的工作簿, 调用方负责Close
func DataFrameToExcel(df dataframe.DataFrame, sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("重命名工作表失败: %w", err)
		}
	}

	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, name)
	}

	// 写入数据
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			elem := col.Elem(rowIdx)
			if elem.IsNA() {
				continue
			}
			f.SetCellValue(sheetName, cell, elem.Val())
		}
	}

	return f, nil
}

var printer = message.NewPrinter(language.English)

// FormatCount 千分位格式的整数, 如 1,234
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
