// reader.go
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

var (
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	ErrNoSheet           = errors.New("excel文件中没有工作表")
)

// 读入时视为空值的文本
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

// ReadTable 按扩展名读取csv或xlsx, 所有列按字符串读入
func ReadTable(filePath string, headerRow int) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		return ReadCSV(filePath)
	case ".xlsx":
		return ReadXLSX(filePath, "", headerRow)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
	}
}

func ReadCSV(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	df, err := ReadCSVFrom(f)
	if err != nil {
		return df, fmt.Errorf("%s: %w", filePath, err)
	}
	return df, nil
}

// ReadCSVFrom 从任意输入读取csv, 所有列按字符串读入
func ReadCSVFrom(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("解析csv失败: %w", df.Err)
	}
	return df, nil
}

// ReadXLSX 读取指定工作表, sheetName 为空时读第一个工作表
func ReadXLSX(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.New(), fmt.Errorf("xlsx open file false: %w", err)
	}
	return sheetFrame(xlFile, sheetName, headerRow)
}

// ReadXLSXBinary 读取内存中的xlsx内容, 邮件附件使用
func ReadXLSXBinary(data []byte, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.New(), fmt.Errorf("解析xlsx失败: %w", err)
	}
	return sheetFrame(xlFile, sheetName, headerRow)
}

func sheetFrame(xlFile *xlsx.File, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	if len(xlFile.Sheets) == 0 {
		return dataframe.New(), ErrNoSheet
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.New(), fmt.Errorf("%w: %s", ErrNoSheet, sheetName)
		}
		sheet = s
	}

	return convertSheetToDataFrame(sheet, headerRow), nil
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
// headerRow 为标题行下标, 之后的行都是数据
func convertSheetToDataFrame(sheet *xlsx.Sheet, headerRow int) dataframe.DataFrame {
	if len(sheet.Rows) <= headerRow {
		return dataframe.New()
	}

	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-headerRow-1)
	}

	for _, row := range sheet.Rows[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		for i := range headers {
			v := ""
			if i < len(row.Cells) {
				v = row.Cells[i].Value
			}
			if isNaNText(v) {
				v = "NaN"
			}
			columns[i] = append(columns[i], v)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	return dataframe.New(seriesList...)
}

func isBlankRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}

func isNaNText(v string) bool {
	v = strings.TrimSpace(v)
	for _, nan := range nanValues {
		if v == nan {
			return true
		}
	}
	return false
}

// LoadDataset 读取问卷文件, 合成航司与日期, 构建只读数据集
func LoadDataset(filePath string, dcfg *config.DataConfig, seed int64) (*processor.Dataset, error) {
	df, err := ReadTable(filePath, dcfg.HeaderRow)
	if err != nil {
		return nil, err
	}

	aug, err := processor.NewAugmenter(dcfg, seed)
	if err != nil {
		return nil, err
	}

	ds, err := processor.NewDataset(aug.Augment(df), dcfg)
	if err != nil {
		return nil, fmt.Errorf("构建数据集失败 %s: %w", filePath, err)
	}
	return ds, nil
}
