// data_handler.go
package email

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

var ErrInvalidAttachment = errors.New("附件不是有效的问卷数据")

// PrepareAttachment 校验附件是否为可读的问卷表格, 返回需要落地的内容
// GBK编码的csv会先转成UTF-8
func PrepareAttachment(att *Attachment, dcfg *config.DataConfig) ([]byte, error) {
	content := att.Content

	var (
		df  dataframe.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(att.Filename)) {
	case ".csv":
		if !utf8.Valid(content) {
			content, err = simplifiedchinese.GBK.NewDecoder().Bytes(content)
			if err != nil {
				return nil, fmt.Errorf("%w: 编码转换失败: %v", ErrInvalidAttachment, err)
			}
		}
		df, err = file.ReadCSVFrom(bytes.NewReader(content))
	case ".xlsx":
		df, err = file.ReadXLSXBinary(content, "", dcfg.HeaderRow)
	default:
		return nil, fmt.Errorf("%w: 不支持的格式 %s", ErrInvalidAttachment, att.Filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	satCol := dcfg.Column(config.ColSatisfaction)
	if !utils.HasColumn(df, satCol) {
		return nil, fmt.Errorf("%w: 缺少列 %s", ErrInvalidAttachment, satCol)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%w: 没有数据行", ErrInvalidAttachment)
	}
	return content, nil
}
