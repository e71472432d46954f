package processor

import "strings"

// Label 满意度标签, 归一化后只有两种取值
type Label string

const (
	Satisfied    Label = "satisfied"
	Dissatisfied Label = "neutral or dissatisfied"
)

// Labels 固定的类别顺序, 图表和导出都按此顺序输出
var Labels = []Label{Satisfied, Dissatisfied}

const positiveToken = "satisf"

var negativeTokens = []string{"neutral", "diss", "unsatisf"}

// NormalizeSatisfaction 将原始满意度文本归入两个桶之一
// present 为 false 表示单元格为空值, 归入负向桶; 任何无法识别的值同样归入负向桶
func NormalizeSatisfaction(raw string, present bool) Label {
	if !present {
		return Dissatisfied
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(s, positiveToken) {
		return Dissatisfied
	}
	for _, tok := range negativeTokens {
		if strings.Contains(s, tok) {
			return Dissatisfied
		}
	}
	return Satisfied
}

// Score 满意为1, 其余为0, 合并统计时使用
func (l Label) Score() float64 {
	if l == Satisfied {
		return 1
	}
	return 0
}
