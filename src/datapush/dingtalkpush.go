package datapush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// 推送摘要里最多列出的航司数量
const topAirlines = 5

const defaultTimeout = 10 * time.Second

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// markdownMessage 机器人markdown消息
type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

// Pusher 向机器人webhook推送看板摘要, 每次只尝试一次
type Pusher struct {
	Webhook string
	Client  *http.Client
}

func NewPusher(webhook string) *Pusher {
	return &Pusher{
		Webhook: webhook,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

// BuildDigest 将视图整理为markdown摘要
func BuildDigest(v processor.View) (title, text string) {
	title = fmt.Sprintf("Airline Satisfaction Digest (≤ %d)", v.Year)

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", title)
	fmt.Fprintf(&b, "- Total records: **%s**\n", utils.FormatCount(v.Summary.Total))
	fmt.Fprintf(&b, "- Satisfied: **%.1f%%** (%s / %s)\n", v.Summary.SatisfiedPct,
		utils.FormatCount(v.Summary.Satisfied), utils.FormatCount(v.Summary.Dissatisfied))
	fmt.Fprintf(&b, "- Avg departure delay: %s\n", formatDelay(v.Summary.AvgDepartureDelay))
	fmt.Fprintf(&b, "- Avg arrival delay: %s\n", formatDelay(v.Summary.AvgArrivalDelay))
	fmt.Fprintf(&b, "- Year %d split: %d satisfied / %d neutral or dissatisfied\n",
		v.Split.Year, v.Split.Satisfied, v.Split.Dissatisfied)

	if len(v.Airlines) > 0 {
		b.WriteString("\n#### Top airlines\n\n")
		for i, a := range v.Airlines {
			if i == topAirlines {
				break
			}
			fmt.Fprintf(&b, "%d. %s: %s (%d satisfied)\n", i+1, a.Airline, utils.FormatCount(a.Total()), a.Satisfied)
		}
	}
	return title, b.String()
}

func formatDelay(v processor.OptionalFloat) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.1f min", v.Value)
}

// PushView 推送当前视图摘要
func (p *Pusher) PushView(ctx context.Context, v processor.View) error {
	title, text := BuildDigest(v)
	return p.PushMarkdown(ctx, title, text)
}

// PushMarkdown 发送markdown消息
func (p *Pusher) PushMarkdown(ctx context.Context, title, text string) error {
	var msg markdownMessage
	msg.MsgType = "markdown"
	msg.Markdown.Title = title
	msg.Markdown.Text = text

	payloadBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Webhook, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("推送失败: %s", resp.Status)
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	if result.ErrCode != 0 {
		return fmt.Errorf("发送消息失败: %s", result.ErrMsg)
	}

	return nil
}
