package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/anu-justdidit/airline-dash-app/src/config"
)

var ErrNoRecipients = errors.New("没有配置收件人")

// Report 一封带附件的报告邮件
type Report struct {
	Body        string
	Attachments []string
}

// BuildReport 组装报告邮件, 不存在的附件跳过并返回其路径
func BuildReport(c *config.Config, r Report) (*email.Email, []string, error) {
	if len(c.SendEmail.To) == 0 {
		return nil, nil, ErrNoRecipients
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("Airline Dashboard <%s>", c.SendEmail.Username)
	e.To = c.SendEmail.To
	e.Subject = c.SendEmail.Subject
	e.Text = []byte(r.Body)

	var missing []string
	for _, path := range r.Attachments {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
			continue
		}
		if _, err := e.AttachFile(path); err != nil {
			return nil, missing, fmt.Errorf("附件添加失败 %s: %w", path, err)
		}
	}
	return e, missing, nil
}

// SendReport 通过SMTP(TLS)发送报告, 只尝试一次
func SendReport(c *config.Config, r Report) ([]string, error) {
	e, missing, err := BuildReport(c, r)
	if err != nil {
		return missing, err
	}

	// 确保服务器地址包含端口
	smtpAddr := c.SendEmail.Server
	if !strings.Contains(smtpAddr, ":") {
		smtpAddr += ":465" // 默认 SSL 端口
	}
	host, _, err := net.SplitHostPort(smtpAddr)
	if err != nil {
		return missing, fmt.Errorf("SMTP地址错误 %s: %w", smtpAddr, err)
	}

	err = e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", c.SendEmail.Username, c.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return missing, fmt.Errorf("邮件发送失败(Server: %s): %w", smtpAddr, err)
	}
	return missing, nil
}
