package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/anu-justdidit/airline-dash-app/src/storage"
)

const (
	// 只看最近一天的未读邮件, 最多列出这么多封
	RecentMailDuration = 24 * time.Hour
	MaxListMessages    = 100
	inbox              = "INBOX"
)

var (
	ErrNotConnected = errors.New("未连接到邮件服务器")
	ErrNoMessage    = errors.New("邮件不存在")
)

func init() {
	// 正文和附件的GBK编码也交给同一个转换器
	message.CharsetReader = charsetReader
}

// MailService 问卷邮件来源
// 先只列信封挑出目标邮件, 再单独下载它的正文和附件
type MailService interface {
	Connect() error
	Disconnect()
	ListUnread() ([]*Email, error)
	FetchBody(uid uint32) (*Email, error)
}

// EmailHandler 处理目标邮件, 返回是否落地了新的数据文件
type EmailHandler interface {
	Handle(email *Email) (bool, error)
}

// Email 邮件摘要; 由 ListUnread 返回时 Attachments 为空
type Email struct {
	UID         uint32
	Date        time.Time
	From        string
	Subject     string
	Attachments []*Attachment
}

type Attachment struct {
	Filename string
	Content  []byte
}

// EmailClient IMAP客户端, 每次检查都重新登录
type EmailClient struct {
	server   string // 形如 imap.qq.com:993
	username string
	password string
	logger   *storage.Logger

	mu     sync.Mutex
	client *client.Client
}

func NewEmailClient(server, username, password string, logger *storage.Logger) *EmailClient {
	return &EmailClient{
		server:   server,
		username: username,
		password: password,
		logger:   logger,
	}
}

func (s *EmailClient) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if _, err := s.client.Capability(); err == nil {
			return nil
		}
		s.client.Logout()
		s.client = nil
	}

	c, err := client.DialTLS(s.server, nil)
	if err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}
	if err := c.Login(s.username, s.password); err != nil {
		c.Logout()
		return fmt.Errorf("登录失败: %w", err)
	}
	s.client = c
	return nil
}

func (s *EmailClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Logout()
		s.client = nil
	}
}

// ListUnread 列出最近的未读邮件信封, 不下载正文, 邮件保持未读
func (s *EmailClient) ListUnread() ([]*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}
	if _, err := s.client.Select(inbox, false); err != nil {
		return nil, fmt.Errorf("选择邮箱失败: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-RecentMailDuration)
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("搜索邮件失败: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	// UID递增, 保留最新的
	if len(uids) > MaxListMessages {
		uids = uids[len(uids)-MaxListMessages:]
	}

	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid}
	var emails []*Email
	err = s.uidFetch(uids, items, func(msg *imap.Message) {
		if e := envelopeEmail(msg); e != nil {
			emails = append(emails, e)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("获取邮件信封失败: %w", err)
	}
	return emails, nil
}

// FetchBody 下载一封邮件并解析附件, 服务器会把它标记为已读
func (s *EmailClient) FetchBody(uid uint32) (*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	var (
		email    *Email
		parseErr error
	)
	err := s.uidFetch([]uint32{uid}, items, func(msg *imap.Message) {
		if email == nil && parseErr == nil {
			email, parseErr = parseEmail(msg, section, s.logf)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("获取邮件内容失败(UID:%d): %w", uid, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if email == nil {
		return nil, fmt.Errorf("%w: UID %d", ErrNoMessage, uid)
	}
	return email, nil
}

// uidFetch 调用方需持有锁
func (s *EmailClient) uidFetch(uids []uint32, items []imap.FetchItem, each func(*imap.Message)) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, items, messages)
	}()
	for msg := range messages {
		each(msg)
	}
	return <-done
}

func (s *EmailClient) logf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Warning(fmt.Sprintf(format, v...))
	}
}

// envelopeEmail 信封转为邮件摘要, 没有信封时返回nil
func envelopeEmail(msg *imap.Message) *Email {
	if msg == nil || msg.Envelope == nil {
		return nil
	}
	env := msg.Envelope
	e := &Email{
		UID:     msg.Uid,
		Date:    env.Date,
		Subject: decodeHeader(env.Subject),
	}
	if e.Date.IsZero() {
		e.Date = msg.InternalDate
	}
	if len(env.From) > 0 && env.From[0] != nil {
		from := env.From[0]
		e.From = from.Address()
		if name := decodeHeader(from.PersonalName); name != "" {
			e.From = fmt.Sprintf("%s <%s>", name, e.From)
		}
	}
	return e
}

func parseEmail(msg *imap.Message, section *imap.BodySectionName, logf func(string, ...interface{})) (*Email, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("邮件正文为空(UID:%d)", msg.Uid)
	}

	email, err := ParseMessage(r, logf)
	if err != nil {
		return nil, err
	}
	email.UID = msg.Uid
	if email.Date.IsZero() {
		email.Date = msg.InternalDate
	}
	return email, nil
}

// ParseMessage 解析RFC 5322邮件, 提取主题、发件人和附件
func ParseMessage(r io.Reader, logf func(string, ...interface{})) (*Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("创建邮件阅读器失败: %w", err)
	}

	header := mr.Header
	date, _ := header.Date()
	email := &Email{
		Date:    date,
		From:    decodeHeader(header.Get("From")),
		Subject: decodeHeader(header.Get("Subject")),
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 后面的部分已无法读取
			logf("邮件部分解析失败: %v", err)
			break
		}
		if h, ok := p.Header.(*mail.AttachmentHeader); ok {
			if err := parseAttachment(h, p.Body, email); err != nil {
				logf("解析附件失败: %v", err)
			}
		}
	}
	return email, nil
}

func parseAttachment(h *mail.AttachmentHeader, body io.Reader, email *Email) error {
	filename, err := h.Filename()
	if err != nil || filename == "" {
		return fmt.Errorf("无效的附件名")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("读取附件内容失败: %w", err)
	}
	email.Attachments = append(email.Attachments, &Attachment{
		Filename: decodeHeader(filename),
		Content:  buf.Bytes(),
	})
	return nil
}

// decodeHeader 解码 =?charset?encoding?text?= 形式的头, 失败时原样返回
func decodeHeader(header string) string {
	decoder := mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := decoder.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// charsetReader GBK系列转UTF-8, 其他编码原样返回
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "gbk", "gb2312", "gb18030":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return input, nil
	}
}

// processedChecker 已处理过的邮件不再下载正文
type processedChecker interface {
	IsProcessed(uid uint32) bool
}

// CheckAndProcessEmails 在未读邮件中找主题包含关键词的最新一封, 下载后交给handler
// 返回是否有新的数据文件落地
func CheckAndProcessEmails(mailService MailService, handler EmailHandler, keyword string, logger *storage.Logger) (bool, error) {
	logger.Info("开始检查邮箱...")
	if err := mailService.Connect(); err != nil {
		return false, fmt.Errorf("连接失败: %w", err)
	}
	defer mailService.Disconnect()

	envelopes, err := mailService.ListUnread()
	if err != nil {
		return false, fmt.Errorf("获取邮件失败: %w", err)
	}
	target := filterLatestTargetEmail(envelopes, keyword)
	if target == nil {
		logger.Info("没有目标邮件")
		return false, nil
	}
	if pc, ok := handler.(processedChecker); ok && pc.IsProcessed(target.UID) {
		logger.Info(fmt.Sprintf("邮件已处理过(UID:%d)", target.UID))
		return false, nil
	}

	email, err := mailService.FetchBody(target.UID)
	if err != nil {
		return false, err
	}
	saved, err := handler.Handle(email)
	if err != nil {
		return false, fmt.Errorf("处理邮件失败(UID:%d): %w", email.UID, err)
	}
	return saved, nil
}

// filterLatestTargetEmail 主题包含关键词(不区分大小写)的邮件中日期最新的一封
func filterLatestTargetEmail(emails []*Email, keyword string) *Email {
	keyword = strings.ToLower(keyword)
	var matched []*Email
	for _, email := range emails {
		if strings.Contains(strings.ToLower(email.Subject), keyword) {
			matched = append(matched, email)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})
	return matched[0]
}
