// email_handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
)

// ====================== 邮件处理器实现 ======================

// SurveyAttachmentHandler 把邮件中的问卷附件写到数据文件位置
// 只接受与数据文件扩展名相同的附件, 写入前先校验内容
type SurveyAttachmentHandler struct {
	TargetSubject string             // 目标邮件主题关键词
	TargetPath    string             // 问卷数据文件路径
	dcfg          *config.DataConfig // 校验必需列使用
	logger        *storage.Logger
	processedUIDs map[uint32]bool // 已处理邮件UID记录
	mu            sync.RWMutex    // 保护processedUIDs的读写锁
}

func NewSurveyAttachmentHandler(subject, targetPath string, dcfg *config.DataConfig, logger *storage.Logger) *SurveyAttachmentHandler {
	return &SurveyAttachmentHandler{
		TargetSubject: subject,
		TargetPath:    targetPath,
		dcfg:          dcfg,
		logger:        logger,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 检查邮件是否已处理过（线程安全）
func (h *SurveyAttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

// markAsProcessed 标记邮件为已处理（线程安全）
func (h *SurveyAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle 处理单个邮件, 保存第一个有效的问卷附件
func (h *SurveyAttachmentHandler) Handle(email *Email) (bool, error) {
	if h.IsProcessed(email.UID) {
		return false, nil
	}

	if !strings.Contains(strings.ToLower(email.Subject), strings.ToLower(h.TargetSubject)) {
		h.logger.Info(fmt.Sprintf("跳过主题不匹配的邮件: %s", email.Subject))
		return false, nil
	}

	h.logger.Info(fmt.Sprintf("处理邮件: %s 发件人: %s 日期: %s",
		email.Subject, email.From, email.Date.Format("2006-01-02 15:04:05")))

	if err := os.MkdirAll(filepath.Dir(h.TargetPath), 0755); err != nil {
		return false, fmt.Errorf("创建目录失败: %w", err)
	}

	wantExt := strings.ToLower(filepath.Ext(h.TargetPath))
	for _, attachment := range email.Attachments {
		if strings.ToLower(filepath.Ext(attachment.Filename)) != wantExt {
			continue
		}

		content, err := PrepareAttachment(attachment, h.dcfg)
		if err != nil {
			h.logger.Warning(fmt.Sprintf("附件 %s 无效: %v", attachment.Filename, err))
			continue
		}

		if err := writeAtomic(h.TargetPath, content); err != nil {
			return false, fmt.Errorf("保存附件失败: %w", err)
		}

		h.logger.Info(fmt.Sprintf("附件 %s 已保存到: %s", attachment.Filename, h.TargetPath))
		h.markAsProcessed(email.UID)
		return true, nil
	}

	h.logger.Info(fmt.Sprintf("邮件中没有可用的%s附件", wantExt))
	return false, nil
}

// writeAtomic 先写临时文件再改名, 文件监控不会读到半个文件
func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ingest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
