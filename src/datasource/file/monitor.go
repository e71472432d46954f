// monitor.go
package file

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 一次保存常常触发多次写事件, 静默这么久之后才回调
const DefaultDebounce = 200 * time.Millisecond

// FileMonitor 监控单个数据文件, 文件被写入或替换时回调
// 监听的是所在目录, 编辑器和邮件落地常用"写临时文件再改名"的方式替换文件
type FileMonitor struct {
	watchDir string
	target   string
	watcher  *fsnotify.Watcher
	Debounce time.Duration
}

func NewFileMonitor(filePath string) (*FileMonitor, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		watchDir: dir,
		target:   abs,
		watcher:  watcher,
		Debounce: DefaultDebounce,
	}, nil
}

// Watch 阻塞直到 Close 被调用或监听出错
// handler 在单独的goroutine里串行执行, 同一时刻最多一个; 执行期间的新变更合并为下一次回调
func (m *FileMonitor) Watch(handler func(string)) error {
	dirty := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-dirty:
				handler(m.target)
			}
		}
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(m.Debounce, func() {
					select {
					case dirty <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(m.Debounce)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// SetupSignalHandler 收到 SIGINT/SIGTERM 时取消上下文
func SetupSignalHandler(cancel context.CancelFunc, logf func(format string, v ...interface{})) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logf("Received signal: %v, shutting down...", sig)
		cancel()
	}()
}
