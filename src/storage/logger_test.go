package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anu-justdidit/airline-dash-app/src/config"
)

func TestLoggerWritesFileAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	var buf bytes.Buffer
	logger.SetMirror(&buf)
	logger.Info("dataset loaded")
	logger.Error("fetch failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: dataset loaded")
	assert.Contains(t, string(data), "ERROR: fetch failed")
	assert.Equal(t, string(data), buf.String())
}

func TestLoggerSubscribe(t *testing.T) {
	logger, err := NewLogger(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer logger.Close()

	sub := logger.Subscribe()
	logger.Warning("slow tick")

	msg := <-sub
	assert.True(t, strings.HasSuffix(msg, "WARNING: slow tick\n"))

	logger.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)

	// 取消订阅后继续写日志不能阻塞或panic
	logger.Info("after unsubscribe")
}

func TestLoggerRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	cfg, _ := config.Default()
	cfg.LogMaxSize = "16"

	logger.Info("this line is longer than sixteen bytes")
	require.NoError(t, logger.CheckRotate(cfg))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestLoggerReopen(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(filepath.Join(dir, "a.log"))
	require.NoError(t, err)
	defer logger.Close()

	next := filepath.Join(dir, "b.log")
	require.NoError(t, logger.Reopen(next))
	logger.Info("moved")

	data, err := os.ReadFile(next)
	require.NoError(t, err)
	assert.Contains(t, string(data), "moved")
}

func TestEval(t *testing.T) {
	assert.Equal(t, int64(10*1024*1024), eval("10 * 1024 * 1024"))
	assert.Equal(t, int64(2048), eval("2*1024"))
	assert.Equal(t, int64(1), eval(""))
}
