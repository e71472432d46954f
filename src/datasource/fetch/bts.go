package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// 输出文件名, 位于 data_dir/raw 下
const (
	RawDir         = "raw"
	BTSFile        = "bts_delays.csv"
	SurveyFile     = "satisfaction.csv"
	syntheticRows  = 1000
	maxDownloadLen = 1 << 30
)

var (
	ErrBadStatus = errors.New("下载返回非200状态")
	ErrNoCSV     = errors.New("压缩包中没有csv文件")
)

// Result 一次抓取的结果
type Result struct {
	BTSPath       string
	Rows          int
	Synthetic     bool // 下载失败, 使用了合成数据
	SurveyPath    string
	SurveySampled bool // 问卷文件不存在, 生成了样例
}

// Fetcher 下载BTS准点数据, 失败时生成合成数据
type Fetcher struct {
	URL    string
	Year   int
	Month  int
	Dir    string
	Seed   int64
	Client *http.Client
	dcfg   *config.DataConfig
	logger *storage.Logger
}

func NewFetcher(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *Fetcher {
	return &Fetcher{
		URL:    fmt.Sprintf(cfg.Fetch.URLTemplate, cfg.Fetch.Year, cfg.Fetch.Month),
		Year:   cfg.Fetch.Year,
		Month:  cfg.Fetch.Month,
		Dir:    filepath.Join(cfg.DataDir, RawDir),
		Seed:   cfg.Seed,
		Client: &http.Client{Timeout: time.Duration(cfg.Fetch.Timeout)},
		dcfg:   dcfg,
		logger: logger,
	}
}

// Run 下载并保存BTS数据, 任何失败都记录日志并退回合成数据
// 问卷文件缺失时生成一份样例, 已存在的文件不会被覆盖
func (f *Fetcher) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	res := &Result{
		BTSPath:    filepath.Join(f.Dir, BTSFile),
		SurveyPath: filepath.Join(f.Dir, SurveyFile),
	}

	f.logger.Info(fmt.Sprintf("下载BTS数据: %s", f.URL))
	df, err := f.download(ctx)
	if err != nil {
		f.logger.Error(fmt.Sprintf("下载BTS数据失败: %v, 使用合成数据", err))
		start := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		df = SyntheticBTS(syntheticRows, f.Seed, start, f.dcfg)
		res.Synthetic = true
	}
	if err := writeCSV(df, res.BTSPath); err != nil {
		return nil, err
	}
	res.Rows = df.Nrow()
	f.logger.Info(fmt.Sprintf("BTS数据已保存到 %s (%d 行)", res.BTSPath, res.Rows))

	if _, err := os.Stat(res.SurveyPath); err == nil {
		f.logger.Info(fmt.Sprintf("已找到问卷数据 %s", res.SurveyPath))
		return res, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	f.logger.Warning(fmt.Sprintf("缺少问卷数据 %s, 生成样例数据", res.SurveyPath))
	if err := writeCSV(SampleSurvey(syntheticRows, f.Seed, f.dcfg), res.SurveyPath); err != nil {
		return nil, err
	}
	res.SurveySampled = true
	return res, nil
}

func (f *Fetcher) download(ctx context.Context) (dataframe.DataFrame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadLen))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取响应失败: %w", err)
	}

	zipPath := filepath.Join(f.Dir, fmt.Sprintf("ontime_%d_%02d.zip", f.Year, f.Month))
	if err := os.WriteFile(zipPath, body, 0644); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("保存压缩包失败: %w", err)
	}

	return ExtractBTS(body)
}

// ExtractBTS 读取压缩包中第一个csv, 只保留存在的相关列
func ExtractBTS(zipData []byte) (dataframe.DataFrame, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("打开压缩包失败: %w", err)
	}

	for _, zf := range zr.File {
		if !strings.EqualFold(filepath.Ext(zf.Name), ".csv") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("读取 %s 失败: %w", zf.Name, err)
		}
		df, err := file.ReadCSVFrom(rc)
		rc.Close()
		if err != nil {
			return df, err
		}
		return selectAvailable(df, processor.BTSColumns), nil
	}
	return dataframe.DataFrame{}, ErrNoCSV
}

func selectAvailable(df dataframe.DataFrame, wanted []string) dataframe.DataFrame {
	var cols []string
	for _, c := range wanted {
		if utils.HasColumn(df, c) {
			cols = append(cols, c)
		}
	}
	return df.Select(cols)
}

func writeCSV(df dataframe.DataFrame, path string) error {
	if df.Err != nil {
		return df.Err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer out.Close()

	if err := df.WriteCSV(out); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
