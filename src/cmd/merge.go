package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/fetch"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// 合并结果位于 data_dir/processed 下
const (
	ProcessedDir = "processed"
	MergedCSV    = "merged_data.csv"
	MergedXLSX   = "merged_data.xlsx"
	mergedSheet  = "Merged"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join BTS performance with survey scores by class",
	Long: `Read <data_dir>/raw/bts_delays.csv and <data_dir>/raw/satisfaction.csv,
aggregate per airline and per class, and write
<data_dir>/processed/merged_data.csv and merged_data.xlsx.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dcfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Close()

		paths, rows, err := mergeFiles(cfg.DataDir, dcfg)
		if err != nil {
			logger.Error("合并失败: " + err.Error())
			return err
		}
		logger.Info(fmt.Sprintf("合并完成, %d 行", rows))
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// mergeFiles 读取原始数据, 合并后写出csv和xlsx, 返回写出的文件与行数
func mergeFiles(dataDir string, dcfg *config.DataConfig) ([]string, int, error) {
	raw := filepath.Join(dataDir, fetch.RawDir)
	bts, err := file.ReadCSV(filepath.Join(raw, fetch.BTSFile))
	if err != nil {
		return nil, 0, fmt.Errorf("读取BTS数据失败: %w", err)
	}
	survey, err := file.ReadCSV(filepath.Join(raw, fetch.SurveyFile))
	if err != nil {
		return nil, 0, fmt.Errorf("读取问卷数据失败: %w", err)
	}

	merged, err := processor.MergeDelaySurvey(bts, survey, dcfg)
	if err != nil {
		return nil, 0, err
	}

	out := filepath.Join(dataDir, ProcessedDir)
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, 0, fmt.Errorf("创建目录失败: %w", err)
	}
	csvPath := filepath.Join(out, MergedCSV)
	if err := writeFrame(merged, csvPath); err != nil {
		return nil, 0, err
	}
	xlsxPath := filepath.Join(out, MergedXLSX)
	if err := utils.SaveToExcel(merged, xlsxPath, mergedSheet); err != nil {
		return nil, 0, fmt.Errorf("写入 %s 失败: %w", xlsxPath, err)
	}
	return []string{csvPath, xlsxPath}, merged.Nrow(), nil
}

func writeFrame(df dataframe.DataFrame, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()
	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
