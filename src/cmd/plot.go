package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/email"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/report"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render static charts and the correlation matrix",
	Long: `Read <data_dir>/processed/merged_data.csv and write to report_dir:
  satisfaction_by_airline.png  arrival_delay_by_airline.png
  satisfaction_vs_delay.png    cancellation_rate.png
  correlation_matrix.xlsx      correlation_matrix.csv
When send_email.server is set, the files are mailed to send_email.to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Close()

		files, err := plotReport(cfg)
		if err != nil {
			logger.Error("生成图表失败: " + err.Error())
			return err
		}
		for _, p := range files {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}

		if cfg.SendEmail.Server == "" {
			return nil
		}
		missing, err := email.SendReport(cfg, email.Report{
			Body:        reportBody(files),
			Attachments: files,
		})
		for _, p := range missing {
			logger.Warning("附件不存在: " + p)
		}
		if err != nil {
			logger.Error("发送报告失败: " + err.Error())
			return err
		}
		logger.Info("报告邮件已发送")
		return nil
	},
}

// plotReport 从合并结果生成静态图表和相关矩阵
func plotReport(cfg *config.Config) ([]string, error) {
	merged, err := file.ReadCSV(filepath.Join(cfg.DataDir, ProcessedDir, MergedCSV))
	if err != nil {
		return nil, fmt.Errorf("读取合并数据失败: %w", err)
	}
	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	charts, err := report.RenderStatic(merged, cfg.ReportDir)
	if err != nil {
		return nil, err
	}
	corr, err := report.WriteCorrelation(report.CorrelationMatrix(merged), cfg.ReportDir)
	if err != nil {
		return charts, err
	}
	return append(charts, corr...), nil
}

func reportBody(files []string) string {
	var b strings.Builder
	b.WriteString("Airline satisfaction report\n\n")
	for _, p := range files {
		b.WriteString("- " + filepath.Base(p) + "\n")
	}
	return b.String()
}
