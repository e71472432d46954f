package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
)

const (
	configFile     = "config.json"
	dataConfigFile = "dataconfig.json"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "airline-dash",
	Short: "Airline customer satisfaction dashboard",
	Long: `Airline customer satisfaction dashboard and data tooling.

COMMANDS
  serve     Run the live dashboard (playback, filters, charts, websocket push)
  fetch     Download BTS on-time data, falling back to synthetic data
  merge     Join BTS performance with survey scores by class
  plot      Render static charts and the correlation matrix from merged data
  rotate    Ask a running serve process to reopen its log file

CONFIG
  <config>/config.json       runtime settings
  <config>/dataconfig.json   column names, airline catalog, class mapping`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./config", "Folder holding config.json and dataconfig.json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(rotateCmd)
}

// loadConfig 配置目录中没有config.json时使用默认配置
func loadConfig() (*config.Config, *config.DataConfig, error) {
	if _, err := os.Stat(filepath.Join(configDir, configFile)); os.IsNotExist(err) {
		cfg, dcfg := config.Default()
		return cfg, dcfg, nil
	}
	cfg, dcfg, err := config.LoadConfig(configDir, configFile, dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, dcfg, nil
}

// newLogger 日志同时输出到文件和终端
func newLogger(cfg *config.Config) (*storage.Logger, error) {
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.SetMirror(os.Stderr)
	return logger, nil
}
