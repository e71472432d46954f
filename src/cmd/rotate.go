package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Send SIGHUP to a running serve process",
	Long:  `Read pid_file and send SIGHUP; the serve process reopens its log file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		pid, err := readPID(cfg.PidFile)
		if err != nil {
			return err
		}
		if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
			return fmt.Errorf("发送SIGHUP到进程 %d 失败: %w", pid, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SIGHUP sent to %d\n", pid)
		return nil
	},
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取pid文件失败: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid文件内容无效: %q", strings.TrimSpace(string(data)))
	}
	return pid, nil
}
