package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datapush"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/email"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
	"github.com/anu-justdidit/airline-dash-app/src/web"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live dashboard",
	Long: `Load the survey file, augment it with synthetic airline and flight date,
and serve the dashboard. The year cursor starts playing at the first year.

Background jobs (robfig/cron):
  log rotation check      rotate_spec
  mailbox poll            email.check_interval, only when email.server is set
  digest push             digest.spec, only when digest.webhook is set

The survey file is watched; writing it reloads the dataset.
SIGHUP reopens the log file, SIGINT/SIGTERM shut down.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, dcfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	// 数据文件缺失或缺少满意度列时直接退出
	ds, err := file.LoadDataset(cfg.DataFile, dcfg, cfg.Seed)
	if err != nil {
		logger.Fatal("加载数据失败: " + err.Error())
		return err
	}
	min, max := ds.YearRange()
	logger.Info(fmt.Sprintf("已加载 %d 条记录, 年份 %d-%d", ds.Len(), min, max))

	metrics := web.NewMetrics()
	session := web.NewSession(ds, time.Duration(cfg.Playback.Interval), metrics)
	hub := web.NewHub(logger, metrics)
	defer hub.Close()
	srv := web.NewServer(cfg, dcfg, session, hub, metrics, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	file.SetupSignalHandler(cancel, func(format string, v ...interface{}) {
		logger.Info(fmt.Sprintf(format, v...))
	})

	if err := writePID(cfg.PidFile); err != nil {
		logger.Warning("写入pid文件失败: " + err.Error())
	} else {
		defer os.Remove(cfg.PidFile)
	}

	go web.NewPlayer(session, hub).Run(ctx)

	monitor, err := file.NewFileMonitor(cfg.DataFile)
	if err != nil {
		logger.Warning("文件监控启动失败, 不会自动重新加载: " + err.Error())
	} else {
		defer monitor.Close()
		go func() {
			err := monitor.Watch(func(path string) {
				logger.Info("检测到数据文件更新: " + path)
				srv.Reload(file.LoadDataset(path, dcfg, cfg.Seed))
			})
			if err != nil {
				logger.Error("文件监控错误: " + err.Error())
			}
		}()
	}

	c, err := scheduleJobs(ctx, cfg, dcfg, session, metrics, logger)
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("看板已启动: " + cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			// 配合rotate命令或外部logrotate
			if err := logger.Reopen(""); err != nil {
				fmt.Fprintln(os.Stderr, "重新打开日志失败:", err)
			} else {
				logger.Info("收到SIGHUP, 日志文件已重新打开")
			}
		case err := <-serveErr:
			logger.Error("HTTP服务异常退出: " + err.Error())
			return err
		case <-ctx.Done():
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warning("关闭HTTP服务失败: " + err.Error())
			}
			logger.Info("看板已停止")
			return nil
		}
	}
}

// scheduleJobs 注册日志轮转、邮箱轮询和摘要推送任务
func scheduleJobs(ctx context.Context, cfg *config.Config, dcfg *config.DataConfig, session *web.Session, metrics *web.Metrics, logger *storage.Logger) (*cron.Cron, error) {
	c := cron.New()

	err := c.AddFunc(cfg.RotateSpec, func() {
		if err := logger.CheckRotate(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "日志轮转失败:", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("创建日志轮转任务失败: %w", err)
	}

	if cfg.Email.Server != "" {
		client := email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password, logger)
		handler := email.NewSurveyAttachmentHandler(cfg.Email.TargetSubject, cfg.DataFile, dcfg, logger)
		spec := fmt.Sprintf("@every %s", time.Duration(cfg.Email.CheckInterval))
		err := c.AddFunc(spec, func() {
			t1 := time.Now()
			saved, err := email.CheckAndProcessEmails(client, handler, cfg.Email.TargetSubject, logger)
			if err != nil {
				logger.Error("检查处理邮件失败: " + err.Error())
				return
			}
			if saved {
				logger.Info(fmt.Sprintf("邮件附件已保存, 耗时 %v", time.Since(t1)))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("创建邮件检查任务失败: %w", err)
		}
		logger.Info(fmt.Sprintf("邮件监控已启用(检查间隔: %s)", spec))
	}

	if cfg.Digest.Webhook != "" {
		pusher := datapush.NewPusher(cfg.Digest.Webhook)
		err := c.AddFunc(cfg.Digest.Spec, func() {
			err := pusher.PushView(ctx, session.View())
			metrics.DigestPushed(err)
			if err != nil {
				logger.Error("推送摘要失败: " + err.Error())
				return
			}
			logger.Info("摘要已推送")
		})
		if err != nil {
			return nil, fmt.Errorf("创建摘要推送任务失败: %w", err)
		}
	}
	return c, nil
}

func writePID(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}
