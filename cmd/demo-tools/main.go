package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"demo-tools/internal/config"
	"demo-tools/internal/logger"
	"demo-tools/internal/report"
)

const (
	appVersion = "1.0.0"
	appName    = "demo-tools"
)

// errFailed 操作已执行完并输出了失败信息，只需要以非零状态退出
var errFailed = errors.New("操作失败")

// app 各子命令共享的运行状态
type app struct {
	configFile string
	cfg        *config.Config
	printer    *report.Printer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{printer: report.New(out, errOut)}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "演示项目开发辅助工具",
		Long:    "demo-tools 提供测试数据生成、系统监控和API测试等开发辅助功能。",
		Version: appVersion,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "配置文件路径 (YAML)")

	rootCmd.AddCommand(newDataCmd(a))
	rootCmd.AddCommand(newMonitorCmd(a))
	rootCmd.AddCommand(newAPICmd(a))
	rootCmd.AddCommand(newServeCmd(a))

	return rootCmd
}

// init 加载配置并初始化日志
func (a *app) init() error {
	if a.configFile == "" {
		a.cfg = config.Default()
	} else {
		cfg, err := config.Load(a.configFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if err := logger.Init(a.cfg.Logging); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	logger.Debugf("启动 %s v%s", appName, appVersion)
	if a.configFile != "" {
		logger.Debugf("配置文件: %s", a.configFile)
	}
	return nil
}

// outcome 把操作结论转换为命令返回值
func outcome(ok bool) error {
	if ok {
		return nil
	}
	return errFailed
}
