package main

import (
	"github.com/spf13/cobra"

	"demo-tools/internal/logger"
	"demo-tools/internal/metrics"
	"demo-tools/internal/prober"
)

const defaultBaseURL = "http://localhost:8080"

func newAPICmd(a *app) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "API测试工具",
	}

	var healthURL string
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "测试API健康状态",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := metrics.NewMetrics()
			result := prober.New(a.cfg, m).HealthCheck(cmd.Context(), healthURL)
			a.printer.Health(result)
			a.dumpMetrics(m)
			return outcome(result.OK())
		},
	}
	healthCmd.Flags().StringVarP(&healthURL, "url", "u", defaultBaseURL, "API基础URL")

	var usersURL string
	usersCmd := &cobra.Command{
		Use:   "test-users",
		Short: "测试用户API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := metrics.NewMetrics()
			result := prober.New(a.cfg, m).TestUsers(cmd.Context(), usersURL)
			a.printer.Users(result)
			a.dumpMetrics(m)
			return outcome(result.OK())
		},
	}
	usersCmd.Flags().StringVarP(&usersURL, "url", "u", defaultBaseURL, "API基础URL")

	apiCmd.AddCommand(healthCmd, usersCmd)
	return apiCmd
}

// dumpMetrics 配置了textfile时把本次探测指标写入文件
func (a *app) dumpMetrics(m *metrics.Metrics) {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warnf("写入指标文件失败: %v", err)
	}
}
