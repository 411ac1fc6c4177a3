package main

import (
	"github.com/spf13/cobra"

	"demo-tools/internal/monitor"
)

func newMonitorCmd(a *app) *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "系统监控工具",
	}

	systemCmd := &cobra.Command{
		Use:   "system",
		Short: "监控系统资源",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printer.System(monitor.System())
		},
	}

	var name string
	processCmd := &cobra.Command{
		Use:   "process",
		Short: "监控进程状态",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if name != "" {
				a.printer.Process(monitor.Process(name))
				return
			}
			a.printer.Processes(monitor.Processes())
		},
	}
	processCmd.Flags().StringVarP(&name, "name", "n", "", "进程名称，不指定时显示进程概览")

	monitorCmd.AddCommand(systemCmd, processCmd)
	return monitorCmd
}
