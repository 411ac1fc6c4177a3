package main

import (
	"github.com/spf13/cobra"

	"demo-tools/internal/datagen"
	"demo-tools/internal/logger"
)

func newDataCmd(a *app) *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "数据处理工具",
	}

	var (
		count  int
		output string
	)
	generateCmd := &cobra.Command{
		Use:   "generate-users",
		Short: "生成测试用户数据",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 未显式指定时使用配置文件中的默认值
			if !cmd.Flags().Changed("count") {
				count = a.cfg.Data.DefaultCount
			}
			if !cmd.Flags().Changed("output") {
				output = a.cfg.Data.DefaultOutput
			}

			a.printer.GenerateStarted(count)
			err := datagen.Generate(count, output)
			a.printer.Generated(output, count, err)
			if err != nil {
				logger.Warnf("生成用户数据失败: %v", err)
			}
			return outcome(err == nil)
		},
	}
	generateCmd.Flags().IntVarP(&count, "count", "c", 10, "生成的用户数量")
	generateCmd.Flags().StringVarP(&output, "output", "o", "users.json", "输出文件路径")

	var file string
	validateCmd := &cobra.Command{
		Use:   "validate-json",
		Short: "验证JSON文件格式",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer.ValidateStarted(file)
			r, err := datagen.Validate(file)
			a.printer.Validation(r, err)
			if err != nil {
				logger.Warnf("验证JSON文件失败: %v", err)
			}
			return outcome(err == nil)
		},
	}
	validateCmd.Flags().StringVarP(&file, "file", "f", "", "要验证的JSON文件路径")
	_ = validateCmd.MarkFlagRequired("file")

	dataCmd.AddCommand(generateCmd, validateCmd)
	return dataCmd
}
