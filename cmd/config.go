package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "打印合并后的有效配置",
		Long: `按 默认值 < 配置文件 < 环境变量 < --set 的顺序合并并校验配置，
以 YAML 形式输出到标准输出。`,
		Example: `  robot-fleet config
  robot-fleet --config fleet.yaml --set fleet.bench.robots=8 config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.cfg.Serialize()
			if err != nil {
				return fmt.Errorf("序列化配置失败: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
