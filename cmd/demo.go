package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"yqhp/robot-fleet/internal/fleet"
	"yqhp/robot-fleet/internal/report"
)

func newDemoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "运行离线检测演示",
		Long: `运行一个小规模场景：3 个机器人、每个 3 个任务、2 个区域。
1 号机器人完成 2 个任务后停止心跳，应在结束时被报告为离线。`,
		Example: `  robot-fleet demo
  robot-fleet demo --debug
  robot-fleet demo --set fleet.demo.grace_window=1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			c, err := fleet.New(opts.cfg.Fleet.Demo.Fleet(), fleet.WithLogger(opts.log))
			if err != nil {
				return err
			}
			r, runErr := c.Run(ctx)
			if r != nil {
				if err := report.WriteDemoSummary(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("demo failed: %w", runErr)
			}
			return nil
		},
	}
}
