package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yqhp/robot-fleet/internal/config"
	"yqhp/robot-fleet/internal/fleet"
	"yqhp/robot-fleet/internal/metrics"
	"yqhp/robot-fleet/internal/report"
)

type benchOptions struct {
	robots          int
	tasks           int
	zones           int
	workMS          int
	validate        bool
	simulateOffline bool
	format          string
	metricsOut      string
}

func newBenchCmd(opts *globalOptions) *cobra.Command {
	bo := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "运行一次基准测试并输出 CSV",
		Long: `按 bench 配置运行一次编队，在标准输出写入 CSV 表头与一行结果。
剩余任务与（--validate 时的）违规信息以 # 开头写入标准错误。`,
		Example: `  robot-fleet bench
  robot-fleet bench --robots 8 --tasks 50 --zones 4 --work-ms 2 --validate
  robot-fleet bench --format json --metrics-out fleet.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := bo.apply(cmd, opts.cfg.Fleet.Bench)
			if bo.format != "csv" && bo.format != "json" {
				return fmt.Errorf("unknown format %q, must be csv or json", bo.format)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			m := metrics.NewCollector()
			c, err := fleet.New(profile.Fleet(), fleet.WithLogger(opts.log), fleet.WithMetrics(m))
			if err != nil {
				return err
			}
			r, runErr := c.Run(ctx)
			if r == nil {
				return runErr
			}

			if bo.format == "json" {
				err = report.WriteJSON(cmd.OutOrStdout(), r)
			} else {
				err = report.NewCSVWriter(cmd.OutOrStdout()).Write(r)
			}
			if err != nil {
				return err
			}
			if err := report.WriteDiagnostics(cmd.ErrOrStderr(), r, profile.Validate); err != nil {
				return err
			}
			if bo.metricsOut != "" {
				if err := m.WriteTextfile(bo.metricsOut); err != nil {
					return fmt.Errorf("写入指标文件失败: %w", err)
				}
			}
			if runErr != nil {
				return fmt.Errorf("benchmark failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bo.robots, "robots", 0, "机器人数量（默认取配置）")
	cmd.Flags().IntVar(&bo.tasks, "tasks", 0, "每个机器人的任务数（默认取配置）")
	cmd.Flags().IntVar(&bo.zones, "zones", 0, "区域数量（默认取配置）")
	cmd.Flags().IntVar(&bo.workMS, "work-ms", 0, "每个任务的工作时长，毫秒（默认取配置）")
	cmd.Flags().BoolVar(&bo.validate, "validate", false, "在标准错误输出区域与重复任务违规")
	cmd.Flags().BoolVar(&bo.simulateOffline, "simulate-offline", false, "让一个机器人中途停止心跳")
	cmd.Flags().StringVar(&bo.format, "format", "csv", "输出格式: csv 或 json")
	cmd.Flags().StringVar(&bo.metricsOut, "metrics-out", "", "将 Prometheus 指标写入该文件")
	return cmd
}

// apply 将显式设置的命令行参数覆盖到配置上
func (bo *benchOptions) apply(cmd *cobra.Command, p config.ProfileConfig) config.ProfileConfig {
	flags := cmd.Flags()
	if flags.Changed("robots") {
		p.Robots = bo.robots
	}
	if flags.Changed("tasks") {
		p.TasksPerRobot = bo.tasks
	}
	if flags.Changed("zones") {
		p.Zones = bo.zones
	}
	if flags.Changed("work-ms") {
		p.WorkDuration = time.Duration(bo.workMS) * time.Millisecond
	}
	if flags.Changed("validate") {
		p.Validate = bo.validate
	}
	if flags.Changed("simulate-offline") {
		p.SimulateOffline = bo.simulateOffline
	}
	return p
}
