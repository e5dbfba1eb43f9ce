package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"yqhp/robot-fleet/internal/config"
	"yqhp/robot-fleet/internal/fleet"
	"yqhp/robot-fleet/internal/report"
)

type stressOptions struct {
	robots          []int
	tasks           []int
	zones           []int
	workMS          int
	validate        bool
	simulateOffline bool
}

func newStressCmd(opts *globalOptions) *cobra.Command {
	so := &stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "按参数组合批量运行基准并输出 CSV",
		Long: `对机器人数量、任务数与区域数的全部组合各运行一次 bench，
输出一行 CSV 表头，之后每次运行一行。非正的区域数会被忽略并给出警告。`,
		Example: `  robot-fleet stress
  robot-fleet stress --robots 1,4,16 --tasks 20 --zones 1,2 --validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, base := so.apply(cmd, opts.cfg)

			robots, tasks, zones := sweep.Robots, sweep.Tasks, config.PositiveZones(sweep.Zones)
			if err := checkSets(robots, tasks); err != nil {
				return err
			}
			if dropped := len(sweep.Zones) - len(zones); dropped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "stress warning: ignored %d zone set(s) <= 0\n", dropped)
			}
			if len(zones) == 0 {
				return fmt.Errorf("stress error: zones must be > 0")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			out := report.NewCSVWriter(cmd.OutOrStdout())
			if err := out.WriteHeader(); err != nil {
				return err
			}

			var failures error
			for _, runCfg := range expand(base, robots, tasks, zones) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c, err := fleet.New(runCfg, fleet.WithLogger(opts.log))
				if err != nil {
					return err
				}
				r, runErr := c.Run(ctx)
				if runErr != nil {
					opts.log.Error("stress run failed",
						zap.Int("robots", runCfg.Robots),
						zap.Int("tasks_per_robot", runCfg.TasksPerRobot),
						zap.Int("zones", runCfg.Zones),
						zap.Error(runErr))
					failures = multierr.Append(failures, runErr)
				}
				if r == nil {
					continue
				}
				if err := out.Write(r); err != nil {
					return err
				}
				if err := report.WriteDiagnostics(cmd.ErrOrStderr(), r, runCfg.CheckViolations); err != nil {
					return err
				}
			}
			if failures != nil {
				return fmt.Errorf("stress failed: %w", failures)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&so.robots, "robots", nil, "机器人数量集合（默认取配置）")
	cmd.Flags().IntSliceVar(&so.tasks, "tasks", nil, "每个机器人的任务数集合（默认取配置）")
	cmd.Flags().IntSliceVar(&so.zones, "zones", nil, "区域数量集合（默认取配置）")
	cmd.Flags().IntVar(&so.workMS, "work-ms", 0, "每个任务的工作时长，毫秒（默认取 bench 配置）")
	cmd.Flags().BoolVar(&so.validate, "validate", false, "在标准错误输出区域与重复任务违规")
	cmd.Flags().BoolVar(&so.simulateOffline, "simulate-offline", false, "让一个机器人中途停止心跳")
	return cmd
}

// apply 合并命令行参数，返回参数集合与每次运行共用的 bench 配置
func (so *stressOptions) apply(cmd *cobra.Command, cfg *config.Config) (config.StressConfig, fleet.Config) {
	sweep := cfg.Stress
	flags := cmd.Flags()
	if flags.Changed("robots") {
		sweep.Robots = so.robots
	}
	if flags.Changed("tasks") {
		sweep.Tasks = so.tasks
	}
	if flags.Changed("zones") {
		sweep.Zones = so.zones
	}

	base := cfg.Fleet.Bench.Fleet()
	if flags.Changed("work-ms") {
		base.WorkDuration = time.Duration(so.workMS) * time.Millisecond
	}
	if flags.Changed("validate") {
		base.CheckViolations = so.validate
	}
	if flags.Changed("simulate-offline") {
		base.SimulateOffline = so.simulateOffline
	}
	return sweep, base
}

func checkSets(robots, tasks []int) error {
	if len(robots) == 0 {
		return fmt.Errorf("stress error: robot sets must not be empty")
	}
	for _, n := range robots {
		if n <= 0 {
			return fmt.Errorf("stress error: robot sets must be > 0")
		}
	}
	if len(tasks) == 0 {
		return fmt.Errorf("stress error: task sets must not be empty")
	}
	for _, n := range tasks {
		if n <= 0 {
			return fmt.Errorf("stress error: task sets must be > 0")
		}
	}
	return nil
}

// expand returns one run configuration per robots x tasks x zones combination,
// robots varying slowest.
func expand(base fleet.Config, robots, tasks, zones []int) []fleet.Config {
	runs := make([]fleet.Config, 0, len(robots)*len(tasks)*len(zones))
	for _, r := range robots {
		for _, t := range tasks {
			for _, z := range zones {
				c := base
				c.Robots, c.TasksPerRobot, c.Zones = r, t, z
				if c.SimulateOffline && int(c.SilencedRobot) >= r {
					c.SilencedRobot = 0
				}
				runs = append(runs, c)
			}
		}
	}
	return runs
}
