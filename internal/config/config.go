package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yqhp/robot-fleet/internal/fleet"
	"yqhp/robot-fleet/pkg/logger"
	"yqhp/robot-fleet/pkg/types"
)

// Config represents the complete configuration of the fleet tool.
type Config struct {
	Fleet   FleetConfig   `yaml:"fleet"`
	Stress  StressConfig  `yaml:"stress"`
	Logging LoggingConfig `yaml:"logging" env:"LOG_"`
}

// FleetConfig holds the run profiles used by the demo and bench commands.
type FleetConfig struct {
	Demo  ProfileConfig `yaml:"demo" env:"DEMO_"`
	Bench ProfileConfig `yaml:"bench" env:"BENCH_"`
}

// ProfileConfig is one run profile. Env tags are suffixes appended to the
// loader prefix and the enclosing section's prefix, e.g. RF_BENCH_ROBOTS.
type ProfileConfig struct {
	Robots           int           `yaml:"robots" env:"ROBOTS"`
	TasksPerRobot    int           `yaml:"tasks_per_robot" env:"TASKS_PER_ROBOT"`
	Zones            int           `yaml:"zones" env:"ZONES"`
	WorkDuration     time.Duration `yaml:"work_duration" env:"WORK_DURATION"`
	TaskPrefix       string        `yaml:"task_prefix" env:"TASK_PREFIX"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" env:"HEARTBEAT_TIMEOUT"`
	ScanInterval     time.Duration `yaml:"scan_interval" env:"SCAN_INTERVAL"`
	OfflinePoll      time.Duration `yaml:"offline_poll" env:"OFFLINE_POLL"`
	GraceWindow      time.Duration `yaml:"grace_window" env:"GRACE_WINDOW"`
	SimulateOffline  bool          `yaml:"simulate_offline" env:"SIMULATE_OFFLINE"`
	SilencedRobot    uint64        `yaml:"silenced_robot" env:"SILENCED_ROBOT"`
	SilenceAfter     int           `yaml:"silence_after" env:"SILENCE_AFTER"`
	Validate         bool          `yaml:"validate" env:"VALIDATE"`
}

// StressConfig holds the parameter sets swept by the stress command.
type StressConfig struct {
	Robots []int `yaml:"robots" env:"STRESS_ROBOTS"`
	Tasks  []int `yaml:"tasks" env:"STRESS_TASKS"`
	Zones  []int `yaml:"zones" env:"STRESS_ZONES"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`
	Format   string `yaml:"format" env:"FORMAT"`
	Output   string `yaml:"output" env:"OUTPUT"`
	FilePath string `yaml:"file_path" env:"FILE_PATH"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Fleet: FleetConfig{
			Demo:  FromFleet(fleet.DemoConfig()),
			Bench: FromFleet(fleet.BenchConfig()),
		},
		Stress: StressConfig{
			Robots: []int{1, 2, 4, 8, 12},
			Tasks:  []int{10, 25, 50},
			Zones:  []int{1, 2, 4},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// FromFleet converts a run configuration into its file representation.
func FromFleet(c fleet.Config) ProfileConfig {
	return ProfileConfig{
		Robots:           c.Robots,
		TasksPerRobot:    c.TasksPerRobot,
		Zones:            c.Zones,
		WorkDuration:     c.WorkDuration,
		TaskPrefix:       c.TaskPrefix,
		HeartbeatTimeout: c.HeartbeatTimeout,
		ScanInterval:     c.ScanInterval,
		OfflinePoll:      c.OfflinePoll,
		GraceWindow:      c.GraceWindow,
		SimulateOffline:  c.SimulateOffline,
		SilencedRobot:    uint64(c.SilencedRobot),
		SilenceAfter:     c.SilenceAfter,
		Validate:         c.CheckViolations,
	}
}

// Fleet converts the profile into a run configuration.
func (p ProfileConfig) Fleet() fleet.Config {
	return fleet.Config{
		Robots:           p.Robots,
		TasksPerRobot:    p.TasksPerRobot,
		Zones:            p.Zones,
		WorkDuration:     p.WorkDuration,
		TaskPrefix:       p.TaskPrefix,
		HeartbeatTimeout: p.HeartbeatTimeout,
		ScanInterval:     p.ScanInterval,
		OfflinePoll:      p.OfflinePoll,
		GraceWindow:      p.GraceWindow,
		SimulateOffline:  p.SimulateOffline,
		SilencedRobot:    types.RobotID(p.SilencedRobot),
		SilenceAfter:     p.SilenceAfter,
		CheckViolations:  p.Validate,
	}
}

// Logger converts the logging section into a logger configuration.
func (c LoggingConfig) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Level
	cfg.Format = c.Format
	cfg.Output = c.Output
	cfg.FilePath = c.FilePath
	return cfg
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "RF_",
		cmdArgs:   make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithCmdArgs sets dot-path overrides, e.g. "fleet.bench.robots" -> "8".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	if err := l.applyCmdOverrides(cfg); err != nil {
		return nil, fmt.Errorf("应用命令行参数覆盖失败: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // 文件不存在时使用默认值
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// applyEnvToStruct walks v and sets every field whose prefix+env tag names a
// non-empty environment variable. A struct field's env tag extends the prefix
// for its children.
func (l *Loader) applyEnvToStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		envTag := fieldType.Tag.Get("env")

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field, prefix+envTag); err != nil {
				return err
			}
			continue
		}

		if envTag == "" {
			continue
		}
		name := prefix + envTag
		envValue := os.Getenv(name)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", name, fieldType.Name, err)
		}
	}
	return nil
}

func (l *Loader) applyCmdOverrides(cfg *Config) error {
	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a configuration value by its dot-separated yaml path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field := fieldByYAMLName(v, part)
		if !field.IsValid() {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}
	return nil
}

func fieldByYAMLName(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if tag == name || strings.EqualFold(t.Field(i).Name, strings.ReplaceAll(name, "_", "")) {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("无效的无符号整数: %w", err)
		}
		field.SetUint(u)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的整数列表
		if field.Type().Elem().Kind() != reflect.Int {
			return fmt.Errorf("不支持的切片类型: %s", field.Type().Elem().Kind())
		}
		ints, err := ParseIntList(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(ints))

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}
	return nil
}

// ParseIntList parses a comma-separated list such as "1,2,4".
func ParseIntList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	ints := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("无效的整数列表 %q: %w", value, err)
		}
		ints = append(ints, n)
	}
	return ints, nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}
