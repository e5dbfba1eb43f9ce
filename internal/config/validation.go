package config

import (
	"fmt"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateProfile("fleet.demo", &cfg.Fleet.Demo)
	v.validateProfile("fleet.bench", &cfg.Fleet.Bench)
	v.validateStressConfig(&cfg.Stress)
	v.validateLoggingConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateProfile(section string, p *ProfileConfig) {
	if p.Robots <= 0 {
		v.addError(section+".robots", "robots must be positive")
	}
	if p.TasksPerRobot <= 0 {
		v.addError(section+".tasks_per_robot", "tasks per robot must be positive")
	}
	if p.Zones <= 0 {
		v.addError(section+".zones", "zones must be positive")
	}
	if p.WorkDuration < 0 {
		v.addError(section+".work_duration", "work duration must be non-negative")
	}
	if p.HeartbeatTimeout <= 0 {
		v.addError(section+".heartbeat_timeout", "heartbeat timeout must be positive")
	}
	if p.ScanInterval <= 0 {
		v.addError(section+".scan_interval", "scan interval must be positive")
	}
	if p.OfflinePoll <= 0 {
		v.addError(section+".offline_poll", "offline poll must be positive")
	}
	if p.GraceWindow < 0 {
		v.addError(section+".grace_window", "grace window must be non-negative")
	}
	if p.SimulateOffline && p.Robots > 1 && p.SilencedRobot >= uint64(p.Robots) {
		v.addError(section+".silenced_robot", fmt.Sprintf("silenced robot %d out of range [0,%d)", p.SilencedRobot, p.Robots))
	}
	if p.SilenceAfter < 0 {
		v.addError(section+".silence_after", "silence after must be non-negative")
	} else if p.SimulateOffline && p.Robots > 1 && p.SilenceAfter < 1 {
		v.addError(section+".silence_after", "silence after must be at least 1 when simulating offline")
	}
}

func (v *Validator) validateStressConfig(cfg *StressConfig) {
	if len(cfg.Robots) == 0 {
		v.addError("stress.robots", "robot set must not be empty")
	}
	for _, n := range cfg.Robots {
		if n <= 0 {
			v.addError("stress.robots", fmt.Sprintf("robot count %d must be positive", n))
		}
	}
	if len(cfg.Tasks) == 0 {
		v.addError("stress.tasks", "task set must not be empty")
	}
	for _, n := range cfg.Tasks {
		if n <= 0 {
			v.addError("stress.tasks", fmt.Sprintf("task count %d must be positive", n))
		}
	}
	// non-positive zone counts are skipped by the sweep, but one must remain
	if len(PositiveZones(cfg.Zones)) == 0 {
		v.addError("stress.zones", "zone set must contain a positive count")
	}
}

// validateLoggingConfig validates the logging configuration.
func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if cfg.Level == "" {
		v.addError("logging.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Level))
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if cfg.Format == "" {
		v.addError("logging.format", "log format is required")
	} else if !validFormats[strings.ToLower(cfg.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Format))
	}

	validOutputs := map[string]bool{
		"stderr": true,
		"stdout": true,
		"file":   true,
		"both":   true,
	}
	if cfg.Output == "" {
		v.addError("logging.output", "log output is required")
	} else if !validOutputs[strings.ToLower(cfg.Output)] {
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stderr, stdout, file, both", cfg.Output))
	} else if (cfg.Output == "file" || cfg.Output == "both") && cfg.FilePath == "" {
		v.addError("logging.file_path", "file path is required for file output")
	}
}

// PositiveZones returns the positive entries of zones in order.
func PositiveZones(zones []int) []int {
	return slice.Filter(zones, func(_ int, z int) bool { return z > 0 })
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}
