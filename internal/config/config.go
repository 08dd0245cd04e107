// Package config provides configuration management for r0.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (R0_*)
// 3. Project config (.ralph/config.yaml in cwd, or R0_CONFIG)
// 4. Home config (~/.r0/config.yaml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/r0-loop/r0/internal/budget"
)

// Config holds all r0 configuration.
type Config struct {
	// Agent is the backend name looked up in the agent catalog.
	Agent string `yaml:"agent" json:"agent"`

	// Dir is the workspace folder (default: .ralph).
	Dir string `yaml:"dir" json:"dir"`

	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// Verbose enables diagnostic output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	Budget BudgetConfig `yaml:"budget" json:"budget"`

	Loop LoopConfig `yaml:"loop" json:"loop"`
}

// BudgetConfig caps agent invocations. Zero means unlimited.
type BudgetConfig struct {
	Hourly int `yaml:"hourly" json:"hourly"`
	Daily  int `yaml:"daily" json:"daily"`
}

// LoopConfig tunes loop timing. Durations use time.ParseDuration syntax.
type LoopConfig struct {
	// PollInterval is how often diff stats refresh while the agent runs.
	// Default: 2s
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`

	// IterationDelay is the pause between iterations.
	// Default: 1s
	IterationDelay string `yaml:"iteration_delay" json:"iteration_delay"`

	// MaxIterations stops the run after this many iterations (0 = unlimited).
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// Default config values (used in resolution and validation).
const (
	defaultAgent          = "claude"
	defaultDir            = ".ralph"
	defaultOutput         = "table"
	defaultPollInterval   = "2s"
	defaultIterationDelay = "1s"
)

// Environment variable names.
const (
	EnvConfig         = "R0_CONFIG"
	EnvAgent          = "R0_AGENT"
	EnvDir            = "R0_DIR"
	EnvOutput         = "R0_OUTPUT"
	EnvVerbose        = "R0_VERBOSE"
	EnvHourlyBudget   = "R0_HOURLY_BUDGET"
	EnvDailyBudget    = "R0_DAILY_BUDGET"
	EnvPollInterval   = "R0_POLL_INTERVAL"
	EnvIterationDelay = "R0_ITERATION_DELAY"
	EnvMaxIterations  = "R0_MAX_ITERATIONS"
)

// ValidOutputs lists the accepted output formats.
var ValidOutputs = []string{"table", "json", "yaml"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent:   defaultAgent,
		Dir:     defaultDir,
		Output:  defaultOutput,
		Verbose: false,
		Loop: LoopConfig{
			PollInterval:   defaultPollInterval,
			IterationDelay: defaultIterationDelay,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg, err = applyEnv(cfg)
	if err != nil {
		return nil, err
	}

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be represented by the zero-means-unset
// convention.
func (c *Config) Validate() error {
	if c.Budget.Hourly < 0 {
		return fmt.Errorf("budget.hourly %d: %w", c.Budget.Hourly, budget.ErrInvalidLimit)
	}
	if c.Budget.Daily < 0 {
		return fmt.Errorf("budget.daily %d: %w", c.Budget.Daily, budget.ErrInvalidLimit)
	}
	if c.Loop.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must not be negative", ErrInvalidValue)
	}
	if _, err := c.Loop.PollDuration(); err != nil {
		return err
	}
	if _, err := c.Loop.DelayDuration(); err != nil {
		return err
	}
	if !validOutput(c.Output) {
		return fmt.Errorf("%w: output %q (want one of %s)", ErrInvalidValue, c.Output, strings.Join(ValidOutputs, ", "))
	}
	return nil
}

func validOutput(v string) bool {
	for _, o := range ValidOutputs {
		if v == o {
			return true
		}
	}
	return false
}

// Limits converts the budget settings for the limiter.
func (c *Config) Limits() budget.Config {
	var lc budget.Config
	if c.Budget.Hourly > 0 {
		lc.HourlyLimit = budget.Limit(c.Budget.Hourly)
	}
	if c.Budget.Daily > 0 {
		lc.DailyLimit = budget.Limit(c.Budget.Daily)
	}
	return lc
}

// PollDuration parses PollInterval. It must be positive.
func (l LoopConfig) PollDuration() (time.Duration, error) {
	d, err := parseDuration("poll_interval", l.PollInterval, defaultPollInterval)
	if err == nil && d <= 0 {
		err = fmt.Errorf("%w: poll_interval must be positive", ErrInvalidValue)
	}
	return d, err
}

// DelayDuration parses IterationDelay. Zero disables the pause.
func (l LoopConfig) DelayDuration() (time.Duration, error) {
	d, err := parseDuration("iteration_delay", l.IterationDelay, defaultIterationDelay)
	if err == nil && d < 0 {
		err = fmt.Errorf("%w: iteration_delay must not be negative", ErrInvalidValue)
	}
	return d, err
}

func parseDuration(key, raw, def string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		raw = def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, key, raw, err)
	}
	return d, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".r0", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv(EnvConfig)); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, defaultDir, "config.yaml")
}

// loadFromPath loads config from a YAML file. A missing file yields nil.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) (*Config, error) {
	if v := os.Getenv(EnvAgent); v != "" {
		cfg.Agent = v
	}
	if v := os.Getenv(EnvDir); v != "" {
		cfg.Dir = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v, ok := getEnvBool(EnvVerbose); ok && v {
		cfg.Verbose = true
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		cfg.Loop.PollInterval = v
	}
	if v := os.Getenv(EnvIterationDelay); v != "" {
		cfg.Loop.IterationDelay = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvHourlyBudget, &cfg.Budget.Hourly},
		{EnvDailyBudget, &cfg.Budget.Daily},
		{EnvMaxIterations, &cfg.Loop.MaxIterations},
	}
	for _, e := range ints {
		v, ok, err := getEnvInt(e.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*e.dst = v
		}
	}
	return cfg, nil
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
// Booleans only merge upward: a source can enable verbose but not disable it.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Agent, src.Agent)
	mergeStr(&dst.Dir, src.Dir)
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}

	mergeBudget(&dst.Budget, &src.Budget)
	mergeLoop(&dst.Loop, &src.Loop)

	return dst
}

// mergeBudget merges budget fields.
func mergeBudget(dst, src *BudgetConfig) {
	mergeInt(&dst.Hourly, src.Hourly)
	mergeInt(&dst.Daily, src.Daily)
}

// mergeLoop merges loop timing fields.
func mergeLoop(dst, src *LoopConfig) {
	mergeStr(&dst.PollInterval, src.PollInterval)
	mergeStr(&dst.IterationDelay, src.IterationDelay)
	mergeInt(&dst.MaxIterations, src.MaxIterations)
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.r0/config.yaml"
	SourceProject Source = ".ralph/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvString returns the value and whether the env var was set.
func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvBool returns the boolean value and whether it was truthy.
func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "true" || v == "1" {
		return true, true
	}
	return false, false
}

// getEnvInt parses an integer env var. Unset or empty reports ok=false.
func getEnvInt(key string) (int, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, v)
	}
	return n, true, nil
}

type resolved struct {
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// resolveField resolves a value through the precedence chain. Zero values
// count as unset. Returns the resolved value and its source.
func resolveField[T comparable](home, project, env, flag, def T) resolved {
	var zero T
	result := resolved{Value: def, Source: SourceDefault}

	if home != zero {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != zero {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != zero {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != zero {
		result = resolved{Value: flag, Source: SourceFlag}
	}

	return result
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Agent          resolved `json:"agent" yaml:"agent"`
	Dir            resolved `json:"dir" yaml:"dir"`
	Output         resolved `json:"output" yaml:"output"`
	Verbose        resolved `json:"verbose" yaml:"verbose"`
	HourlyBudget   resolved `json:"budget_hourly" yaml:"budget_hourly"`
	DailyBudget    resolved `json:"budget_daily" yaml:"budget_daily"`
	PollInterval   resolved `json:"loop_poll_interval" yaml:"loop_poll_interval"`
	IterationDelay resolved `json:"loop_iteration_delay" yaml:"loop_iteration_delay"`
	MaxIterations  resolved `json:"loop_max_iterations" yaml:"loop_max_iterations"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
// Unreadable config files and malformed env values are treated as unset.
func Resolve(flags *Config) *ResolvedConfig {
	home, _ := loadFromPath(homeConfigPath())
	project, _ := loadFromPath(projectConfigPath())
	if home == nil {
		home = &Config{}
	}
	if project == nil {
		project = &Config{}
	}
	if flags == nil {
		flags = &Config{}
	}

	env := &Config{}
	env.Agent, _ = getEnvString(EnvAgent)
	env.Dir, _ = getEnvString(EnvDir)
	env.Output, _ = getEnvString(EnvOutput)
	env.Verbose, _ = getEnvBool(EnvVerbose)
	env.Loop.PollInterval, _ = getEnvString(EnvPollInterval)
	env.Loop.IterationDelay, _ = getEnvString(EnvIterationDelay)
	env.Budget.Hourly, _, _ = getEnvInt(EnvHourlyBudget)
	env.Budget.Daily, _, _ = getEnvInt(EnvDailyBudget)
	env.Loop.MaxIterations, _, _ = getEnvInt(EnvMaxIterations)

	return &ResolvedConfig{
		Agent:          resolveField(home.Agent, project.Agent, env.Agent, flags.Agent, defaultAgent),
		Dir:            resolveField(home.Dir, project.Dir, env.Dir, flags.Dir, defaultDir),
		Output:         resolveField(home.Output, project.Output, env.Output, flags.Output, defaultOutput),
		Verbose:        resolveField(home.Verbose, project.Verbose, env.Verbose, flags.Verbose, false),
		HourlyBudget:   resolveField(home.Budget.Hourly, project.Budget.Hourly, env.Budget.Hourly, flags.Budget.Hourly, 0),
		DailyBudget:    resolveField(home.Budget.Daily, project.Budget.Daily, env.Budget.Daily, flags.Budget.Daily, 0),
		PollInterval:   resolveField(home.Loop.PollInterval, project.Loop.PollInterval, env.Loop.PollInterval, flags.Loop.PollInterval, defaultPollInterval),
		IterationDelay: resolveField(home.Loop.IterationDelay, project.Loop.IterationDelay, env.Loop.IterationDelay, flags.Loop.IterationDelay, defaultIterationDelay),
		MaxIterations:  resolveField(home.Loop.MaxIterations, project.Loop.MaxIterations, env.Loop.MaxIterations, flags.Loop.MaxIterations, 0),
	}
}
