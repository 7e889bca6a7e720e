package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/rundir"
	"github.com/harrison/sweeper/internal/solver"
)

// HistoryConfig represents sweep history configuration
type HistoryConfig struct {
	// Enabled records every sweep and run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the SQLite history database
	DBPath string `yaml:"db_path"`
}

// Config represents a sweep configuration file
type Config struct {
	// Path is the absolute path of the loaded file; relative paths in the
	// file are resolved against its directory
	Path string `yaml:"-"`

	// FileTemplate is the solver input template
	FileTemplate string `yaml:"file_template"`

	// DirOutput is the directory that receives one sub-directory per run
	DirOutput string `yaml:"dir_output"`

	// SolverPath is the 1D Poisson executable, always absolute after loading
	SolverPath string `yaml:"path_1d_poisson"`

	// LogFile optionally mirrors console output to a file
	LogFile string `yaml:"log_file"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Constants are fixed across every run
	Constants []models.Constant `yaml:"-"`

	// Variables are swept over their Cartesian product
	Variables []models.Variable `yaml:"-"`

	// Filter is an optional boolean expression selecting combinations to run
	Filter string `yaml:"filter"`

	// Timeout bounds each solver run (0 = no limit)
	Timeout time.Duration `yaml:"-"`

	// ExistingRuns is the policy for populated run directories (overwrite, fail, skip)
	ExistingRuns string `yaml:"existing_runs"`

	// InputArgument selects what the solver receives (stem, name, path)
	InputArgument string `yaml:"input_argument"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		Timeout:       0,
		ExistingRuns:  string(rundir.PolicyOverwrite),
		InputArgument: string(solver.ArgStem),
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads a sweep configuration from path.
// Unlike tool settings a sweep cannot be defaulted, so a missing file is an
// error. Relative paths are resolved against the file's directory and the
// solver path is made absolute. The history database defaults to
// GetHistoryDBPath.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Path = absPath

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use a temporary struct to handle duration and variable parsing
	type yamlConfig struct {
		FileTemplate  string         `yaml:"file_template"`
		DirOutput     string         `yaml:"dir_output"`
		SolverPath    string         `yaml:"path_1d_poisson"`
		LogFile       string         `yaml:"log_file"`
		LogLevel      string         `yaml:"log_level"`
		Constants     []constantYAML `yaml:"constants"`
		Variables     []variableYAML `yaml:"variables"`
		Filter        string         `yaml:"filter"`
		Timeout       string         `yaml:"timeout"`
		ExistingRuns  string         `yaml:"existing_runs"`
		InputArgument string         `yaml:"input_argument"`
		History       *historyYAML   `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.FileTemplate = yamlCfg.FileTemplate
	cfg.DirOutput = yamlCfg.DirOutput
	cfg.SolverPath = yamlCfg.SolverPath
	cfg.LogFile = yamlCfg.LogFile
	cfg.Filter = yamlCfg.Filter

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.ExistingRuns != "" {
		cfg.ExistingRuns = yamlCfg.ExistingRuns
	}
	if yamlCfg.InputArgument != "" {
		cfg.InputArgument = yamlCfg.InputArgument
	}

	// Only the keys present in the history section override the defaults
	if h := yamlCfg.History; h != nil {
		if h.Enabled != nil {
			cfg.History.Enabled = *h.Enabled
		}
		if h.DBPath != nil {
			cfg.History.DBPath = *h.DBPath
		}
	}

	for _, c := range yamlCfg.Constants {
		cfg.Constants = append(cfg.Constants, models.Constant{Name: c.Name, Value: c.Value})
	}
	for _, v := range yamlCfg.Variables {
		cfg.Variables = append(cfg.Variables, v.Variable)
	}

	cfg.resolvePaths()

	// Without a db_path every sweep shares the database the history command
	// reads by default.
	if cfg.History.DBPath == "" {
		dbPath, err := GetHistoryDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve history database: %w", err)
		}
		if cfg.History.DBPath, err = filepath.Abs(dbPath); err != nil {
			return nil, fmt.Errorf("failed to resolve history database: %w", err)
		}
	}
	return cfg, nil
}

// resolvePaths makes every path absolute relative to the config file.
func (c *Config) resolvePaths() {
	base := filepath.Dir(c.Path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.FileTemplate = resolve(c.FileTemplate)
	c.DirOutput = resolve(c.DirOutput)
	c.SolverPath = resolve(c.SolverPath)
	c.LogFile = resolve(c.LogFile)
	c.History.DBPath = resolve(c.History.DBPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(timeout *time.Duration, logLevel *string, existingRuns *string, historyEnabled *bool) {
	if timeout != nil {
		c.Timeout = *timeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if existingRuns != nil {
		c.ExistingRuns = *existingRuns
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Policy returns the parsed existing_runs policy.
func (c *Config) Policy() (rundir.Policy, error) {
	return rundir.ParsePolicy(c.ExistingRuns)
}

// ArgStyle returns the parsed input_argument convention.
func (c *Config) ArgStyle() (solver.ArgStyle, error) {
	return solver.ParseArgStyle(c.InputArgument)
}

// Validate validates the configuration values.
// Every failure is a *models.ConfigError. Variable and constant specs are
// validated when the parameter space is built.
func (c *Config) Validate() error {
	if c.FileTemplate == "" {
		return models.NewConfigError("file_template", "is required", nil)
	}
	if c.DirOutput == "" {
		return models.NewConfigError("dir_output", "is required", nil)
	}
	if c.SolverPath == "" {
		return models.NewConfigError("path_1d_poisson", "is required", nil)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return models.NewConfigError("log_level", fmt.Sprintf("invalid level %q, must be one of: trace, debug, info, warn, error", c.LogLevel), nil)
	}

	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Timeout < 0 {
		return models.NewConfigError("timeout", fmt.Sprintf("must be >= 0, got %v", c.Timeout), nil)
	}

	if _, err := c.Policy(); err != nil {
		return models.NewConfigError("existing_runs", "invalid policy", err)
	}
	if _, err := c.ArgStyle(); err != nil {
		return models.NewConfigError("input_argument", "invalid convention", err)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return models.NewConfigError("history.db_path", "cannot be empty when history is enabled", nil)
	}

	return nil
}
