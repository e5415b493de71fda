package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// MaxSequenceDiagrams is the fixed number of sequence diagrams written per run.
const MaxSequenceDiagrams = 25

// StateDirName is the per-repository state directory.
const StateDirName = ".codevision"

// Config represents the complete codevision configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Compile  CompileConfig  `json:"compile" mapstructure:"compile"`
	Filters  FiltersConfig  `json:"filters" mapstructure:"filters"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Store    StoreConfig    `json:"store" mapstructure:"store"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// AnalysisConfig controls what the scanners accept and how far diagrams reach
type AnalysisConfig struct {
	AcceptPackages      []string `json:"acceptPackages" mapstructure:"acceptPackages"`
	IncludeDependencies bool     `json:"includeDependencies" mapstructure:"includeDependencies"`
	MaxCallDepth        int      `json:"maxCallDepth" mapstructure:"maxCallDepth"`
	MaxSequenceDiagrams int      `json:"maxSequenceDiagrams" mapstructure:"maxSequenceDiagrams"`
	ScanSources         bool     `json:"scanSources" mapstructure:"scanSources"`
}

// CompileConfig controls the external build step
type CompileConfig struct {
	AutoCompile       bool   `json:"autoCompile" mapstructure:"autoCompile"`
	MavenExecutable   string `json:"mavenExecutable" mapstructure:"mavenExecutable"`
	MaxRuntimeSeconds int    `json:"maxRuntimeSeconds" mapstructure:"maxRuntimeSeconds"`
	MaxHeapMb         int    `json:"maxHeapMb" mapstructure:"maxHeapMb"`
}

// FiltersConfig contains classpath filters
type FiltersConfig struct {
	ExcludeJars []string `json:"excludeJars" mapstructure:"excludeJars"`
}

// OutputConfig contains run output settings
type OutputConfig struct {
	Root string `json:"root" mapstructure:"root"`
}

// StoreConfig contains analysis store settings
type StoreConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultExcludeJars are archive name patterns dropped from the classpath.
var DefaultExcludeJars = []string{"*junit*", "*hamcrest*", "*mockito*"}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Analysis: AnalysisConfig{
			AcceptPackages:      []string{},
			IncludeDependencies: true,
			MaxCallDepth:        8,
			MaxSequenceDiagrams: MaxSequenceDiagrams,
			ScanSources:         true,
		},
		Compile: CompileConfig{
			AutoCompile:       true,
			MavenExecutable:   "mvn",
			MaxRuntimeSeconds: 600,
			MaxHeapMb:         1500,
		},
		Filters: FiltersConfig{
			ExcludeJars: append([]string(nil), DefaultExcludeJars...),
		},
		Output: OutputConfig{
			Root: "",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("analysis.acceptPackages", d.Analysis.AcceptPackages)
	v.SetDefault("analysis.includeDependencies", d.Analysis.IncludeDependencies)
	v.SetDefault("analysis.maxCallDepth", d.Analysis.MaxCallDepth)
	v.SetDefault("analysis.maxSequenceDiagrams", d.Analysis.MaxSequenceDiagrams)
	v.SetDefault("analysis.scanSources", d.Analysis.ScanSources)
	v.SetDefault("compile.autoCompile", d.Compile.AutoCompile)
	v.SetDefault("compile.mavenExecutable", d.Compile.MavenExecutable)
	v.SetDefault("compile.maxRuntimeSeconds", d.Compile.MaxRuntimeSeconds)
	v.SetDefault("compile.maxHeapMb", d.Compile.MaxHeapMb)
	v.SetDefault("filters.excludeJars", d.Filters.ExcludeJars)
	v.SetDefault("output.root", d.Output.Root)
	v.SetDefault("store.enabled", d.Store.Enabled)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadConfig loads configuration from .codevision/config.json. Missing keys
// fall back to defaults and CODEVISION_* environment variables override the
// file (CODEVISION_ANALYSIS_MAXCALLDEPTH=12).
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, StateDirName))

	v.SetEnvPrefix("CODEVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to .codevision/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, StateDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Analysis.MaxCallDepth < 1 {
		return &ConfigError{Field: "analysis.maxCallDepth", Message: "must be at least 1"}
	}
	if c.Analysis.MaxSequenceDiagrams != MaxSequenceDiagrams {
		return &ConfigError{Field: "analysis.maxSequenceDiagrams", Message: fmt.Sprintf("fixed at %d", MaxSequenceDiagrams)}
	}
	if c.Compile.MaxRuntimeSeconds < 0 {
		return &ConfigError{Field: "compile.maxRuntimeSeconds", Message: "must not be negative"}
	}
	if c.Compile.AutoCompile && strings.TrimSpace(c.Compile.MavenExecutable) == "" {
		return &ConfigError{Field: "compile.mavenExecutable", Message: "required when autoCompile is enabled"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// OutputRoot returns the directory that holds per-run output directories.
func (c *Config) OutputRoot(repoRoot string) string {
	return resolve(repoRoot, c.Output.Root, "runs")
}

// StorePath returns the analysis database path.
func (c *Config) StorePath(repoRoot string) string {
	return resolve(repoRoot, c.Store.Path, "codevision.db")
}

func resolve(repoRoot, configured, fallback string) string {
	switch {
	case configured == "":
		return filepath.Join(repoRoot, StateDirName, fallback)
	case filepath.IsAbs(configured):
		return configured
	default:
		return filepath.Join(repoRoot, configured)
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
