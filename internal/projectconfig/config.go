// Package projectconfig provides the ProjectConfig struct and loader for
// .dtef.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/statistics"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".dtef.yaml"

// Default values for project configuration. Engine settings alias the
// defaults of the packages that own them.
const (
	DefaultResultsDir = "results/"

	DefaultServerPort            = 3000
	DefaultServerCacheTTLSeconds = 60

	DefaultSourceKind = "dir"

	DefaultContextMarker = aggregation.DefaultContextMarker
	DefaultTag           = aggregation.DefaultTag
	DefaultExcludedModel = aggregation.IdealModelID

	DefaultBootstrapConfidenceLevel = statistics.DefaultConfidenceLevel
	DefaultBootstrapIterations      = statistics.DefaultBootstrapIterations
	DefaultBootstrapSeed            = statistics.DefaultBootstrapSeed
)

// PathsConfig holds directory paths.
type PathsConfig struct {
	Results string `yaml:"results,omitempty"`
}

// ServerConfig holds dashboard API server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
	// CacheTTLSeconds is how long an aggregation is served before the
	// results are reloaded. Zero disables caching.
	CacheTTLSeconds *int `yaml:"cache_ttl_seconds,omitempty"`
}

// AzureConfig locates results in Azure Blob Storage.
type AzureConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

// SourceConfig selects where results are loaded from.
type SourceConfig struct {
	Kind  string      `yaml:"kind,omitempty"`
	Azure AzureConfig `yaml:"azure,omitempty"`
}

// BootstrapConfig holds confidence-interval settings.
type BootstrapConfig struct {
	Enabled         *bool   `yaml:"enabled,omitempty"`
	ConfidenceLevel float64 `yaml:"confidence_level,omitempty"`
	Iterations      int     `yaml:"iterations,omitempty"`
	// Seed is a pointer so an explicit 0 overrides the default.
	Seed            *int64  `yaml:"seed,omitempty"`
}

// AggregationConfig holds aggregation engine settings.
type AggregationConfig struct {
	ContextMarker       string            `yaml:"context_marker,omitempty"`
	ExcludedModels      []string          `yaml:"excluded_models,omitempty"`
	Tag                 string            `yaml:"tag,omitempty"`
	SegmentIDAliases    map[string]string `yaml:"segment_id_aliases,omitempty"`
	SegmentLabelAliases map[string]string `yaml:"segment_label_aliases,omitempty"`
	Bootstrap           BootstrapConfig   `yaml:"bootstrap,omitempty"`
}

// ValidationConfig controls schema checks on loaded files.
type ValidationConfig struct {
	// Strict skips files that fail schema validation instead of only
	// logging them.
	Strict *bool `yaml:"strict,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .dtef.yaml.
type ProjectConfig struct {
	Paths       PathsConfig       `yaml:"paths,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
	Source      SourceConfig      `yaml:"source,omitempty"`
	Aggregation AggregationConfig `yaml:"aggregation,omitempty"`
	Validation  ValidationConfig  `yaml:"validation,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Results: DefaultResultsDir,
		},
		Server: ServerConfig{
			Port:            DefaultServerPort,
			CacheTTLSeconds: intPtr(DefaultServerCacheTTLSeconds),
		},
		Source: SourceConfig{
			Kind: DefaultSourceKind,
		},
		Aggregation: AggregationConfig{
			ContextMarker:  DefaultContextMarker,
			ExcludedModels: []string{DefaultExcludedModel},
			Tag:            DefaultTag,
			Bootstrap: BootstrapConfig{
				Enabled:         boolPtr(true),
				ConfidenceLevel: DefaultBootstrapConfidenceLevel,
				Iterations:      DefaultBootstrapIterations,
				Seed:            int64Ptr(DefaultBootstrapSeed),
			},
		},
		Validation: ValidationConfig{
			Strict: boolPtr(false),
		},
	}
}

// Load finds .dtef.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .dtef.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.CacheTTLSeconds != nil {
		dst.Server.CacheTTLSeconds = src.Server.CacheTTLSeconds
	}

	// Source
	if src.Source.Kind != "" {
		dst.Source.Kind = src.Source.Kind
	}
	if src.Source.Azure.AccountURL != "" {
		dst.Source.Azure.AccountURL = src.Source.Azure.AccountURL
	}
	if src.Source.Azure.Container != "" {
		dst.Source.Azure.Container = src.Source.Azure.Container
	}
	if src.Source.Azure.Prefix != "" {
		dst.Source.Azure.Prefix = src.Source.Azure.Prefix
	}

	// Aggregation
	agg := &src.Aggregation
	if agg.ContextMarker != "" {
		dst.Aggregation.ContextMarker = agg.ContextMarker
	}
	if agg.ExcludedModels != nil {
		dst.Aggregation.ExcludedModels = agg.ExcludedModels
	}
	if agg.Tag != "" {
		dst.Aggregation.Tag = agg.Tag
	}
	if agg.SegmentIDAliases != nil {
		dst.Aggregation.SegmentIDAliases = agg.SegmentIDAliases
	}
	if agg.SegmentLabelAliases != nil {
		dst.Aggregation.SegmentLabelAliases = agg.SegmentLabelAliases
	}
	if agg.Bootstrap.Enabled != nil {
		dst.Aggregation.Bootstrap.Enabled = agg.Bootstrap.Enabled
	}
	if agg.Bootstrap.ConfidenceLevel != 0 {
		dst.Aggregation.Bootstrap.ConfidenceLevel = agg.Bootstrap.ConfidenceLevel
	}
	if agg.Bootstrap.Iterations != 0 {
		dst.Aggregation.Bootstrap.Iterations = agg.Bootstrap.Iterations
	}
	if agg.Bootstrap.Seed != nil {
		dst.Aggregation.Bootstrap.Seed = agg.Bootstrap.Seed
	}

	// Validation
	if src.Validation.Strict != nil {
		dst.Validation.Strict = src.Validation.Strict
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(n int) *int {
	return &n
}

func int64Ptr(n int64) *int64 {
	return &n
}
