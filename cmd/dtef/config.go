package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/projectconfig"
	"github.com/weval-org/dtef/internal/segments"
	"github.com/weval-org/dtef/internal/source"
	"github.com/weval-org/dtef/internal/statistics"
	"github.com/weval-org/dtef/internal/validation"
)

// sourceOverrides are command-line values that take precedence over
// .dtef.yaml.
type sourceOverrides struct {
	results string
	strict  bool
}

func loadProjectConfig(dir string) (*projectconfig.ProjectConfig, error) {
	cfg, err := projectconfig.Load(dir)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded project config",
		"dir", dir,
		"results", cfg.Paths.Results,
		"source", cfg.Source.Kind)
	return cfg, nil
}

// aggregationOptions maps the aggregation section of the config onto engine
// options. An invalid context marker is a configuration error.
func aggregationOptions(cfg *projectconfig.ProjectConfig) (aggregation.Options, error) {
	opts := aggregation.DefaultOptions()
	ac := cfg.Aggregation

	if ac.ContextMarker != "" {
		re, err := regexp.Compile(ac.ContextMarker)
		if err != nil {
			return opts, fmt.Errorf("invalid aggregation.context_marker %q: %w", ac.ContextMarker, err)
		}
		opts.ContextMarker = re
	}
	if ac.ExcludedModels != nil {
		opts.ExcludedModels = ac.ExcludedModels
	}
	if ac.Tag != "" {
		opts.Tag = ac.Tag
	}

	aliases := segments.DefaultAliases().Merge(segments.Aliases{
		SegmentIDs:    ac.SegmentIDAliases,
		SegmentLabels: ac.SegmentLabelAliases,
	})
	opts.Normalizer = segments.NewNormalizer(aliases)

	bs := ac.Bootstrap
	if bs.Enabled != nil && !*bs.Enabled {
		opts.Bootstrap = statistics.BootstrapConfig{}
	} else {
		opts.Bootstrap = statistics.BootstrapConfig{
			ConfidenceLevel: bs.ConfidenceLevel,
			Iterations:      bs.Iterations,
			Seed:            statistics.DefaultBootstrapSeed,
		}
		if bs.Seed != nil {
			opts.Bootstrap.Seed = *bs.Seed
		}
	}

	opts.Logger = slog.Default()
	return opts, nil
}

// sourceOptions maps the config and any overrides onto loader options.
// Relative result paths from the config file resolve against dir.
func sourceOptions(cfg *projectconfig.ProjectConfig, dir string, o sourceOverrides) source.Options {
	opts := source.Options{
		Kind: cfg.Source.Kind,
		Dir:  cfg.Paths.Results,
		Azure: source.AzureOptions{
			AccountURL: cfg.Source.Azure.AccountURL,
			Container:  cfg.Source.Azure.Container,
			Prefix:     cfg.Source.Azure.Prefix,
		},
		Validate: validation.ValidateRecordBytes,
		Strict:   o.strict || (cfg.Validation.Strict != nil && *cfg.Validation.Strict),
		Logger:   slog.Default(),
	}
	if opts.Dir != "" && !filepath.IsAbs(opts.Dir) {
		opts.Dir = filepath.Join(dir, opts.Dir)
	}
	if o.results != "" {
		opts.Kind = source.KindDir
		opts.Dir = o.results
	}
	return opts
}

func cacheTTL(cfg *projectconfig.ProjectConfig) time.Duration {
	if cfg.Server.CacheTTLSeconds == nil {
		return projectconfig.DefaultServerCacheTTLSeconds * time.Second
	}
	return time.Duration(*cfg.Server.CacheTTLSeconds) * time.Second
}
