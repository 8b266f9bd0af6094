package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/genlower"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/transform"
)

// options is the CLI configuration. A YAML file may set any field; flags
// given on the command line override it.
type options struct {
	HelperName  string   `yaml:"helper"`
	StateName   string   `yaml:"state"`
	Annotate    *bool    `yaml:"annotate"`
	Only        []string `yaml:"only"`
	Skip        []string `yaml:"skip"`
	Parallelism int      `yaml:"parallelism"`
}

func loadOptions(path string) (options, error) {
	var opts options
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Detail("read config %s", path).
			Cause(err).
			Build()
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("parse config %s", path).
			Cause(err).
			Build()
	}
	if opts.Parallelism < 0 {
		return opts, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("config %s: parallelism must not be negative", path).
			Build()
	}
	return opts, nil
}

func (o options) generatorConfig() generator.Config {
	cfg := generator.DefaultConfig()
	if o.HelperName != "" {
		cfg.HelperName = o.HelperName
	}
	if o.StateName != "" {
		cfg.StateName = o.StateName
	}
	if o.Annotate != nil {
		cfg.Annotate = *o.Annotate
	}
	if len(o.Only) > 0 {
		cfg.OnlyList = generator.NewWildcardMatcher(o.Only)
	}
	if len(o.Skip) > 0 {
		cfg.SkipList = generator.NewWildcardMatcher(o.Skip)
	}
	return cfg
}

func (o options) config() genlower.Config {
	return genlower.Config{Generator: o.generatorConfig(), Parallelism: o.Parallelism}
}

func (o options) pipeline() *transform.Pipeline {
	return o.config().Pipeline()
}
