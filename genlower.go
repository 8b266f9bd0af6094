package genlower

import (
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/syntax"
	"github.com/wippyai/genlower/transform"
)

// Config configures Compile.
type Config struct {
	// Generator configures the lowering of each generator function.
	Generator generator.Config
	// Parallelism is the number of goroutines lowering top-level
	// statements. Values below 2 lower sequentially.
	Parallelism int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Generator: generator.DefaultConfig()}
}

// Pipeline returns the transform pipeline Compile runs.
func (c Config) Pipeline() *transform.Pipeline {
	return transform.New(transform.Config{
		Stages:      transform.DefaultStages(c.Generator),
		Parallelism: c.Parallelism,
	})
}

// Compile parses source, lowers every selected generator and prints the
// result.
func Compile(source string, cfg Config) (string, error) {
	prog, err := syntax.Parse(source)
	if err != nil {
		return "", err
	}
	out, err := cfg.Pipeline().Program(prog)
	if err != nil {
		return "", err
	}
	return syntax.Print(out), nil
}
