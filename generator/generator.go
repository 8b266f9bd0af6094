package generator

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator/internal/engine"
	"github.com/wippyai/genlower/generator/internal/ir"
	"go.uber.org/zap"
)

const (
	DefaultHelperName = engine.DefaultHelperName
	DefaultStateName  = engine.DefaultStateName
)

// Program is the operation list produced by Linearize.
type Program = ir.Program

// Config configures generator lowering.
type Config struct {
	// OnlyList restricts lowering to matching functions.
	OnlyList FunctionMatcher
	// SkipList excludes matching functions.
	SkipList FunctionMatcher
	// HelperName is the driver primitive called by lowered bodies.
	// Defaults to __generator.
	HelperName string
	// StateName is the driver function's parameter name. Defaults to
	// state; a numeric suffix is added when the function already uses it.
	StateName string
	// Annotate prints instruction names next to instruction codes.
	Annotate bool
}

// DefaultConfig returns the configuration used by the command line tool.
func DefaultConfig() Config {
	return Config{
		HelperName: DefaultHelperName,
		StateName:  DefaultStateName,
		Annotate:   true,
	}
}

// Selects reports whether the function called name is lowered under cfg.
func (cfg Config) Selects(name string) bool {
	if cfg.OnlyList != nil && !cfg.OnlyList.MatchFunction(name) {
		return false
	}
	if cfg.SkipList != nil && cfg.SkipList.MatchFunction(name) {
		return false
	}
	return true
}

func newEngine(cfg Config) *engine.Engine {
	return engine.New(engine.Config{
		HelperName: cfg.HelperName,
		StateName:  cfg.StateName,
		Annotate:   cfg.Annotate,
	})
}

// Lower returns a plain function equivalent to the generator fn.
//
// Functions that are not generators, or that cfg does not select, are
// returned as is. Nested functions inside fn are left untouched.
func Lower(fn *ast.Function, cfg Config) (*ast.Function, error) {
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseLinearize, "nil function")
	}
	if !fn.Generator || !cfg.Selects(fn.Name) {
		return fn, nil
	}
	return newEngine(cfg).Lower(fn)
}

// Linearize runs the first lowering phase over the body of fn.
func Linearize(fn *ast.Function, cfg Config) (*Program, error) {
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseLinearize, "nil function")
	}
	return newEngine(cfg).Linearize(fn)
}

// Assemble runs the second lowering phase and returns the function body.
func Assemble(prog *Program, cfg Config) ([]ast.Stmt, error) {
	if prog == nil {
		return nil, errors.InvalidInput(errors.PhaseAssemble, "nil program")
	}
	return newEngine(cfg).Assemble(prog)
}

// Contains reports whether n is or contains a generator function.
func Contains(n ast.Node) bool {
	return ast.FlagsOf(n).Has(ast.ContainsGenerator)
}

// SetLogger configures the logger used while lowering.
// This must be called before any lowering.
func SetLogger(l *zap.Logger) {
	engine.SetLogger(l)
}
