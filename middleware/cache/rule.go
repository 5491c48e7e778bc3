package cache

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Rule decides whether the listing of a directory may be cached.
type Rule interface {
	Cacheable(path string) (bool, error)
}

// ExprRule evaluates an expr-lang boolean expression against the normalized
// directory path, exposed as the `path` variable:
//
//	!hasPrefix(path, "/tmp") && path != "/inbox"
type ExprRule struct {
	script  string
	program *vm.Program
}

type ruleEnv struct {
	Path string `expr:"path"`
}

// Cacheable implements [Rule].
func (r *ExprRule) Cacheable(path string) (bool, error) {
	result, err := expr.Run(r.program, ruleEnv{Path: path})
	if err != nil {
		return false, errors.WithStack(err)
	}

	cacheable, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("unexpected rule '%s' result type '%T', expected boolean", r.script, result)
	}

	return cacheable, nil
}

func (r *ExprRule) String() string {
	return r.script
}

func NewExprRule(script string) (*ExprRule, error) {
	program, err := expr.Compile(script, expr.Env(ruleEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "could not compile rule '%s'", script)
	}

	return &ExprRule{script: script, program: program}, nil
}

type alwaysRule struct{}

func (alwaysRule) Cacheable(path string) (bool, error) {
	return true, nil
}

var (
	_ Rule = &ExprRule{}
	_ Rule = alwaysRule{}
)
