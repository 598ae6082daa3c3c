// pool.go
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// ExpressionPool caches compiled CEL expressions
type ExpressionPool struct {
	mu          sync.RWMutex
	expressions map[string]cel.Program
	env         *cel.Env
}

// NewExpressionPoolWithEnv creates a new expression pool with a custom CEL environment
func NewExpressionPoolWithEnv(env *cel.Env) (*ExpressionPool, error) {
	if env == nil {
		return nil, fmt.Errorf("CEL environment cannot be nil")
	}

	return &ExpressionPool{
		env:         env,
		expressions: make(map[string]cel.Program),
	}, nil
}

// GetExpression retrieves or compiles an expression
func (e *ExpressionPool) GetExpression(exprStr string) (cel.Program, error) {
	e.mu.RLock()
	if program, ok := e.expressions[exprStr]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	ast, issues := e.env.Compile(exprStr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", exprStr, issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	e.mu.Lock()
	e.expressions[exprStr] = program
	e.mu.Unlock()

	return program, nil
}

// EvaluateExpression evaluates an expression with the given variables
func (e *ExpressionPool) EvaluateExpression(exprStr string, vars map[string]any) (ref.Val, error) {
	program, err := e.GetExpression(exprStr)
	if err != nil {
		return nil, err
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", exprStr, err)
	}
	return out, nil
}

// toNative converts a CEL value back into plain Go maps, slices and scalars
func toNative(v ref.Val) any {
	switch val := v.(type) {
	case traits.Mapper:
		out := make(map[string]any)
		it := val.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			out[fmt.Sprint(toNative(key))] = toNative(val.Get(key))
		}
		return out
	case traits.Lister:
		size, _ := val.Size().(types.Int)
		out := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			out = append(out, toNative(val.Get(i)))
		}
		return out
	case types.Null:
		return nil
	}
	return v.Value()
}
