package cel

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// NewEntryEnvironment creates the environment entry filters are checked against.
// Filters see a single variable:
//
//	entry.path  full path inside the container
//	entry.name  last path element
//	entry.dir   directory part of the path
//	entry.size  uncompressed size, -1 when unknown
func NewEntryEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("entry", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// NewDocumentEnvironment creates the environment document queries are checked
// against. Queries see the decoded tree as `doc` and the entry path as `filename`.
func NewDocumentEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("doc", cel.DynType),
		cel.Variable("filename", cel.StringType),
	)
}

// EntryFilter decides which container entries are decoded
type EntryFilter struct {
	expr string
	pool *ExpressionPool
}

// NewEntryFilter compiles a boolean expression over `entry`
func NewEntryFilter(expr string) (*EntryFilter, error) {
	env, err := NewEntryEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create entry environment: %w", err)
	}
	pool, err := NewExpressionPoolWithEnv(env)
	if err != nil {
		return nil, err
	}
	if _, err := pool.GetExpression(expr); err != nil {
		return nil, err
	}
	return &EntryFilter{expr: expr, pool: pool}, nil
}

// Match evaluates the filter for one entry
func (f *EntryFilter) Match(entryPath string, size int64) (bool, error) {
	dir := path.Dir(entryPath)
	if dir == "." {
		dir = ""
	}
	out, err := f.pool.EvaluateExpression(f.expr, map[string]any{
		"entry": map[string]any{
			"path": entryPath,
			"name": path.Base(entryPath),
			"dir":  strings.TrimSuffix(dir, "/"),
			"size": size,
		},
	})
	if err != nil {
		return false, err
	}
	matched, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("entry filter %q returned %s, want bool", f.expr, out.Type().TypeName())
	}
	return bool(matched), nil
}

// Query projects a decoded document onto a new value
type Query struct {
	expr string
	pool *ExpressionPool
}

// NewQuery compiles an expression over `doc` and `filename`
func NewQuery(expr string) (*Query, error) {
	env, err := NewDocumentEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create document environment: %w", err)
	}
	pool, err := NewExpressionPoolWithEnv(env)
	if err != nil {
		return nil, err
	}
	if _, err := pool.GetExpression(expr); err != nil {
		return nil, err
	}
	return &Query{expr: expr, pool: pool}, nil
}

// Eval applies the query to one document
func (q *Query) Eval(doc any, filename string) (any, error) {
	out, err := q.pool.EvaluateExpression(q.expr, map[string]any{
		"doc":      doc,
		"filename": filename,
	})
	if err != nil {
		return nil, err
	}
	return toNative(out), nil
}
