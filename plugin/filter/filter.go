// Package filter compiles CEL expressions that select log entries, such as
//
//	category == "prod" && minutes >= 30
//	title.contains("Review") || tier == 2
package filter

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/store"
)

// Variables available to filter expressions.
var filterVars = []cel.EnvOption{
	cel.Variable("uid", cel.StringType),
	cel.Variable("title", cel.StringType),
	cel.Variable("category", cel.StringType),
	cel.Variable("calendar", cel.StringType),
	cel.Variable("confidence", cel.StringType),
	cel.Variable("time_source", cel.StringType),
	cel.Variable("tier", cel.IntType),
	// minutes is 0 when the start is unresolved.
	cel.Variable("minutes", cel.IntType),
	cel.Variable("has_start", cel.BoolType),
	cel.Variable("start_ts", cel.IntType),
	cel.Variable("end_ts", cel.IntType),
}

// Filter is a compiled, reusable entry filter.
type Filter struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. The expression must evaluate to a bool.
func Compile(expr string) (*Filter, error) {
	env, err := cel.NewEnv(filterVars...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build program for %q", expr)
	}
	return &Filter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match reports whether e satisfies the filter.
func (f *Filter) Match(e *store.LogEntry) (bool, error) {
	out, _, err := f.program.Eval(entryVars(e))
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter on entry %s", e.UID)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter %q returned %T", f.expr, out.Value())
	}
	return matched, nil
}

// Apply returns the entries matching the filter, preserving order.
func (f *Filter) Apply(entries []*store.LogEntry) ([]*store.LogEntry, error) {
	matched := make([]*store.LogEntry, 0, len(entries))
	for _, e := range entries {
		ok, err := f.Match(e)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func entryVars(e *store.LogEntry) map[string]any {
	var startTs int64
	if e.StartTs != nil {
		startTs = *e.StartTs
	}
	return map[string]any{
		"uid":         e.UID,
		"title":       e.Title,
		"category":    e.Category,
		"calendar":    e.Calendar,
		"confidence":  e.Confidence,
		"time_source": e.TimeSource,
		"tier":        int64(e.Tier),
		"minutes":     int64(e.Duration().Minutes()),
		"has_start":   e.StartTs != nil,
		"start_ts":    startTs,
		"end_ts":      e.EndTs,
	}
}
