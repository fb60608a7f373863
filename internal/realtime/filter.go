package realtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Filter decides which data frames are presented. The zero value and a nil
// Filter match everything.
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles a CEL expression over the variables event (the decoded
// payload), channel and id. An empty expression yields a match-all filter.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("event", cel.DynType),
		cel.Variable("channel", cel.StringType),
		cel.Variable("id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q evaluates to %v, want bool", ErrInvalidFilter, expr, out)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether a data frame received on channel passes the filter.
// Evaluation errors and non-boolean results do not match.
func (f *Filter) Match(channel string, fr Frame) bool {
	if f == nil || f.prog == nil {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"event":   fr.Event,
		"channel": channel,
		"id":      fr.ID,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
