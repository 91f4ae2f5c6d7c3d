// Package script compiles ECMAScript expressions into tree predicates and
// selectors, so business rules can live in configuration instead of Go code.
//
// An expression sees the carried parameter as the global "param", converted
// to plain JSON values first (field names follow the json tags). Expressions
// cannot mutate the parameter.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/dop251/goja"
)

// ErrInterrupted is returned when the context ends while an expression runs.
var ErrInterrupted = errors.New("script interrupted")

// Expr is a compiled expression. It is safe for concurrent use: every
// evaluation gets its own runtime.
type Expr struct {
	src     string
	program *goja.Program
}

// Compile parses src as a single expression.
func Compile(src string) (*Expr, error) {
	p, err := goja.Compile("", "("+src+"\n)", true)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Expr{src: src, program: p}, nil
}

// String returns the source of the expression.
func (e *Expr) String() string {
	return e.src
}

// Eval runs the expression against param and returns the exported result.
func (e *Expr) Eval(ctx context.Context, param any) (any, error) {
	canon, err := canonicalize(param)
	if err != nil {
		return nil, fmt.Errorf("script parameter: %w", err)
	}

	vm := goja.New()
	if err := vm.Set("param", canon); err != nil {
		return nil, err
	}

	// Interrupt the runtime if ctx ends first.
	ictx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ictx.Done()
		vm.Interrupt(ErrInterrupted)
	}()

	v, err := run(vm, e.program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w: %s", ErrInterrupted, e.src)
		}
		return nil, fmt.Errorf("eval %q: %w", e.src, err)
	}
	return v.Export(), nil
}

// Predicate adapts the expression to a Conditional predicate using
// ECMAScript truthiness.
func (e *Expr) Predicate() domain.Predicate {
	return func(ctx context.Context, param any) (bool, error) {
		v, err := e.Eval(ctx, param)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}
}

// Selector adapts the expression to a Loop selector. The expression must
// yield an array; null and undefined select nothing.
func (e *Expr) Selector() domain.Selector {
	return func(ctx context.Context, param any) ([]any, error) {
		v, err := e.Eval(ctx, param)
		if err != nil {
			return nil, err
		}
		switch items := v.(type) {
		case nil:
			return nil, nil
		case []any:
			return items, nil
		default:
			return nil, fmt.Errorf("selector %q yielded %T, want an array", e.src, v)
		}
	}
}

// Predicate compiles src into a predicate.
func Predicate(src string) (domain.Predicate, error) {
	e, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return e.Predicate(), nil
}

// Selector compiles src into a selector.
func Selector(src string) (domain.Selector, error) {
	e, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return e.Selector(), nil
}

func run(vm *goja.Runtime, p *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return vm.RunProgram(p)
}

func canonicalize(x any) (any, error) {
	if x == nil {
		return nil, nil
	}
	js, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	var y any
	if err := json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0 && x == x
	}
	return true
}
