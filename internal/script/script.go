// Package script evaluates user-supplied JavaScript expressions
// against elements, powering --where and --select on the command line.
//
// An expression sees a single binding, e, describing the current
// element:
//
//	e.tag     string
//	e.text    string (normalized text content)
//	e.attrs   object of attribute name to value
//	e.classes array of class names
//	e.html    string (outer HTML)
//
// Example: e.tag == "a" && e.attrs.href.indexOf("https:") == 0
package script

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/html-makers/surf/pkg/dom"
)

// Filter is a compiled expression. It is safe for concurrent use; the
// underlying VM is serialized.
type Filter struct {
	src  string
	prog *goja.Program

	mu sync.Mutex
	vm *goja.Runtime
}

// Compile parses and compiles an expression once, so per-element
// evaluation is cheap.
func Compile(src string) (*Filter, error) {
	prog, err := goja.Compile("filter", src, true)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	vm := goja.New()
	vm.Set("console", map[string]interface{}{
		"log":   func(goja.FunctionCall) goja.Value { return nil },
		"error": func(goja.FunctionCall) goja.Value { return nil },
	})

	return &Filter{src: src, prog: prog, vm: vm}, nil
}

// Source returns the original expression text.
func (f *Filter) Source() string { return f.src }

// Predicate adapts the expression to a boolean element test. A result
// of any other type is an error, so typos fail loudly instead of
// silently filtering everything out.
func (f *Filter) Predicate() func(*dom.Element) (bool, error) {
	return func(e *dom.Element) (bool, error) {
		val, err := f.eval(e)
		if err != nil {
			return false, err
		}
		b, ok := val.Export().(bool)
		if !ok {
			return false, fmt.Errorf("expression %q returned %s, want a boolean", f.src, val.ExportType())
		}
		return b, nil
	}
}

// Projection adapts the expression to a per-element value extractor.
func (f *Filter) Projection() func(*dom.Element) (interface{}, error) {
	return func(e *dom.Element) (interface{}, error) {
		val, err := f.eval(e)
		if err != nil {
			return nil, err
		}
		return val.Export(), nil
	}
}

func (f *Filter) eval(e *dom.Element) (goja.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	outer, err := e.HTML()
	if err != nil {
		outer = ""
	}

	f.vm.Set("e", map[string]interface{}{
		"tag":     e.Tag(),
		"text":    e.Text(),
		"attrs":   e.Attrs(),
		"classes": e.Classes(),
		"html":    outer,
	})

	val, err := f.vm.RunProgram(f.prog)
	if err != nil {
		return nil, fmt.Errorf("filter evaluation failed: %w", err)
	}
	return val, nil
}
