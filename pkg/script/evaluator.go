package script

import (
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// fileOptions lets rewrite scripts loop over the document at top level.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Evaluator runs Starlark rewrite scripts against a parsed document.
type Evaluator struct {
	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// NewEvaluator creates an evaluator whose print output goes to out.
// A nil out discards it.
func NewEvaluator(out io.Writer) *Evaluator {
	if out == nil {
		out = io.Discard
	}
	thread := &starlark.Thread{
		Name: "wikiparse",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(out, msg)
		},
	}
	return &Evaluator{
		thread:   thread,
		builtins: CreateBuiltins(),
		globals:  make(starlark.StringDict),
	}
}

// CreateBuiltins returns the functions every script can call.
func CreateBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"normalize": starlark.NewBuiltin("normalize", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			return starlark.String(wikitext.NormalizeName(name)), nil
		}),

		"log": starlark.NewBuiltin("log", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var msg string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, nil, 1, &msg); err != nil {
				return nil, err
			}
			attrs := []any{"script", thread.Name}
			for _, kv := range kwargs {
				attrs = append(attrs, string(kv[0].(starlark.String)), ConvertFromStarlark(kv[1]))
			}
			slog.Info(msg, attrs...)
			return starlark.None, nil
		}),
	}
}

// SetDocument exposes root to scripts as the global "doc".
func (e *Evaluator) SetDocument(root *wikitext.NodeCollection) {
	e.globals["doc"] = NewDocument(root)
}

// SetGlobal sets a global variable from a plain Go value.
func (e *Evaluator) SetGlobal(name string, value any) {
	e.globals[name] = ConvertToStarlark(value)
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	maps.Copy(predeclared, e.builtins)
	maps.Copy(predeclared, e.globals)
	return predeclared
}

// Eval evaluates a single expression.
func (e *Evaluator) Eval(expr string) (any, error) {
	val, err := starlark.EvalOptions(fileOptions, e.thread, "<eval>", expr, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return ConvertFromStarlark(val), nil
}

// ExecFile executes a script and returns the globals it defined. A nil src
// reads filename from disk.
func (e *Evaluator) ExecFile(filename string, src any) (starlark.StringDict, error) {
	globals, err := starlark.ExecFileOptions(fileOptions, e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	maps.Copy(e.globals, globals)
	return globals, nil
}

// ExecString executes a script held in memory.
func (e *Evaluator) ExecString(script string) (starlark.StringDict, error) {
	return e.ExecFile("<script>", script)
}

// GetGlobal retrieves a global variable as a plain Go value.
func (e *Evaluator) GetGlobal(name string) (any, bool) {
	if val, ok := e.globals[name]; ok {
		return ConvertFromStarlark(val), true
	}
	return nil, false
}

// Export returns the script-defined data globals, skipping functions, the
// document and names starting with an underscore.
func (e *Evaluator) Export() map[string]any {
	out := make(map[string]any)
	for key, value := range e.globals {
		if !isExportable(key, value) {
			continue
		}
		out[key] = ConvertFromStarlark(value)
	}
	return out
}

func isExportable(key string, value starlark.Value) bool {
	if key == "" || key[0] == '_' || key == "doc" {
		return false
	}
	switch value.(type) {
	case *starlark.Function, *starlark.Builtin:
		return false
	}
	return true
}

// Rewrite parses text, runs script with the tree bound to "doc" and returns
// the serialized result.
func Rewrite(p *wikitext.Parser, filename string, script any, text string, out io.Writer) (string, error) {
	root := p.Parse(text)
	e := NewEvaluator(out)
	e.SetDocument(root)
	if _, err := e.ExecFile(filename, script); err != nil {
		return "", err
	}
	return wikitext.Raw(root), nil
}
