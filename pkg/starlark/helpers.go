// Package starlark lets templates call helper functions written in
// Starlark. Every public top-level function of a helper file becomes both
// a filter (receiving the filtered value as its first argument) and a
// callable builtin.
package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/neurodesk/pagetmpl/pkg/tmpl"
	"go.starlark.net/starlark"
)

// Helpers holds the functions defined by one Starlark file. The globals are
// frozen after loading, so calls may run concurrently.
type Helpers struct {
	file   string
	funcs  map[string]starlark.Callable
	logger *slog.Logger
}

// LoadFile reads and executes the helper file at path.
func LoadFile(path string, logger *slog.Logger) (*Helpers, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading helpers: %w", err)
	}
	return Load(path, src, logger)
}

// Load executes src and collects its callable globals. Names starting with
// an underscore are private to the file.
func Load(filename string, src any, logger *slog.Logger) (*Helpers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Helpers{file: filename, funcs: map[string]starlark.Callable{}, logger: logger}

	globals, err := starlark.ExecFile(h.thread("load"), filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", filename, err)
	}
	globals.Freeze()
	for name, v := range globals {
		fn, ok := v.(starlark.Callable)
		if !ok || strings.HasPrefix(name, "_") {
			continue
		}
		h.funcs[name] = fn
	}
	return h, nil
}

func (h *Helpers) thread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: h.file + ":" + name,
		Print: func(_ *starlark.Thread, msg string) {
			h.logger.Info("starlark print", "file", h.file, "text", msg)
		},
	}
}

// Names returns the helper names, sorted.
func (h *Helpers) Names() []string {
	names := make([]string, 0, len(h.funcs))
	for name := range h.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call invokes the named helper. Arguments that have no Starlark
// equivalent are passed as their string form.
func (h *Helpers) Call(name string, args ...any) (any, error) {
	fn, ok := h.funcs[name]
	if !ok {
		return nil, fmt.Errorf("no helper named %q in %s", name, h.file)
	}
	tuple := make(starlark.Tuple, len(args))
	for i, a := range args {
		v, err := ToStarlark(a)
		if err != nil {
			h.logger.Warn("passing helper argument as string", "helper", name, "arg", i, "error", err)
			v = starlark.String(fmt.Sprint(a))
		}
		tuple[i] = v
	}
	out, err := starlark.Call(h.thread(name), fn, tuple, nil)
	if err != nil {
		return nil, fmt.Errorf("helper %s: %w", name, err)
	}
	return FromStarlark(out), nil
}

// Install registers every helper on e as a filter and as a global.
func (h *Helpers) Install(e *tmpl.Engine) {
	for _, name := range h.Names() {
		e.RegisterFilter(name, func(v any, args ...any) (any, error) {
			return h.Call(name, append([]any{v}, args...)...)
		})
		e.SetGlobal(name, tmpl.Func(func(args ...any) (any, error) {
			return h.Call(name, args...)
		}))
	}
}
