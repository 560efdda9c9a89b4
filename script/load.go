// Package script loads linerun programs from Starlark files. A program
// file must bind a top-level `program` dict mapping integer line numbers
// to callables of two arguments: the shared state (a dict) and the runtime
// control module.
package script

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/linerun-dev/linerun/engine"
)

// ErrNoProgram means the script file did not define a `program` dict.
var ErrNoProgram = errors.New("script must define a 'program' dict")

type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and executes the Starlark file at path and builds a Program
// from its `program` dict. Load satisfies engine.Loader, so nested
// rt.run_file(path) calls resolve through the same mechanism.
func (l *Loader) Load(path string) (*engine.Program, error) {
	return l.LoadSource(path, nil)
}

// LoadSource is Load for in-memory sources; src may be a string, []byte or
// io.Reader. A nil src reads the file named by name.
func (l *Loader) LoadSource(name string, src any) (*engine.Program, error) {
	thread := &starlark.Thread{Name: "load " + name, Print: printLine}
	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(&opts, thread, name, src, nil)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", name, err)
	}
	progVal, ok := globals["program"]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNoProgram)
	}
	dict, ok := progVal.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%q: 'program' is a %s, want dict", name, progVal.Type())
	}
	lines := make(map[int]engine.Line, dict.Len())
	for _, item := range dict.Items() {
		var num int
		if err := starlark.AsInt(item[0], &num); err != nil {
			return nil, fmt.Errorf("%q: line number %s: %w", name, item[0], err)
		}
		fn, ok := item[1].(starlark.Callable)
		if !ok {
			return nil, fmt.Errorf("%q: line %d is a %s, want callable", name, num, item[1].Type())
		}
		lines[num] = &scriptLine{source: name, num: num, fn: fn}
	}
	log.Debug().Str("source", name).Int("lines", len(lines)).Msg("loaded program")
	return engine.NewProgram(lines), nil
}

// scriptLine adapts one Starlark callable to engine.Line.
type scriptLine struct {
	source string
	num    int
	fn     starlark.Callable
}

func (ln *scriptLine) Execute(st *engine.State, ct engine.Control) error {
	view, err := stateDict(st)
	if err != nil {
		return err
	}
	thread := &starlark.Thread{
		Name:  fmt.Sprintf("%s:%d", ln.source, ln.num),
		Print: printLine,
	}
	rt := runtimeModule(ct, view, filepath.Dir(ln.source))
	_, callErr := starlark.Call(thread, ln.fn, starlark.Tuple{view, rt}, nil)
	// Mutations made before a failing call are kept, so sync regardless.
	if err := syncState(st, view); err != nil && callErr == nil {
		callErr = err
	}
	return callErr
}

func printLine(_ *starlark.Thread, msg string) {
	fmt.Println(msg)
}
