package script

import (
	"fmt"
	"path/filepath"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/linerun-dev/linerun/engine"
)

// runtimeModule builds the `rt` value passed to every script line. Its
// members are thin wrappers over the engine's control facade. state is the
// dict view handed to the same line, used to recognize the "pass my own
// state" case of run_file; baseDir anchors relative run_file paths at the
// calling script's directory.
func runtimeModule(ct engine.Control, state *starlark.Dict, baseDir string) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "rt",
		Members: starlark.StringDict{
			"goto": starlark.NewBuiltin("goto", func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var line int
				if err := starlark.UnpackArgs(b.Name(), args, kwargs, "line", &line); err != nil {
					return nil, err
				}
				ct.Goto(line)
				return starlark.None, nil
			}),
			"gosub": starlark.NewBuiltin("gosub", func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var line int
				if err := starlark.UnpackArgs(b.Name(), args, kwargs, "line", &line); err != nil {
					return nil, err
				}
				ct.Gosub(line)
				return starlark.None, nil
			}),
			"return_": starlark.NewBuiltin("return_", func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
					return nil, err
				}
				if err := ct.Return(); err != nil {
					return nil, err
				}
				return starlark.None, nil
			}),
			"halt": starlark.NewBuiltin("halt", func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
					return nil, err
				}
				ct.Halt()
				return starlark.None, nil
			}),
			"run_file": starlark.NewBuiltin("run_file", func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var path string
				var sub starlark.Value
				if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path, "state?", &sub); err != nil {
					return nil, err
				}
				if !filepath.IsAbs(path) && baseDir != "" {
					path = filepath.Join(baseDir, path)
				}
				// Default, None, or the caller's own state dict all mean
				// "share my state with the sub-run". The dict view is
				// pushed into the shared state first so the sub-run sees
				// writes this line already made, then refreshed so the
				// line sees the sub-run's writes.
				if sub == nil || sub == starlark.None || sub == starlark.Value(state) {
					if err := syncState(ct.State(), state); err != nil {
						return nil, err
					}
					err := ct.RunFile(path)
					if serr := syncDict(state, ct.State()); serr != nil && err == nil {
						err = serr
					}
					return starlark.None, err
				}
				d, ok := sub.(*starlark.Dict)
				if !ok {
					return nil, fmt.Errorf("run_file: state must be a dict, got %s", sub.Type())
				}
				st := engine.NewState()
				if err := syncState(st, d); err != nil {
					return nil, err
				}
				if err := ct.RunFileWith(path, st); err != nil {
					return nil, err
				}
				return starlark.None, syncDict(d, st)
			}),
		},
	}
}

// syncDict replaces the dict's contents with the state's.
func syncDict(d *starlark.Dict, st *engine.State) error {
	if err := d.Clear(); err != nil {
		return err
	}
	for _, k := range st.Keys() {
		v, _ := st.Get(k)
		sv, err := toStarlark(v)
		if err != nil {
			return fmt.Errorf("state key %q: %w", k, err)
		}
		if err := d.SetKey(starlark.String(k), sv); err != nil {
			return err
		}
	}
	return nil
}
