package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/linerun-dev/linerun/engine"
)

// toStarlark converts a state value into its Starlark equivalent.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case float64:
		return starlark.Float(val), nil
	case float32:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []any:
		elems := make([]starlark.Value, 0, len(val))
		for i, e := range val {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, sv)
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		d := starlark.NewDict(len(val))
		for k, e := range val {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a starlark value", v)
	}
}

// fromStarlark converts a Starlark value back into a plain state value.
func fromStarlark(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s does not fit in 64 bits", val)
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			e, err := fromStarlark(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, e)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, 0, len(val))
		for i, e := range val {
			ge, err := fromStarlark(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, ge)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", item[0])
			}
			e, err := fromStarlark(item[1])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", string(k), err)
			}
			out[string(k)] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot store %s value in state", v.Type())
	}
}

// stateDict builds a Starlark dict view of the shared state.
func stateDict(st *engine.State) (*starlark.Dict, error) {
	d := starlark.NewDict(st.Len())
	for _, k := range st.Keys() {
		v, _ := st.Get(k)
		sv, err := toStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("state key %q: %w", k, err)
		}
		if err := d.SetKey(starlark.String(k), sv); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// syncState writes the dict view back into the shared state, dropping keys
// the script deleted.
func syncState(st *engine.State, d *starlark.Dict) error {
	seen := make(map[string]bool, d.Len())
	for _, item := range d.Items() {
		k, ok := item[0].(starlark.String)
		if !ok {
			return fmt.Errorf("state key %s is not a string", item[0])
		}
		v, err := fromStarlark(item[1])
		if err != nil {
			return fmt.Errorf("state key %q: %w", string(k), err)
		}
		st.Set(string(k), v)
		seen[string(k)] = true
	}
	for _, k := range st.Keys() {
		if !seen[k] {
			st.Delete(k)
		}
	}
	return nil
}
