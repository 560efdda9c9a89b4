package engine

import (
	"fmt"
	"io"
	"sort"

	"github.com/dgryski/go-farm"
	"github.com/shamaton/msgpack/v2"
)

// State is the shared mutable context visible to every line across a run
// and its nested sub-runs. It has no fixed schema; lines agree on the
// meaning of keys among themselves. Not safe for concurrent use, which is
// fine: runs are single-threaded.
type State struct {
	vars map[string]any
}

func NewState() *State {
	return &State{vars: make(map[string]any)}
}

func (s *State) Get(key string) (any, bool) {
	v, ok := s.vars[key]
	return v, ok
}

func (s *State) Set(key string, value any) {
	if s.vars == nil {
		s.vars = make(map[string]any)
	}
	s.vars[key] = value
}

func (s *State) Has(key string) bool {
	_, ok := s.vars[key]
	return ok
}

func (s *State) Delete(key string) {
	delete(s.vars, key)
}

func (s *State) Len() int {
	return len(s.vars)
}

// Keys returns the state's keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *State) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s.vars)
}

func DeserializeState(r io.Reader) (*State, error) {
	var vars map[string]any
	if err := msgpack.UnmarshalRead(r, &vars); err != nil {
		return nil, err
	}
	if vars == nil {
		vars = make(map[string]any)
	}
	return &State{vars: vars}, nil
}

// Fingerprint returns a 64-bit digest of the state contents. Entries are
// encoded in sorted key order so equal states always hash equal.
func (s *State) Fingerprint() (uint64, error) {
	pairs := make([]any, 0, len(s.vars)*2)
	for _, k := range s.Keys() {
		pairs = append(pairs, k, s.vars[k])
	}
	b, err := msgpack.Marshal(pairs)
	if err != nil {
		return 0, err
	}
	return farm.Fingerprint64(b), nil
}

// FormatValue formats a state value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return fmt.Sprintf("%q", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case []any:
		if len(val) == 0 {
			return "[]"
		}
		result := "["
		for i, elem := range val {
			if i > 0 {
				result += ", "
			}
			if i >= 5 {
				result += fmt.Sprintf("... (%d more)", len(val)-i)
				break
			}
			result += FormatValue(elem)
		}
		return result + "]"
	case map[string]any:
		if len(val) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		result := "{"
		for i, k := range keys {
			if i > 0 {
				result += ", "
			}
			if i >= 5 {
				result += fmt.Sprintf("... (%d more)", len(val)-i)
				break
			}
			result += fmt.Sprintf("%s: %s", k, FormatValue(val[k]))
		}
		return result + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// PrettyPrint returns a formatted listing of the state, one sorted entry
// per row.
func (s *State) PrettyPrint() string {
	if len(s.vars) == 0 {
		return "  (empty)\n"
	}
	var result string
	for _, k := range s.Keys() {
		result += fmt.Sprintf("  %s = %s\n", k, FormatValue(s.vars[k]))
	}
	return result
}
