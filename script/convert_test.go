package script

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/linerun-dev/linerun/engine"
)

func TestConvertRoundtrip(t *testing.T) {
	in := map[string]any{
		"n":    int64(7),
		"f":    2.5,
		"s":    "text",
		"b":    true,
		"none": nil,
		"list": []any{int64(1), "two", []any{false}},
	}
	sv, err := toStarlark(in)
	require.NoError(t, err)
	out, err := fromStarlark(sv)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestConvertRejectsUnsupported(t *testing.T) {
	_, err := toStarlark(struct{}{})
	require.Error(t, err)

	d := starlark.NewDict(1)
	require.NoError(t, d.SetKey(starlark.MakeInt(1), starlark.None))
	_, err = fromStarlark(d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a string")
}

func TestStateDictSync(t *testing.T) {
	st := engine.NewState()
	st.Set("x", int64(1))
	st.Set("gone", "bye")

	d, err := stateDict(st)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	_, found, err := d.Delete(starlark.String("gone"))
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, d.SetKey(starlark.String("y"), starlark.MakeInt(2)))

	require.NoError(t, syncState(st, d))
	require.False(t, st.Has("gone"))
	y, _ := st.Get("y")
	require.EqualValues(t, 2, y)
	require.Equal(t, []string{"x", "y"}, st.Keys())
}
