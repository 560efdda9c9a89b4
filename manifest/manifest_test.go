package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := parse(strings.NewReader(`
[program]
file = "counter.star"

[state]
n = 5
name = "demo"
verbose = true
`))
	require.NoError(t, err)
	require.Equal(t, "counter.star", m.Program.File)
	require.EqualValues(t, 5, m.State["n"])
	require.Equal(t, "demo", m.State["name"])
	require.Equal(t, true, m.State["verbose"])
}

func TestLoadFromFileDefaultsProgramName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "demo.star"), m.Program.File)
}

func TestLoadFromFileResolvesRelativePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[program]
file = "programs/main.star"
`), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "programs", "main.star"), m.Program.File)
}

func TestBuildRunAndExecute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "count.star"), []byte(`
def step10(state, rt):
    state["n"] += 1

def step20(state, rt):
    if state["n"] < state["limit"]:
        rt.goto(10)
    else:
        rt.halt()

program = {10: step10, 20: step20}
`), 0o644))
	path := filepath.Join(dir, "count.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[state]
n = 0
limit = 4
`), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	run, err := m.BuildRun()
	require.NoError(t, err)
	require.Equal(t, 2, run.Program.Len())

	final, err := run.Execute()
	require.NoError(t, err)
	n, _ := final.Get("n")
	require.EqualValues(t, 4, n)
}

func TestBuildRunMissingProgram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lost.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	_, err = m.BuildRun()
	require.Error(t, err)
}
