// Package manifest reads TOML run manifests. A manifest names the program
// file to run and may seed the shared state with initial values.
package manifest

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/linerun-dev/linerun/engine"
	"github.com/linerun-dev/linerun/script"
)

type Manifest struct {
	Program ProgramDetails `toml:""`
	State   map[string]any `toml:",omitempty"`
}

type ProgramDetails struct {
	File string `toml:",omitempty"`
}

func parse(f io.Reader) (*Manifest, error) {
	var out Manifest
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadFromFile reads the manifest at path. When the manifest does not name
// a program file, the manifest's own name with a .star extension is used;
// either way the program path is resolved relative to the manifest.
func LoadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	m, err := parse(f)
	if err != nil {
		return nil, err
	}
	if m.Program.File == "" {
		parts := strings.Split(fi.Name(), ".")
		parts = parts[:len(parts)-1]
		parts = append(parts, "star")
		m.Program.File = strings.Join(parts, ".")
	}
	filedir := filepath.Dir(path)
	m.Program.File = filepath.Clean(filepath.Join(filedir, m.Program.File))
	return m, nil
}

// InitialState builds the seed state from the [state] table.
func (m *Manifest) InitialState() *engine.State {
	st := engine.NewState()
	for k, v := range m.State {
		st.Set(k, v)
	}
	return st
}

// Run holds everything needed to execute a manifest.
type Run struct {
	Program *engine.Program
	Loader  engine.Loader
	Initial *engine.State
}

// BuildRun loads the manifest's program file through the script loader.
// The loader handed to the run caches programs, so repeated run_file calls
// against the same path do not re-execute it.
func (m *Manifest) BuildRun() (*Run, error) {
	loader := script.NewCachingLoader(script.NewLoader(), 0)
	p, err := loader.Load(m.Program.File)
	if err != nil {
		return nil, err
	}
	return &Run{
		Program: p,
		Loader:  loader,
		Initial: m.InitialState(),
	}, nil
}

// Execute runs the program to completion and returns the final state.
func (r *Run) Execute() (*engine.State, error) {
	return engine.Run(r.Program,
		engine.WithState(r.Initial),
		engine.WithLoader(r.Loader))
}
