// Package engine executes programs expressed as a sparse mapping of line
// numbers to executable units, with classic BASIC-style GOTO,
// GOSUB/RETURN and HALT control flow over a shared mutable state.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Control is the transfer facade handed to every executing line. At most
// one transfer call is meaningful per execution; when a line calls several,
// the last call decides the next line (a gosub's frame stays pushed either
// way).
type Control interface {
	State() *State
	Goto(line int)
	Gosub(line int)
	Return() error
	Halt()
	RunFile(locator string) error
	RunFileWith(locator string, st *State) error
}

// Loader produces a Program from an opaque source locator. The engine
// never touches the filesystem itself; run_file delegates here.
type Loader interface {
	Load(locator string) (*Program, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(locator string) (*Program, error)

func (f LoaderFunc) Load(locator string) (*Program, error) {
	return f(locator)
}

// frame is one saved GOSUB resume point. A gosub issued from the last line
// of a program has no fallthrough successor; returning through such a
// frame halts the runtime instead.
type frame struct {
	resume int
	halt   bool
}

// Runtime drives one run of one Program. It owns the current-line cursor,
// the call stack and the halt flag. Nested run_file calls get a fresh
// Runtime (and thus a fresh call stack) bound to the same State.
type Runtime struct {
	id      string
	program *Program
	state   *State
	loader  Loader
	stack   []frame
	cur     int
	pending *int
	halted  bool
}

func newRuntime(prog *Program, st *State, loader Loader) *Runtime {
	return &Runtime{
		id:      uuid.NewString(),
		program: prog,
		state:   st,
		loader:  loader,
	}
}

// Option configures a Run.
type Option func(*Runtime)

// WithState supplies the shared state for the run instead of a fresh one.
func WithState(st *State) Option {
	return func(rt *Runtime) { rt.state = st }
}

// WithLoader enables run_file by supplying the program loader.
func WithLoader(l Loader) Option {
	return func(rt *Runtime) { rt.loader = l }
}

// Run executes prog until it halts or falls off its last line, then
// returns the shared state. An empty program finishes immediately.
func Run(prog *Program, opts ...Option) (*State, error) {
	rt := newRuntime(prog, nil, nil)
	for _, o := range opts {
		o(rt)
	}
	if rt.state == nil {
		rt.state = NewState()
	}
	err := rt.run()
	return rt.state, err
}

func (rt *Runtime) State() *State {
	return rt.state
}

// Goto sets the next line unconditionally. The target is not checked here;
// a missing line surfaces as ErrDanglingTarget at the next dispatch step.
func (rt *Runtime) Goto(line int) {
	rt.pending = &line
	log.Trace().Str("run_id", rt.id).Int("from", rt.cur).Int("to", line).Msg("  GOTO")
}

// Gosub saves the current line's fallthrough successor on the call stack,
// then jumps to line.
func (rt *Runtime) Gosub(line int) {
	f := frame{}
	if next, ok := rt.program.Next(rt.cur); ok {
		f.resume = next
	} else {
		f.halt = true
	}
	rt.stack = append(rt.stack, f)
	rt.pending = &line
	log.Trace().Str("run_id", rt.id).Int("from", rt.cur).Int("to", line).Int("depth", len(rt.stack)).Msg("  GOSUB")
}

// Return pops the top call frame and resumes at its saved line. Calling it
// with an empty stack is a structural error in the program.
func (rt *Runtime) Return() error {
	if len(rt.stack) == 0 {
		return ErrStackUnderflow
	}
	f := rt.stack[len(rt.stack)-1]
	rt.stack = rt.stack[:len(rt.stack)-1]
	if f.halt {
		rt.halted = true
		log.Trace().Str("run_id", rt.id).Int("from", rt.cur).Msg("  RETURN: past last line, halting")
		return nil
	}
	rt.pending = &f.resume
	log.Trace().Str("run_id", rt.id).Int("from", rt.cur).Int("to", f.resume).Int("depth", len(rt.stack)).Msg("  RETURN")
	return nil
}

// Halt stops dispatch after the current line finishes. Once set, the flag
// is never cleared for the lifetime of this Runtime.
func (rt *Runtime) Halt() {
	rt.halted = true
	log.Trace().Str("run_id", rt.id).Int("line", rt.cur).Msg("  HALT")
}

// RunFile loads a program from locator and runs it to completion against
// the same shared state. The sub-run gets its own Runtime, so its call
// stack, cursor and halt flag never leak into this one.
func (rt *Runtime) RunFile(locator string) error {
	return rt.RunFileWith(locator, nil)
}

// RunFileWith is RunFile with an explicit state for the sub-run; a nil st
// means the caller's shared state.
func (rt *Runtime) RunFileWith(locator string, st *State) error {
	if rt.loader == nil {
		return ErrNoLoader
	}
	prog, err := rt.loader.Load(locator)
	if err != nil {
		return fmt.Errorf("loading %q: %w", locator, err)
	}
	if st == nil {
		st = rt.state
	}
	sub := newRuntime(prog, st, rt.loader)
	log.Trace().Str("run_id", rt.id).Str("sub_run_id", sub.id).Str("locator", locator).Msg("RunFile: starting sub-run")
	return sub.run()
}

func (rt *Runtime) run() error {
	cur, ok := rt.program.First()
	if !ok {
		log.Trace().Str("run_id", rt.id).Msg("run: empty program, finished")
		return nil
	}
	for {
		line, ok := rt.program.Line(cur)
		if !ok {
			return fmt.Errorf("line %d: %w", cur, ErrDanglingTarget)
		}
		rt.cur = cur
		rt.pending = nil
		log.Trace().Str("run_id", rt.id).Int("line", cur).Int("depth", len(rt.stack)).Msg("run: executing line")
		if err := line.Execute(rt.state, rt); err != nil {
			return fmt.Errorf("line %d: %w", cur, err)
		}
		if rt.halted {
			log.Trace().Str("run_id", rt.id).Int("line", cur).Msg("run: halted")
			return nil
		}
		if rt.pending != nil {
			cur = *rt.pending
			continue
		}
		next, ok := rt.program.Next(cur)
		if !ok {
			log.Trace().Str("run_id", rt.id).Int("line", cur).Msg("run: finished")
			return nil
		}
		cur = next
	}
}
