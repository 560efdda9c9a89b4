package engine

import "sort"

// Line is one executable unit bound to a line number. A line may read and
// mutate the shared state and may call control-transfer methods on ct.
type Line interface {
	Execute(st *State, ct Control) error
}

// LineFunc adapts a plain function to the Line interface.
type LineFunc func(st *State, ct Control) error

func (f LineFunc) Execute(st *State, ct Control) error {
	return f(st, ct)
}

// Program is an immutable mapping of line numbers to Lines. Line numbers
// need not be contiguous or start at any particular value.
type Program struct {
	lines   map[int]Line
	numbers []int // sorted ascending, for fallthrough lookup
}

func NewProgram(lines map[int]Line) *Program {
	p := &Program{
		lines:   make(map[int]Line, len(lines)),
		numbers: make([]int, 0, len(lines)),
	}
	for n, l := range lines {
		p.lines[n] = l
		p.numbers = append(p.numbers, n)
	}
	sort.Ints(p.numbers)
	return p
}

func (p *Program) Line(n int) (Line, bool) {
	l, ok := p.lines[n]
	return l, ok
}

// First returns the lowest line number, or false for an empty program.
func (p *Program) First() (int, bool) {
	if len(p.numbers) == 0 {
		return 0, false
	}
	return p.numbers[0], true
}

// Next returns the smallest line number strictly greater than n, or false
// if n is the last line.
func (p *Program) Next(n int) (int, bool) {
	i := sort.SearchInts(p.numbers, n+1)
	if i == len(p.numbers) {
		return 0, false
	}
	return p.numbers[i], true
}

func (p *Program) Len() int {
	return len(p.numbers)
}

// Numbers returns the line numbers in ascending order.
func (p *Program) Numbers() []int {
	out := make([]int, len(p.numbers))
	copy(out, p.numbers)
	return out
}
