package engine

import "errors"

var (
	// ErrDanglingTarget means a goto, fallthrough or return resume point
	// named a line number absent from the program.
	ErrDanglingTarget = errors.New("no such line")

	// ErrStackUnderflow means return_ was called with no matching gosub.
	ErrStackUnderflow = errors.New("RETURN without GOSUB")

	// ErrNoLoader means a line called run_file but the runtime was not
	// given a Loader.
	ErrNoLoader = errors.New("no program loader configured")
)
