package monitor

import "fmt"

// UnknownCommandError is returned for a verb Monitor doesn't recognize.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("monitor: unknown command %q (try \"help\")", e.Name)
}

// UsageError is returned when a recognized command gets the wrong
// number of arguments.
type UsageError struct {
	Name  string
	Usage string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("monitor: usage: %s", e.Usage)
}

// NoCursorValueError is returned by "yank" before any "read" has run.
type NoCursorValueError struct{}

func (e *NoCursorValueError) Error() string {
	return "monitor: nothing read yet to yank"
}

// ValueParseError is returned when a write/range/drag argument can't be
// parsed as the target path's concrete kind.
type ValueParseError struct {
	Text string
	Kind string
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("monitor: can't parse %q as a %s value", e.Text, e.Kind)
}
