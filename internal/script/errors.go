package script

import "fmt"

// TypeMismatchError is returned when a Lua value passed to wafel.write/
// wafel.set_range doesn't match the shape the target variable's
// declared type needs.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("script: expected %s, got %s", e.Want, e.Got)
}
