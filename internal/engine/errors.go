package engine

import "fmt"

// InsufficientDataError reports a sample below the minimum an operation
// needs to produce a meaningful result.
type InsufficientDataError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d records, got %d", e.Op, e.Need, e.Got)
}

// UnknownMethodError reports a forecast method outside the supported set.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown prediction method: %q", e.Method)
}

// DegenerateError reports input on which a computation is mathematically
// undefined, such as a zero-variance regression sample.
type DegenerateError struct {
	Op     string
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
