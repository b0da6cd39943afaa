package datasource

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for entities that no longer exist, typically a
// process that exited between enumeration and action.
var ErrNotFound = errors.New("not found")

// PlatformError wraps a failure talking to the OS: a syscall, a /proc read,
// or a systemctl invocation.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PlatformError) Unwrap() error { return e.Err }

// IOError wraps a failure accessing a user-supplied path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
