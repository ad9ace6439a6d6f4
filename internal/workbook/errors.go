package workbook

import (
	"errors"
	"fmt"
)

// ErrUnsupported indicates the file is not a spreadsheet container this
// package can read.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// LoadError reports a workbook that could not be opened or read. It is fatal
// to an extraction run: no partial grid is returned alongside it.
type LoadError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	if e.Sheet != "" {
		return fmt.Sprintf("load %s (sheet %q): %v", e.Path, e.Sheet, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
