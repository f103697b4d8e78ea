package main

import (
	"errors"
	"fmt"

	"github.com/srg/tpmon/scanner"
)

// usageError marks operator mistakes (bad flags, unusable configuration)
// that should exit with code 2 instead of 1.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// formatUserError turns internal errors into operator-facing messages.
func formatUserError(err error) string {
	if errors.Is(err, scanner.ErrClassicUnsupported) {
		return fmt.Sprintf("%s (the radio stack only discovers LE devices)", err)
	}
	return err.Error()
}
