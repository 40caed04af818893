package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess       = 0 // Command completed
	ExitInvalidRecord = 1 // validate found schema problems
	ExitError         = 2 // Configuration or runtime error
)

// ValidationFailedError indicates that validate ran to completion but one or
// more files do not match the record schema.
type ValidationFailedError struct {
	Files int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%d file(s) failed validation", e.Files)
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var validationErr *ValidationFailedError
	if errors.As(err, &validationErr) {
		return ExitInvalidRecord
	}
	return ExitError
}
