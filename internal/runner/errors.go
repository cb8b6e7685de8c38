package runner

import "fmt"

// Exit codes returned by the arpscan binary
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitInvalidRange = 2
	ExitOutput       = 3
)

// ExitError carries the process exit code for a failed run
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}
