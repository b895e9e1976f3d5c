package core

// Process exit codes for the distinct failure classes.
const (
	// ExitUsage covers wrong invocation and every precondition failure.
	ExitUsage = 1

	// ExitStale means the stored patches replayed cleanly but do not
	// reproduce the fork's downstream state.
	ExitStale = 2

	// ExitReplay means a stored patch no longer applies.
	ExitReplay = 3
)

// ExitError couples a failure with the process exit code it maps to and the
// remediation commands shown to the operator. Nothing is retried: the
// workflow is human-in-the-loop and every failure ends the run.
type ExitError struct {
	Code int
	Err  error

	// Remediation holds copy-pasteable shell commands, in order. Lines
	// starting with "#" are explanatory.
	Remediation []string
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
