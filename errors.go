package pipexec

import "fmt"

// ChildProcessFailure reports that a pipeline stage exited with a non-zero
// status or was killed by a signal. When a pipeline has more than one
// failing stage, this carries the earliest one in launch order — every
// child is still reaped regardless (see reap.go).
type ChildProcessFailure struct {
	// Status is the exit status, or 128+signal for a signal-terminated
	// child (the shell convention).
	Status int
	// Command is the formatted single-command rendering of the failing
	// stage (see FormatCommands), not the whole pipeline.
	Command string
	// Stderr is the failing run's captured stderr, or nil if stderr was
	// not routed through a Data stream.
	Stderr []byte
}

func (e *ChildProcessFailure) Error() string {
	if len(e.Stderr) == 0 {
		return fmt.Sprintf("pipexec: command failed with status %d: %s", e.Status, e.Command)
	}
	return fmt.Sprintf("pipexec: command failed with status %d: %s\n%s", e.Status, e.Command, e.Stderr)
}

// ChannelError reports that the readiness primitive reported an error or
// invalid-fd condition on a channel owned by the core.
type ChannelError struct {
	// Events is a symbolic rendering of the poll event mask, e.g. "ERR".
	Events string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("pipexec: channel error: %s", e.Events)
}

// SystemError wraps a failed syscall made during setup, multiplexing, or
// reaping (pipe2, open, poll, read, write, fork/exec, wait4).
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string { return fmt.Sprintf("pipexec: %s: %v", e.Op, e.Err) }
func (e *SystemError) Unwrap() error { return e.Err }
