package pipexec

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// launch forks every command in the pipeline left to right, connecting
// each child's stdin/stdout/stderr to its neighbors (or to the caller's
// plumbing, at the two ends). It uses syscall.ForkExec with a
// ProcAttr.Files vector rather than a hand-rolled fork+dup2+exec: only
// async-signal-safe code may run in a process between fork and exec, and
// ForkExec is the runtime-supported primitive that performs that sequence
// safely.
//
// On any failure partway through, every child already forked is reaped
// (so none are left as zombies) and every intermediate pipe opened by this
// call is closed before returning. The caller's plumbing fds (stdin0,
// stdoutN, stderrAll) are never touched here — their lifecycle belongs to
// buildPlumbing's cleanup stacks.
func launch(pipeline Pipeline, stdin0, stdoutN, stderrAll int, env []string) ([]int, error) {
	pids := make([]int, 0, len(pipeline))

	// Both ends of the still-open intermediate pipe feeding the previous
	// child's stdout into the next child's stdin; (-1, -1) once consumed.
	prevReadFD, prevWriteFD := -1, -1

	for i, cmd := range pipeline {
		last := i == len(pipeline)-1

		curReadFD, curWriteFD := -1, -1
		if !last {
			fds := make([]int, 2)
			if err := unix.Pipe2(fds, unix.O_CLOEXEC); err != nil {
				closeFDPair(prevReadFD, prevWriteFD)
				reapAll(pids)
				return nil, &SystemError{Op: "pipe2", Err: err}
			}
			curReadFD, curWriteFD = fds[0], fds[1]
		}

		in := stdin0
		if i > 0 {
			in = prevReadFD
		}
		out := stdoutN
		if !last {
			out = curWriteFD
		}

		attr := &syscall.ProcAttr{
			Env:   env,
			Files: []uintptr{uintptr(in), uintptr(out), uintptr(stderrAll)},
			Sys:   &syscall.SysProcAttr{},
		}

		pid, err := syscall.ForkExec(cmd[0], []string(cmd), attr)
		if err != nil {
			closeFDPair(curReadFD, curWriteFD)
			closeFDPair(prevReadFD, prevWriteFD)
			reapAll(pids)
			return nil, &SystemError{Op: "fork/exec " + cmd[0], Err: err}
		}

		pids = append(pids, pid)

		// Child i now holds its own dup of the predecessor pipe; the
		// parent's copy is no longer needed.
		if i > 0 {
			closeFDPair(prevReadFD, prevWriteFD)
		}
		prevReadFD, prevWriteFD = curReadFD, curWriteFD
	}

	return pids, nil
}

func closeFDPair(a, b int) {
	if a >= 0 {
		unix.Close(a)
	}
	if b >= 0 {
		unix.Close(b)
	}
}
