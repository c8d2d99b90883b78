package pipexec

import "syscall"

// reap waits for every child in launch order and returns the exit status
// and index of the earliest failure (failedIdx == -1 if every child
// exited zero). Every child is always waited for, even once a failure has
// been recorded, so a multi-stage pipeline never leaves zombies behind.
func reap(pids []int) (status int, failedIdx int, err error) {
	failedIdx = -1
	for i, pid := range pids {
		var ws syscall.WaitStatus
		if _, werr := syscall.Wait4(pid, &ws, 0, nil); werr != nil {
			if err == nil {
				err = &SystemError{Op: "wait4", Err: werr}
			}
			continue
		}
		if failedIdx != -1 {
			continue
		}
		switch {
		case ws.Exited() && ws.ExitStatus() != 0:
			failedIdx = i
			status = ws.ExitStatus()
		case ws.Signaled():
			failedIdx = i
			status = 128 + int(ws.Signal())
		}
	}
	return status, failedIdx, err
}

// reapAll waits for every child without recording status. Used only on
// the setup-failure abort path, where the caller already has an error to
// return and just needs to avoid leaving zombies.
func reapAll(pids []int) {
	for _, pid := range pids {
		var ws syscall.WaitStatus
		syscall.Wait4(pid, &ws, 0, nil)
	}
}
