package pipexec

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// channel holds the plumbing the multiplexer needs for one Data-typed
// stream: the parent-held fd it reads from or writes to, and the buffer it
// drains into (stdout/stderr) or reads from (stdin).
type channel struct {
	parentFD int
	buf      []byte // stdin: bytes remaining to write; stdout/stderr: bytes accumulated so far
	writer   bool   // true for stdin (parent writes this fd); false for stdout/stderr (parent reads it)

	closeOnce sync.Once
}

// close releases the channel's parent-facing fd exactly once, whether
// called early by the multiplexer (the common case, as soon as the
// channel finishes) or later by the cleanup stack (the fallback, on an
// abnormal exit before the channel finished).
func (c *channel) close() {
	c.closeOnce.Do(func() { unix.Close(c.parentFD) })
}

// streamPlumbing is the per-call result of wiring up stdin/stdout/stderr:
// which fd each child should inherit (childFDs, index 0/1/2), and the
// Data-typed channels (if any) the multiplexer must service.
type streamPlumbing struct {
	childFDs [3]int
	chanOf   [3]*channel // parallel to childFDs; nil for Null/FD streams
	channels []*channel  // chanOf entries in stdin/stdout/stderr order, for the multiplexer

	devNullFD int // -1 if /dev/null was never opened
}

// isWriterStream reports, for stream index i (0=stdin, 1=stdout,
// 2=stderr), whether the parent writes that stream's fd (true, stdin) or
// reads it (false, stdout/stderr).
func isWriterStream(i int) bool { return i == 0 }

// buildPlumbing wires up stdin, stdout, and stderr per their StreamSpecs,
// opening /dev/null at most once and allocating one close-on-exec pipe per
// Data-typed stream. The child-facing end of every allocated pipe is
// registered on here (released right after every child has forked); the
// parent-facing end is registered on later (released after reaping, or
// earlier — see channel.close).
func buildPlumbing(stdin, stdout, stderr StreamSpec, here, later *cleanupStack) (*streamPlumbing, error) {
	p := &streamPlumbing{devNullFD: -1}
	specs := [3]StreamSpec{stdin, stdout, stderr}

	for i, spec := range specs {
		switch spec.kind {
		case streamNull:
			fd, err := p.nullFD(here)
			if err != nil {
				return nil, err
			}
			p.childFDs[i] = fd

		case streamExternalFD:
			p.childFDs[i] = spec.fd

		case streamData:
			fds := make([]int, 2)
			// Created blocking: pipe2's flags apply identically to both
			// ends, and the child-facing end must stay blocking (a child
			// like cat has no idea what to do with EAGAIN on its own
			// stdin/stdout). Only the parent-facing end is switched to
			// non-blocking below, via fcntl on that fd alone — read-end
			// and write-end are distinct open file descriptions, so this
			// does not affect the child's copy.
			if err := unix.Pipe2(fds, unix.O_CLOEXEC); err != nil {
				return nil, &SystemError{Op: "pipe2", Err: err}
			}
			readFD, writeFD := fds[0], fds[1]

			ch := &channel{writer: isWriterStream(i)}
			// Never nil, even when empty: a Data stream always yields a buffer.
			ch.buf = append([]byte{}, spec.data...)

			if ch.writer {
				// stdin: child reads the pipe's read end; parent writes the write end.
				p.childFDs[i] = readFD
				ch.parentFD = writeFD
			} else {
				// stdout/stderr: child writes the pipe's write end; parent reads the read end.
				p.childFDs[i] = writeFD
				ch.parentFD = readFD
			}

			// The multiplexer's poll-then-transfer loop is single
			// threaded (see multiplex.go): a blocking write/read here
			// would stall every other stream the moment this one applies
			// backpressure, reintroducing the deadlock the readiness loop
			// exists to avoid. poll's POLLOUT only promises a write of
			// *some* bytes won't block, not a full PIPE_BUF-sized one, so
			// the parent-facing fd must be non-blocking and EAGAIN must
			// be treated as "not ready yet" (see multiplex.go's EAGAIN
			// branches).
			if err := unix.SetNonblock(ch.parentFD, true); err != nil {
				unix.Close(readFD)
				unix.Close(writeFD)
				return nil, &SystemError{Op: "setnonblock", Err: err}
			}

			// Only register the child-facing fd for release now that
			// setup has fully succeeded — the error path above already
			// closed both fds itself.
			if ch.writer {
				here.push(func() { unix.Close(readFD) })
			} else {
				here.push(func() { unix.Close(writeFD) })
			}

			p.chanOf[i] = ch
			p.channels = append(p.channels, ch)
			later.push(ch.close)

		default:
			return nil, fmt.Errorf("pipexec: unknown stream spec kind %d", spec.kind)
		}
	}

	return p, nil
}

// nullFD lazily opens /dev/null (O_RDWR|O_CLOEXEC), reusing it across
// stdin/stdout/stderr within a single call.
func (p *streamPlumbing) nullFD(here *cleanupStack) (int, error) {
	if p.devNullFD >= 0 {
		return p.devNullFD, nil
	}
	fd, err := unix.Open("/dev/null", unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, &SystemError{Op: "open(/dev/null)", Err: err}
	}
	p.devNullFD = fd
	here.push(func() { unix.Close(fd) })
	return fd, nil
}
