package pipexec

import (
	"fmt"

	"github.com/edirooss/pipexec/pkg/piptrace"
	"golang.org/x/sys/unix"
)

const (
	// pipeBufBytes caps a single write at PIPE_BUF, the POSIX-guaranteed
	// atomic write size for a pipe. The parent is the only writer on the
	// stdin pipe, so this bounds each write rather than preventing any
	// interleaving.
	pipeBufBytes = 4096
	// readChunkBytes is the read buffer size; arbitrary beyond "reasonably
	// large", since reads are never required to be atomic.
	readChunkBytes = 4096
)

// multiplex runs the single-threaded, non-blocking readiness loop that
// services every Data-typed channel until each has either exhausted its
// outbound buffer (stdin) or seen its peer hang up (stdout/stderr). This
// is what lets a pipeline move arbitrary volumes of data without
// deadlocking on a full pipe buffer: no channel is ever written or read
// synchronously without first being told by poll that it is ready.
//
// A channel is released (channel.close) the moment this loop determines
// it is done, rather than waiting for the whole call to finish — so a
// fast stdin that finishes early doesn't hold its fd open for the
// duration of a slow stdout.
//
// When rec is non-nil, every readiness event is recorded to it (bounded
// memory, newest-first on read) for post-mortem inspection of a stuck or
// misbehaving pipeline; a nil rec disables tracing entirely with no extra
// cost beyond the nil check.
func multiplex(channels []*channel, rec *piptrace.Recorder) error {
	if len(channels) == 0 {
		return nil
	}

	type entry struct {
		ch   *channel
		done bool
	}
	byFD := make(map[int]*entry, len(channels))
	for _, ch := range channels {
		byFD[ch.parentFD] = &entry{ch: ch}
	}
	remaining := len(byFD)

	readBuf := make([]byte, readChunkBytes)

	for remaining > 0 {
		pfds := make([]unix.PollFd, 0, len(byFD))
		for fd, e := range byFD {
			if e.done {
				continue
			}
			var events int16
			if e.ch.writer {
				events = unix.POLLOUT
			} else {
				events = unix.POLLIN | unix.POLLPRI
			}
			pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: events})
		}

		if _, err := unix.Poll(pfds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return &SystemError{Op: "poll", Err: err}
		}

		for _, pfd := range pfds {
			if pfd.Revents == 0 {
				continue
			}
			e := byFD[int(pfd.Fd)]

			if rec != nil {
				rec.Record(fmt.Sprintf("fd=%d writer=%t events=%s", pfd.Fd, e.ch.writer, pollEventString(pfd.Revents)))
			}

			if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				return &ChannelError{Events: pollEventString(pfd.Revents)}
			}

			done, err := service(e.ch, pfd.Revents, readBuf)
			if err != nil {
				return err
			}
			if done || pfd.Revents&unix.POLLHUP != 0 {
				e.ch.close()
				e.done = true
				remaining--
			}
		}
	}

	return nil
}

// service performs one readiness-driven read or write on ch and reports
// whether ch is now finished. readBuf is reused across calls purely to
// avoid reallocating on every ready fd.
func service(ch *channel, revents int16, readBuf []byte) (done bool, err error) {
	if ch.writer {
		if revents&unix.POLLOUT == 0 {
			return false, nil
		}
		toWrite := ch.buf
		if len(toWrite) > pipeBufBytes {
			toWrite = toWrite[:pipeBufBytes]
		}
		n, werr := unix.Write(ch.parentFD, toWrite)
		if werr != nil {
			if werr == unix.EAGAIN || werr == unix.EINTR {
				return false, nil
			}
			return false, &SystemError{Op: "write", Err: werr}
		}
		ch.buf = ch.buf[n:]
		return len(ch.buf) == 0, nil
	}

	if revents&(unix.POLLIN|unix.POLLPRI) == 0 {
		return false, nil
	}
	n, rerr := unix.Read(ch.parentFD, readBuf)
	if rerr != nil {
		if rerr == unix.EAGAIN || rerr == unix.EINTR {
			return false, nil
		}
		return false, &SystemError{Op: "read", Err: rerr}
	}
	if n == 0 {
		return true, nil
	}
	ch.buf = append(ch.buf, readBuf[:n]...)

	if revents&unix.POLLHUP != 0 {
		// The kernel may have delivered a final burst concurrently with
		// the peer's close; drain to zero before treating this as done.
		for {
			n, rerr := unix.Read(ch.parentFD, readBuf)
			if rerr != nil {
				if rerr == unix.EAGAIN || rerr == unix.EINTR {
					continue
				}
				return false, &SystemError{Op: "read", Err: rerr}
			}
			if n == 0 {
				return true, nil
			}
			ch.buf = append(ch.buf, readBuf[:n]...)
		}
	}

	return false, nil
}

func pollEventString(revents int16) string {
	var s string
	add := func(mask int16, name string) {
		if revents&mask != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(unix.POLLIN, "IN")
	add(unix.POLLOUT, "OUT")
	add(unix.POLLPRI, "PRI")
	add(unix.POLLHUP, "HUP")
	add(unix.POLLERR, "ERR")
	add(unix.POLLNVAL, "NVAL")
	if s == "" {
		s = "0"
	}
	return s
}
