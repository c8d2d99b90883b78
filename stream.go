package pipexec

// streamKind selects how one of a pipeline's three standard streams is
// plumbed.
type streamKind int

const (
	streamNull streamKind = iota
	streamExternalFD
	streamData
)

// StreamSpec selects where one standard stream (stdin, stdout, or stderr)
// is routed: to /dev/null, to a caller-owned file descriptor, or to/from
// an in-memory buffer. Build one with Null, FD, or Data.
type StreamSpec struct {
	kind streamKind
	fd   int
	data []byte
}

// Null routes the stream to /dev/null. Default for stdin and stdout.
func Null() StreamSpec { return StreamSpec{kind: streamNull} }

// FD routes the stream directly to a caller-owned file descriptor. The
// core neither dups nor closes fd; the caller retains ownership of it for
// the lifetime of the call and beyond.
func FD(fd int) StreamSpec { return StreamSpec{kind: streamExternalFD, fd: fd} }

// Data routes the stream through a pipe serviced by the multiplexer. For
// stdin, initial is written to the child before EOF is signaled by
// closing the pipe. For stdout/stderr, initial seeds the buffer that every
// byte read from the child is appended to; pass nil for a fresh capture.
// Default for stderr.
func Data(initial []byte) StreamSpec {
	buf := make([]byte, len(initial))
	copy(buf, initial)
	return StreamSpec{kind: streamData, data: buf}
}
