// Package pipedebug dumps pipexec error chains for interactive debugging.
//
// It is a thin, deliberately unexciting layer: no logic from pipexec
// belongs here, only presentation of whatever error a Run/Execute call
// returned.
package pipedebug

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/edirooss/pipexec"
)

// PrintErrChain walks an error chain and prints each layer with its type.
func PrintErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "[%d] %T: %v\n", i, e, e)
	}
}

// PrintErrChainDebug is PrintErrChain plus, for each layer, a field-level
// dump tailored to pipexec's own error types rather than a generic
// reflect-over-any-struct walk: a *ChildProcessFailure prints its exit
// status, the formatted failing command, the size of its captured stderr
// and a spew dump of those bytes; a *ChannelError prints its symbolic event set; a *SystemError
// prints the syscall operation and the wrapped errno. Anything else in the
// chain (an error from outside this package) falls back to spew.Dump.
// Intended for interactive troubleshooting, not for logs.
func PrintErrChainDebug(w io.Writer, err error) {
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "[%d] %T\n", i, e)
		fmt.Fprintf(w, "   Error(): %v\n", e)

		switch v := e.(type) {
		case *pipexec.ChildProcessFailure:
			fmt.Fprintf(w, "   Status:  %d\n", v.Status)
			fmt.Fprintf(w, "   Command: %s\n", v.Command)
			if v.Stderr == nil {
				fmt.Fprintln(w, "   Stderr:  <not captured>")
			} else {
				fmt.Fprintf(w, "   Stderr:  %d bytes\n", len(v.Stderr))
				spew.Fdump(w, v.Stderr)
			}

		case *pipexec.ChannelError:
			fmt.Fprintf(w, "   Events:  %s\n", v.Events)

		case *pipexec.SystemError:
			fmt.Fprintf(w, "   Op:  %s\n", v.Op)
			fmt.Fprintf(w, "   Err: %v (%T)\n", v.Err, v.Err)

		default:
			spew.Fdump(w, e)
		}
	}
}
