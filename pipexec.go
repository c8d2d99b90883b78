// Package pipexec launches one or more external programs connected as a
// UNIX-style pipeline and synchronously transports bulk byte data across
// the standard input of the first process, the standard output of the
// last, and the standard error of every process in the chain — while
// guaranteeing the caller learns about any non-zero exit.
//
// The hard part is the I/O plumbing: kernel pipes between stages, a
// non-blocking multiplexed readiness loop so arbitrary data volumes never
// deadlock on a full 64 KiB pipe buffer, deterministic fd release on every
// exit path, and reaping every child while reporting the earliest failure
// together with its captured stderr. See DESIGN.md for how each piece is
// grounded.
//
// Out of scope, by design: command-name resolution (callers supply
// absolute, executable paths — see exec.LookPath for that), shell features
// (globbing, redirection, variable expansion), pseudoterminals, timeouts,
// and non-POSIX platforms.
package pipexec

import "github.com/edirooss/pipexec/pkg/pipefmt"

// Command is a non-empty ordered sequence of argument strings. Element 0
// must be an absolute path to an existing, executable file — this package
// does not consult PATH.
type Command []string

// Pipeline is an ordered sequence of Commands, length >= 1. Commands[i]'s
// stdout feeds Commands[i+1]'s stdin.
type Pipeline []Command

// New builds a Pipeline from one or more Commands.
func New(commands ...Command) Pipeline { return Pipeline(commands) }

// String renders the command the way FormatCommands does.
func (c Command) String() string { return FormatCommands(c) }

// String renders the pipeline the way FormatCommands does.
func (p Pipeline) String() string { return FormatCommands(p) }

// FormatCommands renders an arbitrarily nested sequence of byte strings: a
// single Command, a Pipeline, a "spring" (a set of Pipelines), or deeper
// nesting built from those, as a human-readable string for error messages
// and logs. See pkg/pipefmt for the join-operator rules.
func FormatCommands(nested any) string {
	return pipefmt.FormatCommands(nested)
}
