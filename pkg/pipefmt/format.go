// Package pipefmt renders commands, pipelines, and nested "springs" of
// pipelines as human-readable strings for error messages and logs.
//
// Design:
//
//   - This layer is a pure string-construction module: no execution, no I/O.
//     It mirrors pkg/remuxcmd's split in the teacher this was adapted from —
//     command *shape* lives here, process lifecycle lives in the pipexec
//     package.
//
// Nesting model:
//
//	depth 1 (a slice of atoms)     -> a Command,  joined with " "
//	depth 2 (a slice of Commands)  -> a Pipeline,  joined with " | "
//	depth 3+ (a slice of Pipelines
//	          or of deeper sets)   -> a Spring,    joined with " + ", wrapped in "(" ")"
//
// Depth is discovered structurally (by following the first element down to
// an atom), not declared by the caller, which is what makes
// FormatCommands([]Command{cmd}) and FormatCommands(cmd) render identically:
// a one-element Pipeline has nothing to join, so its " | "-join degenerates
// to the sole Command's own rendering.
package pipefmt

import (
	"fmt"
	"reflect"
	"strings"
)

// FormatCommands renders an arbitrarily nested sequence of byte strings.
//
// Accepted shapes: a single Command-like value (e.g. []string), a
// Pipeline-like value ([]Command or [][]string), a Spring-like value
// (a slice of Pipelines), or any deeper slice-of-slices nesting built from
// those. A bare string is returned unchanged. Anything else that is not
// ultimately a slice of strings panics — this
// is a programmer error (malformed nesting), not a runtime condition a
// caller should need to handle.
func FormatCommands(nested any) string {
	v := indirect(reflect.ValueOf(nested))
	return formatValue(v)
}

func formatValue(v reflect.Value) string {
	v = indirect(v)

	if v.Kind() == reflect.String {
		return v.String()
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		panic(fmt.Sprintf("pipefmt: cannot format %s as a command/pipeline/spring", v.Kind()))
	}

	n := v.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = formatValue(v.Index(i))
	}

	switch depth(v) {
	case 1:
		return strings.Join(parts, " ")
	case 2:
		return strings.Join(parts, " | ")
	default:
		return "(" + strings.Join(parts, " + ") + ")"
	}
}

// depth returns 1 for a Command (a slice whose elements are atoms), and
// 1+depth(element) for a slice of nested slices. Only the first element is
// inspected: every sibling at a given nesting level is assumed to have the
// same shape, which holds for every Command/Pipeline/Spring in this module.
func depth(v reflect.Value) int {
	v = indirect(v)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return 0
	}
	if v.Len() == 0 {
		// An empty Command/Pipeline/Spring: treat as the shallowest
		// possible nesting so it still joins to "".
		return 1
	}
	return 1 + depth(indirect(v.Index(0)))
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}
