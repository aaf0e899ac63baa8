// Package patch parses unified diff text into structured patches.
//
// The parser understands the output of "git diff" (extended headers, renames,
// copies, mode changes, binary patches) as well as traditional diffs that
// start with "---" and "+++" lines. Parsing is a single synchronous pass over
// an in-memory buffer:
//
//	patches, err := patch.Parse(content)
//	if errors.Is(err, patch.ErrMalformed) {
//		var pe *patch.ParseError
//		errors.As(err, &pe)
//		fmt.Println("bad input at line", pe.Line)
//	}
//
// Header lines are recognized by a table-driven state machine. Hunk bodies
// are checked against the line counts declared in their headers, and line
// numbers are computed with overflow checks.
//
// Paths have their "a/" and "b/" prefixes removed by default; use
// WithPrefixLen to strip a different number of leading components.
package patch
