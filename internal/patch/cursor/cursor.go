// Package cursor provides a line-oriented scanner over an in-memory buffer.
//
// A Cursor always points somewhere inside the current line. The current line
// runs from the cursor position up to and including the next newline (or the
// end of the buffer). Advancing past the end of a line requires an explicit
// AdvanceLine or AdvanceNL call, which keeps the line counter accurate for
// error reporting.
package cursor

import (
	"bytes"
	"strconv"
)

// Cursor scans a byte buffer line by line.
type Cursor struct {
	content []byte

	// pos is the offset of the cursor in content.
	pos int

	// lineEnd is the offset just past the current line's newline.
	lineEnd int

	// lineNum is the 1-based number of the current line.
	lineNum int
}

// New creates a cursor positioned at the start of content.
func New(content []byte) *Cursor {
	c := &Cursor{
		content: content,
		lineNum: 1,
	}
	c.lineEnd = c.scanLineEnd(0)
	return c
}

// Line returns the unconsumed remainder of the current line, including its
// newline if present. The returned slice aliases the buffer.
func (c *Cursor) Line() []byte {
	return c.content[c.pos:c.lineEnd]
}

// LineLen returns the length of the unconsumed remainder of the current line.
func (c *Cursor) LineLen() int {
	return c.lineEnd - c.pos
}

// LineNum returns the 1-based number of the current line.
func (c *Cursor) LineNum() int {
	return c.lineNum
}

// Remain returns the number of unconsumed bytes in the buffer.
func (c *Cursor) Remain() int {
	return len(c.content) - c.pos
}

// Offset returns the cursor's byte offset into the buffer.
func (c *Cursor) Offset() int {
	return c.pos
}

// Len returns the total length of the buffer.
func (c *Cursor) Len() int {
	return len(c.content)
}

// HasPrefix reports whether the current line starts with prefix.
func (c *Cursor) HasPrefix(prefix string) bool {
	return bytes.HasPrefix(c.Line(), []byte(prefix))
}

// NextLine returns the line following the current one, or nil at the end of
// the buffer.
func (c *Cursor) NextLine() []byte {
	if c.lineEnd >= len(c.content) {
		return nil
	}
	return c.content[c.lineEnd:c.scanLineEnd(c.lineEnd)]
}

// Peek returns the next byte on the current line.
func (c *Cursor) Peek() (byte, bool) {
	if c.LineLen() == 0 {
		return 0, false
	}
	return c.content[c.pos], true
}

// AdvanceChars consumes n bytes of the current line. It is clamped to the
// end of the line.
func (c *Cursor) AdvanceChars(n int) {
	c.pos = min(c.pos+n, c.lineEnd)
}

// AdvanceExpected consumes s if the current line starts with it.
func (c *Cursor) AdvanceExpected(s string) bool {
	if !c.HasPrefix(s) {
		return false
	}
	c.pos += len(s)
	return true
}

// AdvanceWS consumes whitespace other than the line's newline. It reports
// whether anything was consumed.
func (c *Cursor) AdvanceWS() bool {
	consumed := false
	for c.pos < c.lineEnd {
		ch := c.content[c.pos]
		if ch == '\n' || !isSpace(ch) {
			break
		}
		c.pos++
		consumed = true
	}
	return consumed
}

// AdvanceNL consumes the current line if all that remains of it is the
// newline.
func (c *Cursor) AdvanceNL() bool {
	if c.LineLen() != 1 || c.content[c.pos] != '\n' {
		return false
	}
	c.AdvanceLine()
	return true
}

// AdvanceDigit parses an unsigned integer in the given base at the cursor
// and consumes it. It fails if the line does not start with a decimal digit
// or the value does not fit in an int64.
func (c *Cursor) AdvanceDigit(base int) (int64, bool) {
	line := c.Line()
	if len(line) == 0 || !isDigit(line[0]) {
		return 0, false
	}

	n := 0
	for n < len(line) && isBaseDigit(line[n], base) {
		n++
	}

	v, err := strconv.ParseInt(string(line[:n]), base, 64)
	if err != nil {
		return 0, false
	}
	c.pos += n
	return v, true
}

// AdvanceLine moves the cursor to the start of the next line.
func (c *Cursor) AdvanceLine() {
	c.pos = c.lineEnd
	c.lineEnd = c.scanLineEnd(c.pos)
	c.lineNum++
}

// scanLineEnd returns the offset just past the newline that ends the line
// starting at from, or the end of the buffer.
func (c *Cursor) scanLineEnd(from int) int {
	if i := bytes.IndexByte(c.content[from:], '\n'); i >= 0 {
		return from + i + 1
	}
	return len(c.content)
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isBaseDigit(ch byte, base int) bool {
	if base <= 10 {
		return ch >= '0' && ch < '0'+byte(base)
	}
	switch {
	case isDigit(ch):
		return true
	case ch >= 'a' && ch < 'a'+byte(base-10):
		return true
	case ch >= 'A' && ch < 'A'+byte(base-10):
		return true
	}
	return false
}
