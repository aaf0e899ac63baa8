package patch

import (
	"bytes"
	"math"
)

// parseHunkHeader parses "@@ -a[,b] +c[,d] @@[ section]" into h and
// consumes the line. Omitted counts default to 1.
func (p *parser) parseHunkHeader(h *Hunk) error {
	cur := p.cur
	header := cur.Line()
	h.OldLines, h.NewLines = 1, 1

	fail := func() error { return p.errorf("invalid patch hunk header") }

	var ok bool
	if !cur.AdvanceExpected("@@ -") {
		return fail()
	}
	if h.OldStart, ok = p.parseInt(); !ok {
		return fail()
	}
	if cur.AdvanceExpected(",") {
		if h.OldLines, ok = p.parseInt(); !ok {
			return fail()
		}
	}

	if !cur.AdvanceExpected(" +") {
		return fail()
	}
	if h.NewStart, ok = p.parseInt(); !ok {
		return fail()
	}
	if cur.AdvanceExpected(",") {
		if h.NewLines, ok = p.parseInt(); !ok {
			return fail()
		}
	}

	if !cur.AdvanceExpected(" @@") {
		return fail()
	}
	if h.OldLines == 0 && h.NewLines == 0 {
		return fail()
	}

	h.Section = string(trimEOL(bytes.TrimLeft(cur.Line(), " \t")))
	h.Header = string(trimEOL(header))
	cur.AdvanceLine()
	return nil
}

// parseInt parses a decimal count that fits in an int32.
func (p *parser) parseInt() (int, bool) {
	v, ok := p.cur.AdvanceDigit(10)
	if !ok || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// parseHunkBody consumes the lines of a hunk until both declared counts are
// used up. Counts that go negative are reported rather than ignored.
func (p *parser) parseHunkBody(h *Hunk) error {
	cur := p.cur
	oldRemain, newRemain := h.OldLines, h.NewLines
	var lastOrigin Origin

	for ; cur.Remain() > 0 && (oldRemain != 0 || newRemain != 0) && !cur.HasPrefix("@@ -"); cur.AdvanceLine() {
		oldLineNo, ok1 := addInt(h.OldStart, h.OldLines)
		oldLineNo, ok2 := subInt(oldLineNo, oldRemain)
		newLineNo, ok3 := addInt(h.NewStart, h.NewLines)
		newLineNo, ok4 := subInt(newLineNo, newRemain)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return p.errorf("unrepresentable line count")
		}

		line := cur.Line()
		if len(line) == 0 || line[len(line)-1] != '\n' {
			return p.errorf("invalid patch instruction")
		}

		var origin Origin
		prefix := 1

		switch line[0] {
		case '\n':
			prefix = 0
			fallthrough
		case ' ':
			origin = OriginContext
			oldRemain--
			newRemain--
		case '-':
			origin = OriginDeletion
			oldRemain--
			newLineNo = -1
		case '+':
			origin = OriginAddition
			newRemain--
			oldLineNo = -1
		case '\\':
			// Only the backslash is checked; the marker text may be localized.
			if oldRemain != 0 {
				return p.errorf("invalid patch hunk")
			}
			prefix = 0
			origin = eofForOrigin(lastOrigin)
			oldLineNo, newLineNo = -1, -1
		default:
			return p.errorf("invalid patch hunk")
		}

		h.Lines = append(h.Lines, Line{
			Origin:        origin,
			Content:       line[prefix : len(line)-1],
			OldLineNo:     oldLineNo,
			NewLineNo:     newLineNo,
			ContentOffset: int64(cur.Offset()),
		})
		lastOrigin = origin
	}

	if oldRemain != 0 || newRemain != 0 {
		return p.errorf("invalid patch hunk, expected %d old lines and %d new lines", oldRemain, newRemain)
	}

	// "\ No newline at end of file" after the last counted line.
	if cur.HasPrefix(`\ `) && len(h.Lines) > 0 {
		last := h.Lines[len(h.Lines)-1]
		h.Lines = append(h.Lines, Line{
			Origin:        eofForOrigin(last.Origin),
			Content:       trimEOL(cur.Line()),
			OldLineNo:     -1,
			NewLineNo:     -1,
			ContentOffset: int64(cur.Offset()),
		})
		cur.AdvanceLine()
	}

	return nil
}

// addInt and subInt report whether the result fits in an int32.
func addInt(a, b int) (int, bool) {
	return fitsInt32(int64(a) + int64(b))
}

func subInt(a, b int) (int, bool) {
	return fitsInt32(int64(a) - int64(b))
}

func fitsInt32(v int64) (int, bool) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func trimEOL(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte("\n"))
}
