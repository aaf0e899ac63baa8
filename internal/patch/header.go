package patch

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// headerState is a state of the patch header state machine.
type headerState uint8

const (
	stateStart headerState = iota
	stateDiff
	stateFileMode
	stateMode
	stateIndex
	statePath
	stateSimilarity
	stateRename
	stateCopy
	stateEnd
)

// transition is a header line accepted in some state. A nil handle marks a
// line that ends the header without being consumed.
type transition struct {
	prefix string
	next   headerState
	handle func(*parser) error
}

// transitions lists, for each state, the header lines it accepts. Entries
// are tried in order.
var transitions = map[headerState][]transition{
	stateStart: {
		{"diff --git ", stateDiff, (*parser).parseHeaderStart},
		{"--- ", statePath, (*parser).parseOldPath},
		{"Binary files ", stateEnd, nil},
	},
	stateDiff: {
		{"deleted file mode ", stateFileMode, (*parser).parseDeletedFileMode},
		{"new file mode ", stateFileMode, (*parser).parseNewFileMode},
		{"old mode ", stateMode, (*parser).parseOldMode},
		{"index ", stateIndex, (*parser).parseIndex},
		{"--- ", statePath, (*parser).parseOldPath},
		{"similarity index ", stateSimilarity, (*parser).parseSimilarity},
		{"dissimilarity index ", stateSimilarity, (*parser).parseDissimilarity},
	},
	stateFileMode: {
		{"index ", stateIndex, (*parser).parseIndex},
		{"--- ", statePath, (*parser).parseOldPath},
	},
	stateMode: {
		{"new mode ", stateEnd, (*parser).parseNewMode},
	},
	stateIndex: {
		{"--- ", statePath, (*parser).parseOldPath},
		{"GIT binary patch", stateEnd, nil},
		{"Binary files ", stateEnd, nil},
		{"-- ", stateStart, nil},
		{"diff --git ", stateStart, nil},
	},
	statePath: {
		{"+++ ", stateEnd, (*parser).parseNewPath},
	},
	stateSimilarity: {
		{"rename from ", stateRename, (*parser).parseRenameFrom},
		{"rename old ", stateRename, (*parser).parseRenameFrom},
		{"copy from ", stateCopy, (*parser).parseCopyFrom},
	},
	stateRename: {
		{"rename to ", stateEnd, (*parser).parseRenameTo},
		{"rename new ", stateEnd, (*parser).parseRenameTo},
	},
	stateCopy: {
		{"copy to ", stateEnd, (*parser).parseCopyTo},
	},
	stateEnd: {
		{"index ", stateIndex, (*parser).parseIndex},
		{"similarity index ", stateSimilarity, (*parser).parseSimilarity},
		{"diff --git ", stateStart, nil},
		{"@@ -", stateStart, nil},
		{"-- ", stateStart, nil},
	},
}

func lookupTransition(state headerState, line []byte) (transition, bool) {
	for _, t := range transitions[state] {
		if bytes.HasPrefix(line, []byte(t.prefix)) {
			return t, true
		}
	}
	return transition{}, false
}

// parseHeaderStart parses the two paths of a "diff --git" line. Unquoted
// paths containing spaces cannot be split reliably; in that case both are
// dropped and recovered from the "---" and "+++" lines.
func (p *parser) parseHeaderStart() error {
	oldPath, err := p.parseHeaderPath(p.headerPathLen())
	if err != nil {
		return p.errorf("corrupt old path in git diff header")
	}

	if !p.cur.AdvanceWS() {
		return p.errorf("corrupt new path in git diff header")
	}
	newPath, err := p.parseHeaderPath(p.headerPathLen())
	if err != nil {
		return p.errorf("corrupt new path in git diff header")
	}

	p.headerOldPath, p.headerNewPath = oldPath, newPath

	if !p.cur.HasPrefix("\n") && !p.cur.HasPrefix("\r\n") {
		p.cur.AdvanceChars(p.cur.LineLen() - 1)
		p.headerOldPath, p.headerNewPath = "", ""
	}
	return nil
}

func (p *parser) parseOldPath() error {
	if p.oldPath != "" {
		return p.errorf("patch contains duplicate old path")
	}
	path, err := p.parseLinePath()
	if err != nil {
		return err
	}
	p.oldPath = path
	return nil
}

func (p *parser) parseNewPath() error {
	if p.newPath != "" {
		return p.errorf("patch contains duplicate new path")
	}
	path, err := p.parseLinePath()
	if err != nil {
		return err
	}
	p.newPath = path
	return nil
}

// parseLinePath parses the rest of a "---" or "+++" line as a path. An
// unquoted path is cut at a tab, which separates the timestamp in
// traditional diffs.
func (p *parser) parseLinePath() (string, error) {
	n := p.cur.LineLen() - 1
	if line := p.cur.Line(); len(line) > 0 && line[0] != '"' {
		if i := bytes.IndexByte(line[:n], '\t'); i >= 0 {
			n = i
		}
	}

	path, err := p.parseHeaderPath(n)
	if err != nil {
		return "", err
	}

	// Consume the timestamp, if any.
	p.cur.AdvanceChars(p.cur.LineLen() - 1)
	return path, nil
}

func (p *parser) parseMode() (FileMode, error) {
	m, ok := p.cur.AdvanceDigit(8)
	if !ok || m > math.MaxUint16 {
		return 0, p.errorf("invalid file mode")
	}
	return FileMode(m), nil
}

func (p *parser) parseOldMode() error {
	m, err := p.parseMode()
	if err != nil {
		return err
	}
	p.patch.OldMode = m
	return nil
}

func (p *parser) parseNewMode() error {
	m, err := p.parseMode()
	if err != nil {
		return err
	}
	p.patch.NewMode = m
	return nil
}

func (p *parser) parseDeletedFileMode() error {
	p.patch.Status = StatusDeleted
	return p.parseOldMode()
}

func (p *parser) parseNewFileMode() error {
	p.patch.Status = StatusAdded
	return p.parseNewMode()
}

const (
	minOIDHexLen = 4
	maxOIDHexLen = 40
)

func (p *parser) parseOID() (string, error) {
	line := p.cur.Line()
	n := 0
	for n < len(line) && n < maxOIDHexLen && isHexDigit(line[n]) {
		n++
	}
	if n < minOIDHexLen {
		return "", p.errorf("invalid hex formatted object id")
	}
	id := string(line[:n])
	p.cur.AdvanceChars(n)
	return id, nil
}

// parseIndex parses "index <old>..<new>[ <mode>]". The mode, when present,
// fills in modes not already set by earlier header lines.
func (p *parser) parseIndex() error {
	oldID, err := p.parseOID()
	if err != nil {
		return err
	}
	if !p.cur.AdvanceExpected("..") {
		return p.errorf("invalid hex formatted object id")
	}
	newID, err := p.parseOID()
	if err != nil {
		return err
	}
	p.patch.OldID, p.patch.NewID = oldID, newID

	if c, ok := p.cur.Peek(); ok && c == ' ' {
		p.cur.AdvanceChars(1)
		m, err := p.parseMode()
		if err != nil {
			return err
		}
		if p.patch.NewMode == 0 {
			p.patch.NewMode = m
		}
		if p.patch.OldMode == 0 {
			p.patch.OldMode = m
		}
	}
	return nil
}

func (p *parser) parsePercent() (int, bool) {
	v, ok := p.cur.AdvanceDigit(10)
	if !ok || !p.cur.AdvanceExpected("%") || v > 100 {
		return 0, false
	}
	return int(v), true
}

func (p *parser) parseSimilarity() error {
	v, ok := p.parsePercent()
	if !ok {
		return p.errorf("invalid similarity percentage")
	}
	p.patch.Similarity = v
	return nil
}

func (p *parser) parseDissimilarity() error {
	v, ok := p.parsePercent()
	if !ok {
		return p.errorf("invalid similarity percentage")
	}
	p.patch.Similarity = 100 - v
	return nil
}

// Rename and copy lines carry the literal path, without a prefix.
// parseRenamePath parses the rest of a rename or copy line as a path. Git
// quotes only paths with special characters, so an unquoted path may hold
// spaces.
func (p *parser) parseRenamePath() (string, error) {
	return p.parseHeaderPath(p.cur.LineLen() - 1)
}

func (p *parser) parseRenameFrom() error {
	p.patch.Status = StatusRenamed
	path, err := p.parseRenamePath()
	if err != nil {
		return err
	}
	p.renameOldPath = path
	return nil
}

func (p *parser) parseRenameTo() error {
	path, err := p.parseRenamePath()
	if err != nil {
		return err
	}
	p.renameNewPath = path
	return nil
}

func (p *parser) parseCopyFrom() error {
	p.patch.Status = StatusCopied
	path, err := p.parseRenamePath()
	if err != nil {
		return err
	}
	p.renameOldPath = path
	return nil
}

func (p *parser) parseCopyTo() error {
	return p.parseRenameTo()
}

// headerPathLen returns the length of the path token at the cursor: up to
// whitespace when unquoted, through the closing quote when quoted.
func (p *parser) headerPathLen() int {
	line := p.cur.Line()
	quoted := len(line) > 0 && line[0] == '"'
	inQuote := false

	n := 0
	if quoted {
		n = 1
	}
	for ; n < len(line); n++ {
		c := line[n]
		if !quoted && isSpace(c) {
			break
		}
		if quoted && !inQuote && c == '"' {
			n++
			break
		}
		inQuote = !inQuote && c == '\\'
	}
	return n
}

// parseHeaderPath consumes n bytes and returns them as a path: trailing
// whitespace trimmed, C-style quoting removed and repeated slashes squashed.
func (p *parser) parseHeaderPath(n int) (string, error) {
	raw := string(p.cur.Line()[:n])
	p.cur.AdvanceChars(n)

	path := strings.TrimRightFunc(raw, func(r rune) bool { return r < 0x80 && isSpace(byte(r)) })
	if strings.HasPrefix(path, `"`) {
		unquoted, err := strconv.Unquote(path)
		if err != nil {
			return "", p.errorf("invalid quoted path")
		}
		path = unquoted
	}
	path = squashSlashes(path)

	if path == "" {
		return "", p.errorf("patch contains empty path")
	}
	return path, nil
}

func squashSlashes(path string) string {
	if !strings.Contains(path, "//") {
		return path
	}
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && i > 0 && path[i-1] == '/' {
			continue
		}
		b.WriteByte(path[i])
	}
	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
