package patch

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/gitraw/internal/patch/cursor"
)

// defaultPrefixLen strips the "a/" and "b/" prefixes git writes.
const defaultPrefixLen = 1

// Option configures parsing.
type Option func(*options)

type options struct {
	prefixLen int
}

// WithPrefixLen sets how many leading path components are stripped from
// header paths, like "git apply -p". Zero keeps paths as written.
func WithPrefixLen(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.prefixLen = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{prefixLen: defaultPrefixLen}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parser parses unified diff text. A Parser holds only options and is safe
// for concurrent use.
type Parser struct {
	opts options
}

// NewParser creates a parser with the given options.
func NewParser(opts ...Option) *Parser {
	return &Parser{opts: newOptions(opts)}
}

// Parse reads diff content and returns its patches. The patches own the
// buffer they were read into.
func (p *Parser) Parse(r io.Reader) ([]*Patch, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading diff: %w", err)
	}
	return parseAll(content, p.opts)
}

// Parse parses every patch in content. Empty content yields no patches.
// Content that is not empty but holds no patch returns ErrNoPatch.
//
// Line contents share memory with content; callers that modify content
// afterwards must copy it first.
func Parse(content []byte, opts ...Option) ([]*Patch, error) {
	return parseAll(content, newOptions(opts))
}

// ParseOne parses the first patch in content.
func ParseOne(content []byte, opts ...Option) (*Patch, error) {
	p := newParser(content, newOptions(opts))
	return p.parsePatch()
}

func parseAll(content []byte, opts options) ([]*Patch, error) {
	var patches []*Patch

	for cur := cursor.New(content); cur.Remain() > 0; {
		p := &parser{cur: cur, opts: opts}
		patch, err := p.parsePatch()
		if err != nil {
			if errors.Is(err, ErrNoPatch) && len(patches) > 0 {
				break
			}
			return nil, err
		}
		patches = append(patches, patch)
	}

	return patches, nil
}

// parser holds the state for parsing one patch.
type parser struct {
	cur  *cursor.Cursor
	opts options

	patch *Patch

	// Paths from the "diff --git" line, still prefixed.
	headerOldPath string
	headerNewPath string

	// Paths from the "---" and "+++" lines, still prefixed.
	oldPath string
	newPath string

	// Paths from rename/copy lines, never prefixed.
	renameOldPath string
	renameNewPath string
}

func newParser(content []byte, opts options) *parser {
	return &parser{cur: cursor.New(content), opts: opts}
}

// parsePatch parses a single patch starting at the cursor. On error the
// partially built patch is discarded.
func (p *parser) parsePatch() (*Patch, error) {
	p.patch = &Patch{Status: StatusModified}

	if err := p.parsePatchHeader(); err != nil {
		return nil, err
	}
	if err := p.parsePatchBody(); err != nil {
		return nil, err
	}
	if err := p.checkPatch(); err != nil {
		return nil, err
	}
	return p.patch, nil
}

// errorf builds a ParseError for the current line.
func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.cur.LineNum(), format, args...)
}

func (p *parser) errorAt(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// parsePatchHeader skips leading noise until a patch header is found and
// then runs the header state machine.
func (p *parser) parsePatchHeader() error {
	cur := p.cur

	for ; cur.Remain() > 0; cur.AdvanceLine() {
		if cur.LineLen() < 6 {
			continue
		}

		// A hunk header before any file header.
		if cur.HasPrefix("@@ -") {
			lineNum := cur.LineNum()
			var h Hunk
			if err := p.parseHunkHeader(&h); err != nil {
				continue
			}
			return p.errorAt(lineNum, "invalid hunk header outside patch")
		}

		if p.atPatchStart() {
			return p.parseHeader()
		}
	}

	return ErrNoPatch
}

// atPatchStart reports whether the current line begins a patch: a git
// header, a traditional "---"/"+++" pair or a bare binary marker.
func (p *parser) atPatchStart() bool {
	cur := p.cur
	switch {
	case cur.HasPrefix("diff --git "):
		return true
	case cur.HasPrefix("--- "):
		next := cur.NextLine()
		return len(next) >= 4 && string(next[:4]) == "+++ "
	case cur.HasPrefix("Binary files "):
		return true
	}
	return false
}

// parseHeader runs the header state machine from stateStart.
func (p *parser) parseHeader() error {
	cur := p.cur
	state := stateStart

	for ; cur.Remain() > 0; cur.AdvanceLine() {
		line := cur.Line()
		if len(line) == 0 || line[len(line)-1] != '\n' {
			break
		}

		t, ok := lookupTransition(state, line)
		if !ok {
			return p.errorf("invalid patch header")
		}

		state = t.next

		// Terminators leave the line for the body or the next patch.
		if t.handle == nil {
			return nil
		}

		cur.AdvanceChars(len(t.prefix))
		if err := t.handle(p); err != nil {
			return err
		}

		cur.AdvanceWS()
		if !cur.AdvanceExpected("\n") || cur.LineLen() > 0 {
			return p.errorf("trailing data")
		}
	}

	// An empty added or deleted file ends after its index line.
	if state != stateEnd && state != stateIndex {
		return p.errorf("unexpected header line")
	}
	return nil
}

// parsePatchBody parses hunks or a binary body.
func (p *parser) parsePatchBody() error {
	switch {
	case p.cur.HasPrefix("GIT binary patch"):
		return p.parseBinary()
	case p.cur.HasPrefix("Binary files "):
		return p.parseBinaryNoData()
	default:
		return p.parseHunks()
	}
}

// parseHunks parses consecutive hunks.
func (p *parser) parseHunks() error {
	for p.cur.HasPrefix("@@ -") {
		var h Hunk
		if err := p.parseHunkHeader(&h); err != nil {
			return err
		}
		if err := p.parseHunkBody(&h); err != nil {
			return err
		}
		p.patch.Hunks = append(p.patch.Hunks, h)
	}
	return nil
}
