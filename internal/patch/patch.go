package patch

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// DevNull is the path used for the missing side of an added or deleted file.
const DevNull = "/dev/null"

// Status is the kind of change a patch describes.
type Status uint8

const (
	// StatusModified is a content or mode change to an existing file.
	StatusModified Status = iota
	// StatusAdded is a newly created file.
	StatusAdded
	// StatusDeleted is a removed file.
	StatusDeleted
	// StatusRenamed is a file moved to a new path.
	StatusRenamed
	// StatusCopied is a file copied to a new path.
	StatusCopied
	// StatusTypeChange is a change of file type (e.g. regular file to symlink).
	StatusTypeChange
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	case StatusTypeChange:
		return "typechange"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FileMode is a git file mode such as 0100644.
type FileMode uint16

// Git file modes.
const (
	ModeUnreadable     FileMode = 0
	ModeTree           FileMode = 0o040000
	ModeBlob           FileMode = 0o100644
	ModeBlobExecutable FileMode = 0o100755
	ModeLink           FileMode = 0o120000
	ModeCommit         FileMode = 0o160000

	modeTypeMask FileMode = 0o170000
)

// Type returns the file type bits of the mode.
func (m FileMode) Type() FileMode {
	return m & modeTypeMask
}

// String formats the mode in octal as git prints it.
func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint16(m))
}

// Origin classifies a line within a hunk.
type Origin byte

// Line origins. The EOFNL variants mark a "\ No newline at end of file"
// line following a context, addition or deletion line respectively.
const (
	OriginContext      Origin = ' '
	OriginAddition     Origin = '+'
	OriginDeletion     Origin = '-'
	OriginContextEOFNL Origin = '='
	OriginAddEOFNL     Origin = '>'
	OriginDelEOFNL     Origin = '<'
)

// String returns a human-readable name for the origin.
func (o Origin) String() string {
	switch o {
	case OriginContext:
		return "context"
	case OriginAddition:
		return "addition"
	case OriginDeletion:
		return "deletion"
	case OriginContextEOFNL:
		return "context-eofnl"
	case OriginAddEOFNL:
		return "addition-eofnl"
	case OriginDelEOFNL:
		return "deletion-eofnl"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// IsEOFNL reports whether the origin is a no-newline-at-end-of-file marker.
func (o Origin) IsEOFNL() bool {
	return o == OriginContextEOFNL || o == OriginAddEOFNL || o == OriginDelEOFNL
}

// eofForOrigin returns the no-newline marker that follows a line of the
// given origin.
func eofForOrigin(o Origin) Origin {
	switch o {
	case OriginAddition:
		return OriginAddEOFNL
	case OriginDeletion:
		return OriginDelEOFNL
	default:
		return OriginContextEOFNL
	}
}

// Patch represents the change to a single file.
type Patch struct {
	// OldPath is the path before the change (DevNull for added files).
	OldPath string

	// NewPath is the path after the change (DevNull for deleted files).
	NewPath string

	// Status is the change type.
	Status Status

	// OldMode is the file mode before the change (0 if unknown).
	OldMode FileMode

	// NewMode is the file mode after the change (0 if unknown).
	NewMode FileMode

	// OldID is the abbreviated object id from the index line.
	OldID string

	// NewID is the abbreviated object id from the index line.
	NewID string

	// Similarity is the rename/copy similarity percentage.
	Similarity int

	// Binary indicates the file is binary and has no text hunks.
	Binary bool

	// BinaryData holds the binary payload when the patch carries one.
	BinaryData BinaryPatch

	// Hunks are the text hunks in order.
	Hunks []Hunk
}

// Hunk is a contiguous block of changed lines.
type Hunk struct {
	// OldStart is the starting line in the old file.
	OldStart int

	// OldLines is the number of lines from the old file.
	OldLines int

	// NewStart is the starting line in the new file.
	NewStart int

	// NewLines is the number of lines in the new file.
	NewLines int

	// Header is the hunk header line without its newline.
	Header string

	// Section is the optional text after the closing "@@".
	Section string

	// Lines are the lines in this hunk.
	Lines []Line
}

// Line is a single line within a hunk.
type Line struct {
	// Origin classifies the line.
	Origin Origin

	// Content is the line without its origin prefix or trailing newline.
	// It is a slice of the parsed input, not a copy.
	Content []byte

	// OldLineNo is the line number in the old file (-1 for additions).
	OldLineNo int

	// NewLineNo is the line number in the new file (-1 for deletions).
	NewLineNo int

	// ContentOffset is the byte offset of the line in the parsed input.
	ContentOffset int64
}

// BinaryType is the encoding of one side of a binary patch.
type BinaryType uint8

const (
	// BinaryNone means no binary data.
	BinaryNone BinaryType = iota
	// BinaryLiteral is the full deflated file contents.
	BinaryLiteral
	// BinaryDelta is a deflated git delta against the other side.
	BinaryDelta
)

// String returns a human-readable name for the binary type.
func (t BinaryType) String() string {
	switch t {
	case BinaryLiteral:
		return "literal"
	case BinaryDelta:
		return "delta"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t BinaryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// BinaryFile is one side of a "GIT binary patch" body.
type BinaryFile struct {
	// Type is literal or delta.
	Type BinaryType

	// Data is the base85-decoded, still deflated payload.
	Data []byte

	// InflatedLen is the declared size of the inflated payload.
	InflatedLen int64
}

// DeflatedLen returns the size of the deflated payload.
func (f BinaryFile) DeflatedLen() int {
	return len(f.Data)
}

// Inflate decompresses the payload and verifies its declared size.
func (f BinaryFile) Inflate() ([]byte, error) {
	if f.Type == BinaryNone {
		return nil, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("inflate binary %s: %w", f.Type, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate binary %s: %w", f.Type, err)
	}
	if int64(len(out)) != f.InflatedLen {
		return nil, fmt.Errorf("inflate binary %s: got %d bytes, want %d", f.Type, len(out), f.InflatedLen)
	}
	return out, nil
}

// BinaryPatch holds both sides of a binary patch.
type BinaryPatch struct {
	// ContainsData is false for "Binary files X and Y differ" markers.
	ContainsData bool

	// NewFile transforms the old contents into the new.
	NewFile BinaryFile

	// OldFile transforms the new contents back into the old.
	OldFile BinaryFile
}

// LineStats counts the lines of each kind across all hunks.
type LineStats struct {
	Context   int
	Additions int
	Deletions int
}

// LineStats returns line counts for the patch.
func (p *Patch) LineStats() LineStats {
	var s LineStats
	for _, h := range p.Hunks {
		for _, l := range h.Lines {
			switch l.Origin {
			case OriginContext:
				s.Context++
			case OriginAddition:
				s.Additions++
			case OriginDeletion:
				s.Deletions++
			}
		}
	}
	return s
}

// Path returns the most descriptive path for the patch: the new path unless
// the file was deleted.
func (p *Patch) Path() string {
	if p.Status == StatusDeleted || p.NewPath == "" {
		return p.OldPath
	}
	return p.NewPath
}
