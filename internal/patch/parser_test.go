package patch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func requireParseError(t *testing.T, err error, line int, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "error %v is not a *ParseError", err)
	assert.Equal(t, msg, pe.Msg)
	if line > 0 {
		assert.Equal(t, line, pe.Line)
	}
}

func TestParse_TraditionalDiff(t *testing.T) {
	input := "--- a/x.txt\n+++ b/x.txt\n@@ -1,1 +1,2 @@\n context\n+added\n"

	patches, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, patches, 1)

	p := patches[0]
	assert.Equal(t, "x.txt", p.OldPath)
	assert.Equal(t, "x.txt", p.NewPath)
	assert.Equal(t, StatusModified, p.Status)
	assert.False(t, p.Binary)

	want := []Hunk{{
		OldStart: 1,
		OldLines: 1,
		NewStart: 1,
		NewLines: 2,
		Header:   "@@ -1,1 +1,2 @@",
		Lines: []Line{
			{Origin: OriginContext, Content: []byte("context"), OldLineNo: 1, NewLineNo: 1, ContentOffset: 40},
			{Origin: OriginAddition, Content: []byte("added"), OldLineNo: -1, NewLineNo: 2, ContentOffset: 49},
		},
	}}
	if diff := cmp.Diff(want, p.Hunks); diff != "" {
		t.Errorf("Hunks mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_HunkCountMismatch(t *testing.T) {
	t.Run("next file header", func(t *testing.T) {
		input := "--- a/x.txt\n+++ b/x.txt\n@@ -1,1 +1,2 @@\n context\n" +
			"diff --git a/y.txt b/y.txt\n"
		_, err := Parse([]byte(input))
		requireParseError(t, err, 5, "invalid patch hunk")
	})

	t.Run("end of input", func(t *testing.T) {
		input := "--- a/x.txt\n+++ b/x.txt\n@@ -1,1 +1,2 @@\n context\n"
		_, err := Parse([]byte(input))
		requireParseError(t, err, 5, "invalid patch hunk, expected 0 old lines and 1 new lines")
	})

	t.Run("next hunk header", func(t *testing.T) {
		input := "--- a/x.txt\n+++ b/x.txt\n@@ -1,2 +1,2 @@\n context\n@@ -9 +9 @@\n-a\n+b\n"
		_, err := Parse([]byte(input))
		requireParseError(t, err, 5, "invalid patch hunk, expected 1 old lines and 1 new lines")
	})
}

func TestParse_BinaryWithoutPaths(t *testing.T) {
	_, err := Parse([]byte("Binary files a/img.png and b/img.png differ\n"))
	requireParseError(t, err, 1, "corrupt binary data without paths")
}

func TestParse_BinaryNoData(t *testing.T) {
	t.Run("modified", func(t *testing.T) {
		input := "diff --git a/img.png b/img.png\n" +
			"index 1234567..89abcde 100644\n" +
			"Binary files a/img.png and b/img.png differ\n"

		p, err := ParseOne([]byte(input))
		require.NoError(t, err)
		assert.True(t, p.Binary)
		assert.False(t, p.BinaryData.ContainsData)
		assert.Equal(t, "img.png", p.OldPath)
		assert.Equal(t, "img.png", p.NewPath)
		assert.Equal(t, "1234567", p.OldID)
		assert.Equal(t, ModeBlob, p.NewMode)
	})

	t.Run("added", func(t *testing.T) {
		input := "diff --git a/img.png b/img.png\n" +
			"new file mode 100644\n" +
			"index 0000000..89abcde\n" +
			"Binary files /dev/null and b/img.png differ\n"

		p, err := ParseOne([]byte(input))
		require.NoError(t, err)
		assert.Equal(t, StatusAdded, p.Status)
		assert.True(t, p.Binary)
		assert.Equal(t, DevNull, p.OldPath)
		assert.Equal(t, "img.png", p.NewPath)
		assert.Empty(t, p.OldID)
		assert.Equal(t, "89abcde", p.NewID)
	})

	t.Run("wrong paths", func(t *testing.T) {
		input := "diff --git a/img.png b/img.png\n" +
			"index 1234567..89abcde 100644\n" +
			"Binary files a/other.png and b/img.png differ\n"

		_, err := ParseOne([]byte(input))
		requireParseError(t, err, 3, "corrupt git binary header")
	})
}

func TestParse_GitDiff(t *testing.T) {
	patches, err := Parse(readFixture(t, "mixed.diff"))
	require.NoError(t, err)
	require.Len(t, patches, 5)

	t.Run("modified with missing newline", func(t *testing.T) {
		p := patches[0]
		assert.Equal(t, StatusModified, p.Status)
		assert.Equal(t, "a.txt", p.OldPath)
		assert.Equal(t, "a.txt", p.NewPath)
		assert.Equal(t, "4cb29ea", p.OldID)
		assert.Equal(t, "a623a0b", p.NewID)
		assert.Equal(t, ModeBlob, p.OldMode)
		assert.Equal(t, ModeBlob, p.NewMode)

		require.Len(t, p.Hunks, 1)
		h := p.Hunks[0]
		assert.Equal(t, 1, h.OldStart)
		assert.Equal(t, 3, h.OldLines)

		var origins []Origin
		for _, l := range h.Lines {
			origins = append(origins, l.Origin)
		}
		assert.Equal(t, []Origin{
			OriginContext, OriginDeletion, OriginDeletion,
			OriginAddition, OriginAddition, OriginAddEOFNL,
		}, origins)

		last := h.Lines[len(h.Lines)-1]
		assert.Equal(t, `\ No newline at end of file`, string(last.Content))
		assert.Equal(t, -1, last.OldLineNo)
		assert.Equal(t, -1, last.NewLineNo)

		assert.Equal(t, 3, h.Lines[2].OldLineNo)
		assert.Equal(t, 3, h.Lines[4].NewLineNo)
		assert.Equal(t, LineStats{Context: 1, Additions: 2, Deletions: 2}, p.LineStats())
	})

	t.Run("added", func(t *testing.T) {
		p := patches[1]
		assert.Equal(t, StatusAdded, p.Status)
		assert.Equal(t, DevNull, p.OldPath)
		assert.Equal(t, "add.txt", p.NewPath)
		assert.Equal(t, "add.txt", p.Path())
		assert.Equal(t, ModeUnreadable, p.OldMode)
		assert.Equal(t, ModeBlob, p.NewMode)
		assert.Empty(t, p.OldID)
		assert.Equal(t, "92d5444", p.NewID)

		require.Len(t, p.Hunks, 1)
		assert.Equal(t, 0, p.Hunks[0].OldStart)
		assert.Equal(t, 0, p.Hunks[0].OldLines)
		assert.Equal(t, 1, p.Hunks[0].NewLines)
		assert.Equal(t, []byte("fresh"), p.Hunks[0].Lines[0].Content)
		assert.Equal(t, 1, p.Hunks[0].Lines[0].NewLineNo)
	})

	t.Run("deleted", func(t *testing.T) {
		p := patches[2]
		assert.Equal(t, StatusDeleted, p.Status)
		assert.Equal(t, "del.txt", p.OldPath)
		assert.Equal(t, DevNull, p.NewPath)
		assert.Equal(t, "del.txt", p.Path())
		assert.Equal(t, ModeBlob, p.OldMode)
		assert.Equal(t, ModeUnreadable, p.NewMode)
		assert.Empty(t, p.NewID)
	})

	t.Run("renamed", func(t *testing.T) {
		p := patches[3]
		assert.Equal(t, StatusRenamed, p.Status)
		assert.Equal(t, "old.txt", p.OldPath)
		assert.Equal(t, "new.txt", p.NewPath)
		assert.Equal(t, 100, p.Similarity)
		assert.Empty(t, p.Hunks)
		assert.False(t, p.Binary)
	})

	t.Run("mode change", func(t *testing.T) {
		p := patches[4]
		assert.Equal(t, StatusModified, p.Status)
		assert.Equal(t, "run.sh", p.NewPath)
		assert.Equal(t, ModeBlob, p.OldMode)
		assert.Equal(t, ModeBlobExecutable, p.NewMode)
		assert.False(t, p.Binary)
	})
}

func TestParse_HunkLineCounts(t *testing.T) {
	patches, err := Parse(readFixture(t, "mixed.diff"))
	require.NoError(t, err)

	for _, p := range patches {
		for _, h := range p.Hunks {
			var oldLines, newLines int
			for _, l := range h.Lines {
				switch l.Origin {
				case OriginContext:
					oldLines++
					newLines++
				case OriginDeletion:
					oldLines++
				case OriginAddition:
					newLines++
				}
			}
			assert.Equal(t, h.OldLines, oldLines, "%s %s", p.Path(), h.Header)
			assert.Equal(t, h.NewLines, newLines, "%s %s", p.Path(), h.Header)
		}
	}
}

func TestParse_Binary(t *testing.T) {
	p, err := ParseOne(readFixture(t, "binary.diff"))
	require.NoError(t, err)

	assert.True(t, p.Binary)
	assert.Empty(t, p.Hunks)
	assert.Equal(t, "b.bin", p.NewPath)
	assert.Len(t, p.OldID, 40)
	require.True(t, p.BinaryData.ContainsData)

	newFile := p.BinaryData.NewFile
	assert.Equal(t, BinaryLiteral, newFile.Type)
	assert.Equal(t, int64(18), newFile.InflatedLen)
	assert.Equal(t, 26, newFile.DeflatedLen())

	data, err := newFile.Inflate()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\x00there world\n"), data)

	oldFile := p.BinaryData.OldFile
	assert.Equal(t, BinaryLiteral, oldFile.Type)
	data, err = oldFile.Inflate()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\x00world\n"), data)
}

func TestParse_BinaryErrors(t *testing.T) {
	header := "diff --git a/b b/b\nindex 1234..5678\nGIT binary patch\n"

	tests := []struct {
		name string
		body string
		line int
		msg  string
	}{
		{"unknown type", "weird 5\n", 4, "unknown binary delta type"},
		{"bad size", "literal x\n", 4, "invalid binary size"},
		{"bad length char", "literal 5\n!bad\n", 5, "invalid binary length"},
		{"truncated", "literal 5\nE12\n", 5, "truncated binary data"},
		{"trailing", "literal 4\nDVPa!sX\n", 5, "trailing data"},
		{"missing separator", "literal 4\nDVPa!s\n", 6, "corrupt git binary separator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOne([]byte(header + tt.body))
			requireParseError(t, err, tt.line, tt.msg)
		})
	}
}

func TestParse_QuotedPaths(t *testing.T) {
	patches, err := Parse(readFixture(t, "quoted.diff"))
	require.NoError(t, err)
	require.Len(t, patches, 2)

	assert.Equal(t, "sp ace.txt", patches[0].OldPath)
	assert.Equal(t, "sp ace.txt", patches[0].NewPath)
	assert.Equal(t, "tab\tname.txt", patches[1].OldPath)
	assert.Equal(t, "tab\tname.txt", patches[1].NewPath)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		line  int
		msg   string
	}{
		{
			name:  "empty hunk header counts",
			input: "--- a/x\n+++ b/x\n@@ -1,0 +1,0 @@\n",
			line:  3,
			msg:   "invalid patch hunk header",
		},
		{
			name:  "hunk start exceeds int32",
			input: "--- a/x\n+++ b/x\n@@ -2147483648 +1 @@\n-a\n+b\n",
			line:  3,
			msg:   "invalid patch hunk header",
		},
		{
			name:  "line number overflow",
			input: "--- a/x\n+++ b/x\n@@ -2147483647,1 +1,1 @@\n-a\n+b\n",
			line:  4,
			msg:   "unrepresentable line count",
		},
		{
			name:  "missing final newline",
			input: "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b",
			line:  5,
			msg:   "invalid patch instruction",
		},
		{
			name:  "unknown line origin",
			input: "--- a/x\n+++ b/x\n@@ -1 +1 @@\n*a\n",
			line:  4,
			msg:   "invalid patch hunk",
		},
		{
			name:  "eof marker with old lines left",
			input: "--- a/x\n+++ b/x\n@@ -1 +1 @@\n\\ No newline at end of file\n",
			line:  4,
			msg:   "invalid patch hunk",
		},
		{
			name:  "trailing data after mode",
			input: "diff --git a/x b/x\nold mode 100644x\n",
			line:  2,
			msg:   "trailing data",
		},
		{
			name:  "unknown header line",
			input: "diff --git a/x b/x\nbogus line\n",
			line:  2,
			msg:   "invalid patch header",
		},
		{
			name:  "truncated header",
			input: "diff --git a/x b/x\nold mode 100644\n",
			line:  3,
			msg:   "unexpected header line",
		},
		{
			name:  "mismatched old path",
			input: "diff --git a/x b/x\n--- a/y\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n",
			line:  7,
			msg:   "mismatched old path names",
		},
		{
			name:  "added file without null old path",
			input: "diff --git a/x b/x\nnew file mode 100644\n--- a/x\n+++ b/x\n@@ -0,0 +1 @@\n+a\n",
			line:  7,
			msg:   "expected old path of '/dev/null'",
		},
		{
			name:  "prefix too long",
			input: "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n",
			opts:  []Option{WithPrefixLen(3)},
			line:  6,
			msg:   "header filename does not contain 3 path components",
		},
		{
			name:  "similarity over 100",
			input: "diff --git a/x b/y\nsimilarity index 101%\n",
			line:  2,
			msg:   "invalid similarity percentage",
		},
		{
			name:  "short object id",
			input: "diff --git a/x b/x\nindex 12..34\n",
			line:  2,
			msg:   "invalid hex formatted object id",
		},
		{
			name:  "empty quoted path",
			input: "diff --git \"\" b/x\n",
			line:  1,
			msg:   "corrupt old path in git diff header",
		},
		{
			name:  "hunk outside patch",
			input: "some preamble\n@@ -1 +1 @@\n-a\n+b\n",
			line:  2,
			msg:   "invalid hunk header outside patch",
		},
		{
			name:  "duplicate old path",
			input: "--- a/x\n+++ b/x\nindex 1234..5678\n--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n",
			line:  4,
			msg:   "patch contains duplicate old path",
		},
		{
			name:  "empty old path",
			input: "diff --git a/x b/x\n--- \n+++ b/x\n",
			line:  2,
			msg:   "patch contains empty path",
		},
		{
			name:  "empty rename source",
			input: "diff --git a/x b/y\nsimilarity index 90%\nrename from \nrename to y\n",
			line:  3,
			msg:   "patch contains empty path",
		},
		{
			name:  "empty copy target",
			input: "diff --git a/x b/y\nsimilarity index 90%\ncopy from x\ncopy to \n",
			line:  4,
			msg:   "patch contains empty path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), tt.opts...)
			requireParseError(t, err, tt.line, tt.msg)
		})
	}
}

func TestParse_NoPatch(t *testing.T) {
	patches, err := Parse(nil)
	assert.NoError(t, err)
	assert.Empty(t, patches)

	_, err = Parse([]byte("just some text\nwithout any diff\n"))
	assert.ErrorIs(t, err, ErrNoPatch)

	_, err = ParseOne([]byte("nothing here\n"))
	assert.ErrorIs(t, err, ErrNoPatch)
}

func TestParse_SkipsNoise(t *testing.T) {
	input := "From 1234 Mon Sep 17 00:00:00 2001\n" +
		"Subject: [PATCH] fix\n" +
		"\n" +
		"@@ not a hunk\n" +
		"diff --git a/x b/x\n" +
		"index 1234567..89abcde 100644\n" +
		"--- a/x\n" +
		"+++ b/x\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n" +
		"-- \n" +
		"2.40.0\n"

	patches, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, "x", patches[0].NewPath)
	assert.Len(t, patches[0].Hunks, 1)
}

func TestParse_TraditionalAddDelete(t *testing.T) {
	t.Run("added", func(t *testing.T) {
		input := "--- /dev/null\n+++ b/new.txt\t2024-01-01 10:00:00.000000000 +0000\n@@ -0,0 +1 @@\n+hi\n"
		p, err := ParseOne([]byte(input))
		require.NoError(t, err)
		assert.Equal(t, StatusAdded, p.Status)
		assert.Equal(t, DevNull, p.OldPath)
		assert.Equal(t, "new.txt", p.NewPath)
	})

	t.Run("deleted", func(t *testing.T) {
		input := "--- a/old.txt\t2024-01-01 10:00:00.000000000 +0000\n+++ /dev/null\n@@ -1 +0,0 @@\n-bye\n"
		p, err := ParseOne([]byte(input))
		require.NoError(t, err)
		assert.Equal(t, StatusDeleted, p.Status)
		assert.Equal(t, "old.txt", p.OldPath)
		assert.Equal(t, DevNull, p.NewPath)
	})
}

func TestParse_PrefixLen(t *testing.T) {
	input := "--- src/pkg/x.go\n+++ dst/pkg/x.go\n@@ -1 +1 @@\n-a\n+b\n"

	p, err := ParseOne([]byte(input), WithPrefixLen(0))
	require.NoError(t, err)
	assert.Equal(t, "src/pkg/x.go", p.OldPath)
	assert.Equal(t, "dst/pkg/x.go", p.NewPath)

	p, err = ParseOne([]byte(input), WithPrefixLen(2))
	require.NoError(t, err)
	assert.Equal(t, "x.go", p.OldPath)
	assert.Equal(t, "x.go", p.NewPath)
}

func TestParse_HunkSection(t *testing.T) {
	input := "--- a/main.go\n+++ b/main.go\n" +
		"@@ -1,2 +1,2 @@ func main() {\n" +
		" \tx := 1\n" +
		"-\ty := 2\n" +
		"+\ty := 3\n" +
		"@@ -10 +10,2 @@\n" +
		" }\n" +
		"+\n"

	p, err := ParseOne([]byte(input))
	require.NoError(t, err)
	require.Len(t, p.Hunks, 2)

	assert.Equal(t, "func main() {", p.Hunks[0].Section)
	assert.Equal(t, "@@ -1,2 +1,2 @@ func main() {", p.Hunks[0].Header)
	assert.Equal(t, "", p.Hunks[1].Section)
	assert.Equal(t, 10, p.Hunks[1].OldStart)
	assert.Equal(t, 1, p.Hunks[1].OldLines)
	assert.Equal(t, 11, p.Hunks[1].Lines[1].NewLineNo)
	assert.Equal(t, LineStats{Context: 2, Additions: 2, Deletions: 1}, p.LineStats())
}

func TestParse_EOFMarkerOrigins(t *testing.T) {
	input := "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n\\ Kein Zeilenumbruch am Dateiende.\n"

	p, err := ParseOne([]byte(input))
	require.NoError(t, err)

	lines := p.Hunks[0].Lines
	require.Len(t, lines, 4)
	assert.Equal(t, OriginDeletion, lines[0].Origin)
	assert.Equal(t, OriginDelEOFNL, lines[1].Origin)
	assert.Equal(t, OriginAddition, lines[2].Origin)
	assert.Equal(t, OriginAddEOFNL, lines[3].Origin)
	assert.True(t, lines[3].Origin.IsEOFNL())
}

func TestParse_ModeOnlyAndTypeChange(t *testing.T) {
	p, err := ParseOne([]byte("diff --git a/l b/l\nold mode 100644\nnew mode 120000\n"))
	require.NoError(t, err)
	assert.Equal(t, StatusTypeChange, p.Status)
	assert.Equal(t, ModeLink, p.NewMode)
}

func TestParse_NoHunksIsBinary(t *testing.T) {
	input := "diff --git a/x b/x\nindex 1234567..89abcde 100644\n--- a/x\n+++ b/x\n"

	p, err := ParseOne([]byte(input))
	require.NoError(t, err)
	assert.True(t, p.Binary)
	assert.False(t, p.BinaryData.ContainsData)
}

func TestParse_RenameWithChanges(t *testing.T) {
	input := "diff --git a/src.txt b/dst.txt\n" +
		"similarity index 90%\n" +
		"rename old src.txt\n" +
		"rename new dst.txt\n" +
		"index 1234567..89abcde 100644\n" +
		"--- a/src.txt\n" +
		"+++ b/dst.txt\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n"

	p, err := ParseOne([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, StatusRenamed, p.Status)
	assert.Equal(t, "src.txt", p.OldPath)
	assert.Equal(t, "dst.txt", p.NewPath)
	assert.Equal(t, 90, p.Similarity)
	assert.Len(t, p.Hunks, 1)

	// A second file header is not accepted once the paths are known.
	_, err = ParseOne([]byte("--- a/x\n+++ b/x\n--- a/x\n"))
	requireParseError(t, err, 3, "invalid patch header")
}

func TestParse_RenamePathWithSpaces(t *testing.T) {
	input := "diff --git a/my file b/your file\n" +
		"similarity index 100%\n" +
		"rename from my file\n" +
		"rename to your file\n" +
		"diff --git a/x b/y\n" +
		"similarity index 100%\n" +
		"copy from \"tab\\there\"\n" +
		"copy to plain name \n"

	patches, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, patches, 2)

	assert.Equal(t, StatusRenamed, patches[0].Status)
	assert.Equal(t, "my file", patches[0].OldPath)
	assert.Equal(t, "your file", patches[0].NewPath)

	assert.Equal(t, StatusCopied, patches[1].Status)
	assert.Equal(t, "tab\there", patches[1].OldPath)
	assert.Equal(t, "plain name", patches[1].NewPath)
}

func TestParse_ContentSharesInput(t *testing.T) {
	input := []byte("--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new\n")

	p, err := ParseOne(input)
	require.NoError(t, err)
	require.Len(t, p.Hunks[0].Lines, 2)

	off := p.Hunks[0].Lines[1].ContentOffset
	input[off+1] = 'N'
	assert.Equal(t, "New", string(p.Hunks[0].Lines[1].Content))

	ps, err := NewParser().Parse(bytes.NewReader(input))
	require.NoError(t, err)
	input[off+1] = 'x'
	assert.Equal(t, "New", string(ps[0].Hunks[0].Lines[1].Content))
}

func TestParse_EmptyFiles(t *testing.T) {
	input := "diff --git a/empty.txt b/empty.txt\n" +
		"new file mode 100644\n" +
		"index 0000000..e69de29\n" +
		"diff --git a/gone.txt b/gone.txt\n" +
		"deleted file mode 100644\n" +
		"index e69de29..0000000\n"

	patches, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, patches, 2)

	added := patches[0]
	assert.Equal(t, StatusAdded, added.Status)
	assert.Equal(t, DevNull, added.OldPath)
	assert.Equal(t, "empty.txt", added.NewPath)
	assert.Equal(t, ModeBlob, added.NewMode)
	assert.Empty(t, added.OldID)
	assert.Equal(t, "e69de29", added.NewID)
	assert.Empty(t, added.Hunks)
	assert.False(t, added.Binary)

	deleted := patches[1]
	assert.Equal(t, StatusDeleted, deleted.Status)
	assert.Equal(t, "gone.txt", deleted.OldPath)
	assert.Equal(t, DevNull, deleted.NewPath)
	assert.Equal(t, "e69de29", deleted.OldID)
	assert.Empty(t, deleted.NewID)
	assert.False(t, deleted.Binary)
}

func TestParse_Copy(t *testing.T) {
	input := "diff --git a/src.txt b/dst.txt\n" +
		"dissimilarity index 25%\n" +
		"copy from src.txt\n" +
		"copy to dst.txt\n"

	p, err := ParseOne([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, StatusCopied, p.Status)
	assert.Equal(t, "src.txt", p.OldPath)
	assert.Equal(t, "dst.txt", p.NewPath)
	assert.Equal(t, 75, p.Similarity)
}

func TestParser_Reader(t *testing.T) {
	content := readFixture(t, "mixed.diff")
	parser := NewParser()

	var g errgroup.Group
	results := make([][]*Patch, 8)
	for i := range results {
		i := i
		g.Go(func() error {
			patches, err := parser.Parse(bytes.NewReader(content))
			results[i] = patches
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := 1; i < len(results); i++ {
		if diff := cmp.Diff(results[0], results[i]); diff != "" {
			t.Errorf("result %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestParseError_Format(t *testing.T) {
	err := &ParseError{Line: 12, Msg: "invalid patch hunk"}
	assert.Equal(t, "invalid patch hunk at line 12", err.Error())
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.False(t, errors.Is(err, ErrNoPatch))
	assert.True(t, strings.HasSuffix(err.Error(), "12"))
}
