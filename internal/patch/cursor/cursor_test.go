package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_Lines(t *testing.T) {
	c := New([]byte("one\ntwo\nthree"))

	assert.Equal(t, "one\n", string(c.Line()))
	assert.Equal(t, 1, c.LineNum())
	assert.Equal(t, 13, c.Remain())
	assert.Equal(t, "two\n", string(c.NextLine()))

	c.AdvanceLine()
	assert.Equal(t, "two\n", string(c.Line()))
	assert.Equal(t, 2, c.LineNum())
	assert.Equal(t, 4, c.Offset())

	c.AdvanceLine()
	assert.Equal(t, "three", string(c.Line()))
	assert.Nil(t, c.NextLine())

	c.AdvanceLine()
	assert.Equal(t, 0, c.Remain())
	assert.Equal(t, 0, c.LineLen())
}

func TestCursor_AdvanceExpected(t *testing.T) {
	c := New([]byte("@@ -1,2 +3 @@\n"))

	require.True(t, c.AdvanceExpected("@@ -"))
	assert.False(t, c.AdvanceExpected("+"))

	v, ok := c.AdvanceDigit(10)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	b, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, byte(','), b)
}

func TestCursor_AdvanceDigit(t *testing.T) {
	t.Run("octal mode", func(t *testing.T) {
		c := New([]byte("100755\n"))
		v, ok := c.AdvanceDigit(8)
		require.True(t, ok)
		assert.Equal(t, int64(0o100755), v)
		assert.True(t, c.AdvanceNL())
	})

	t.Run("rejects non-digit", func(t *testing.T) {
		c := New([]byte("-5\n"))
		_, ok := c.AdvanceDigit(10)
		assert.False(t, ok)
		assert.Equal(t, 0, c.Offset())
	})

	t.Run("rejects overflow", func(t *testing.T) {
		c := New([]byte("99999999999999999999999\n"))
		_, ok := c.AdvanceDigit(10)
		assert.False(t, ok)
	})
}

func TestCursor_AdvanceWS(t *testing.T) {
	c := New([]byte("  \t x\n"))
	assert.True(t, c.AdvanceWS())
	assert.Equal(t, "x\n", string(c.Line()))
	assert.False(t, c.AdvanceWS())

	c = New([]byte(" \n"))
	c.AdvanceWS()
	assert.True(t, c.AdvanceNL(), "newline must not be consumed as whitespace")
}

func TestCursor_AdvanceCharsClamped(t *testing.T) {
	c := New([]byte("ab\ncd\n"))
	c.AdvanceChars(10)
	assert.Equal(t, 0, c.LineLen())
	assert.Equal(t, 1, c.LineNum())
}
