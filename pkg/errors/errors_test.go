package errors

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesType(t *testing.T) {
	err := NewNotFound("no concept abc")
	wrapped := Wrap(err, "load concept")

	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "load concept")

	assert.Nil(t, Wrap(nil, "anything"))
}

func TestWrap_ForeignErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(errors.New("connection refused"), "dial graph")
	assert.True(t, IsInternal(wrapped))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("bad input")))
	assert.True(t, IsUnavailable(NewUnavailable("neo4j down", nil)))
	assert.True(t, IsProcessing(NewProcessing("malformed json", nil)))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestTruncate(t *testing.T) {
	assert.Nil(t, Truncate(nil))

	short := NewValidation("short")
	assert.Same(t, short.(*AppError), Truncate(short).(*AppError), "short errors pass through untouched")

	long := errors.New(strings.Repeat("x", 1000))
	truncated := Truncate(long)
	require.Error(t, truncated)
	assert.Len(t, truncated.Error(), MaxSurfacedLength)
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	// "é" is two bytes, so the 200-byte limit falls mid-rune; the cut must
	// back up instead of surfacing invalid UTF-8.
	long := errors.New("x" + strings.Repeat("é", 200))
	truncated := Truncate(long)
	require.Error(t, truncated)

	msg := truncated.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, MaxSurfacedLength-1, len(msg))
	assert.LessOrEqual(t, len(msg), MaxSurfacedLength)
}
