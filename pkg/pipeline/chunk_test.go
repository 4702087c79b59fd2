package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	text := strings.Repeat("a", 250)

	chunks := ChunkText(text, 100, 20)

	// Windows advance by chunkSize-overlap until the tail.
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 90)

	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestChunkText_ShortInput(t *testing.T) {
	chunks := ChunkText("short", 100, 20)

	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", 100, 20))
	assert.Nil(t, ChunkText("   \n\t ", 100, 20))
}

func TestChunkText_ExactFit(t *testing.T) {
	text := strings.Repeat("b", 100)

	chunks := ChunkText(text, 100, 20)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkText_CoversWholeInput(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37)

	chunks := ChunkText(text, 64, 16)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}
