package ingestion

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_Split(t *testing.T) {
	a450 := strings.Repeat("a", 450)
	a300 := strings.Repeat("a", 300)
	b300 := strings.Repeat("b", 300)
	b100 := strings.Repeat("b", 100)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"short text is one chunk", "Hello world.", []string{"Hello world."}},
		{"paragraphs split", a300 + "\n\n" + b300, []string{a300, b300}},
		{"paragraphs that fit are merged", a300 + "\n\n" + b100, []string{a300 + "\n\n" + b100}},
		{"small tail merged with space", a450 + "\n\n" + b100, []string{a450 + " " + b100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := NewChunker().Split(tt.text)
			require.Len(t, chunks, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, i, chunks[i].Index)
				assert.Equal(t, want, chunks[i].Text)
				assert.Equal(t, len([]rune(want)), chunks[i].CharCount)
			}
		})
	}
}

func TestChunker_CharacterFallbackWithOverlap(t *testing.T) {
	text := strings.Repeat("x", 1200)
	chunks := NewChunker().Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, 500, chunks[0].CharCount)
	assert.Equal(t, 500, chunks[1].CharCount)
	assert.Equal(t, 300, chunks[2].CharCount)
}

func TestChunker_WordOverlap(t *testing.T) {
	var words []string
	for i := 0; i < 300; i++ {
		words = append(words, fmt.Sprintf("w%03d", i))
	}
	text := strings.Join(words, " ")

	chunks := NewChunker().Split(text)
	require.Greater(t, len(chunks), 2)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len([]rune(c.Text)), c.CharCount)
		if i < len(chunks)-1 {
			assert.LessOrEqual(t, c.CharCount, DefaultChunkSize)
		}
		if i == 0 {
			continue
		}
		first := strings.Fields(c.Text)[0]
		assert.Contains(t, strings.Fields(chunks[i-1].Text), first, "chunk %d should start inside chunk %d", i, i-1)
	}

	// every word survives chunking
	joined := " " + strings.Join(func() []string {
		out := make([]string, len(chunks))
		for i, c := range chunks {
			out[i] = c.Text
		}
		return out
	}(), " ") + " "
	for _, w := range words {
		assert.Contains(t, joined, " "+w+" ")
	}
}

func TestChunker_CustomSizes(t *testing.T) {
	c := &Chunker{ChunkSize: 20, Overlap: 0, MinChunkSize: 0}
	chunks := c.Split("one two three four five six seven eight")
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.CharCount, 20)
	}
	assert.Equal(t, "one two three four", chunks[0].Text)
}

func TestStats(t *testing.T) {
	assert.Equal(t, ChunkStats{}, Stats(nil))

	got := Stats([]Chunk{{CharCount: 100}, {CharCount: 300}, {CharCount: 201}})
	assert.Equal(t, ChunkStats{TotalChunks: 3, AvgChunkSize: 200, MinChunkSize: 100, MaxChunkSize: 300}, got)
}
