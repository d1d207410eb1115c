package ingestion

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultMinChunkSize = 200
)

// separators are tried in order; the empty separator splits into characters.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk is one slice of a source document.
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count"`
}

// ChunkStats summarises a chunking run. AvgChunkSize is an integer mean.
type ChunkStats struct {
	TotalChunks  int `json:"total_chunks"`
	AvgChunkSize int `json:"avg_chunk_size"`
	MinChunkSize int `json:"min_chunk_size"`
	MaxChunkSize int `json:"max_chunk_size"`
}

// Chunker splits text recursively on paragraph, line, sentence, word and
// finally character boundaries, carrying Overlap characters between adjacent
// pieces. Pieces shorter than MinChunkSize are appended to the previous chunk.
type Chunker struct {
	ChunkSize    int
	Overlap      int
	MinChunkSize int
}

// NewChunker returns a chunker with the default sizes.
func NewChunker() *Chunker {
	return &Chunker{
		ChunkSize:    DefaultChunkSize,
		Overlap:      DefaultChunkOverlap,
		MinChunkSize: DefaultMinChunkSize,
	}
}

// Split chunks text. Empty text yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	var chunks []Chunk
	for i, piece := range c.split(text, separators) {
		n := runeLen(piece)
		if n < c.MinChunkSize && i > 0 {
			last := &chunks[len(chunks)-1]
			last.Text += " " + piece
			last.CharCount = runeLen(last.Text)
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: piece, CharCount: n})
	}
	return chunks
}

// split picks the first separator present in text, splits on it and recurses
// into pieces that are still too long with the remaining separators.
func (c *Chunker) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range splitKeepingSeparator(text, sep) {
		if runeLen(piece) < c.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, c.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good)...)
	}
	return out
}

// merge packs consecutive pieces into chunks of at most ChunkSize characters,
// starting each new chunk with up to Overlap characters of trailing pieces.
func (c *Chunker) merge(pieces []string) []string {
	var docs, current []string
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > c.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.Overlap || (total+n > c.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator splits text on sep and prefixes every piece after the
// first with the separator. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Stats summarises chunk sizes. No chunks yields all zeros.
func Stats(chunks []Chunk) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}
	stats := ChunkStats{
		TotalChunks:  len(chunks),
		MinChunkSize: chunks[0].CharCount,
		MaxChunkSize: chunks[0].CharCount,
	}
	sum := 0
	for _, c := range chunks {
		sum += c.CharCount
		stats.MinChunkSize = min(stats.MinChunkSize, c.CharCount)
		stats.MaxChunkSize = max(stats.MaxChunkSize, c.CharCount)
	}
	stats.AvgChunkSize = sum / len(chunks)
	return stats
}
