package chunker

import "strings"

const (
	// DefaultMaxSize is the default chunk length in characters.
	DefaultMaxSize = 500
	// DefaultOverlap is the default number of characters shared by adjacent chunks.
	DefaultOverlap = 50
	// DefaultLookahead is how far past the window end a natural break is searched for.
	DefaultLookahead = 100
	// forcedExtension is how far past the window end a chunk runs when the
	// lookahead holds no natural break.
	forcedExtension = 50
)

// breakRunes are the natural break points, searched left to right.
const breakRunes = " .!?,;\n"

// CharChunker splits text into character-bounded chunks that prefer
// breaking on punctuation or whitespace.
type CharChunker struct {
	maxSize   int
	overlap   int
	lookahead int
}

// NewCharChunker returns a chunker with the given bounds. Non-positive
// values fall back to the package defaults.
func NewCharChunker(maxSize, overlap, lookahead int) *CharChunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &CharChunker{maxSize: maxSize, overlap: overlap, lookahead: lookahead}
}

// Split implements domain.Chunker.
func (c *CharChunker) Split(text string) []string {
	return split(text, c.maxSize, c.overlap, c.lookahead)
}

// MaxSize returns the configured chunk size.
func (c *CharChunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap.
func (c *CharChunker) Overlap() int { return c.overlap }

// Split cuts text into chunks of at most maxSize characters plus the
// distance to the next natural break within the lookahead. Without such a
// break the chunk is extended by a fixed 50 characters. Each chunk after the first starts
// overlap characters before the previous break, so the chunks cover the
// trimmed input without gaps.
func Split(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return split(text, maxSize, overlap, DefaultLookahead)
}

func split(text string, maxSize, overlap, lookahead int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	n := len(runes)
	if n <= maxSize {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + maxSize
		if end >= n {
			if c := strings.TrimSpace(string(runes[start:])); c != "" {
				chunks = append(chunks, c)
			}
			break
		}

		breakPoint := min(n, end+forcedExtension)
		limit := min(n, end+lookahead)
		for i := end; i < limit; i++ {
			if strings.ContainsRune(breakRunes, runes[i]) {
				breakPoint = i + 1
				break
			}
		}

		if c := strings.TrimSpace(string(runes[start:breakPoint])); c != "" {
			chunks = append(chunks, c)
		}
		if breakPoint >= n {
			break
		}
		// always advance, even when overlap >= maxSize
		start = max(start+1, breakPoint-overlap)
	}
	return chunks
}
