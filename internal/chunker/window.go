// Package chunker splits extracted document text into overlapping
// fixed-size windows for embedding.
package chunker

import (
	"fmt"
	"strings"
)

// DefaultSize is the default window width in characters.
const DefaultSize = 1000

// DefaultOverlap is the default number of characters shared between
// consecutive windows.
const DefaultOverlap = 200

// Window emits size-character chunks, each starting size-overlap characters
// after the previous one. The final chunk ends exactly at the text's end
// and may be shorter than size.
type Window struct {
	size    int
	overlap int
}

// NewWindow validates the parameters and returns a chunker. An overlap at
// or above the window size would make the scan non-terminating, so it is
// rejected rather than clamped.
func NewWindow(size, overlap int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap must be in [0, size), got %d", overlap)
	}
	return &Window{size: size, overlap: overlap}, nil
}

// Chunk splits text into ordered windows. The input is trimmed first and
// blank text yields no chunks. The same input always yields the same
// sequence, which is what makes re-ingestion idempotent.
func (w *Window) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	length := len(trimmed)
	chunks := make([]string, 0, length/(w.size-w.overlap)+1)
	start := 0
	for start < length {
		end := start + w.size
		if end > length {
			end = length
		}
		chunks = append(chunks, trimmed[start:end])
		if end == length {
			break
		}
		start = end - w.overlap
	}
	return chunks
}
